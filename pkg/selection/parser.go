package selection

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord      tokenKind = iota // 普通元素，如 Sr、1、kpoints_opt
	tokenComma                      // ,
	tokenOpen                       // (
	tokenClose                      // )
	tokenSeparator                  // : ~ =
	tokenOperator                   // + -
	tokenEnd                        // 文本结束
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// Parse 解析选择字符串
// 支持语法：
//   - "a, b c"      : 逗号或空白分隔的并列选择
//   - "Ti(d)"       : 括号表示限定，可以任意嵌套
//   - "1:3"         : 区间
//   - "A~B"         : 配对
//   - "k=v"         : 赋值
//   - "A + B - C"   : 加减组合，从左到右求值
func Parse(text string) (*Tree, error) {
	tokens := splitTokens(text)
	p := &parser{text: text, tokens: tokens}

	nodes, err := p.parseList(false)
	if err != nil {
		return nil, err
	}

	return &Tree{Nodes: nodes, text: text}, nil
}

// splitTokens 把字符串切分为词法单元，空白只起分隔作用
// @...@ 之间的内容整体作为一个元素，不做切分
// 例如: "Sr(p) 1 : 3" -> [Sr ( p ) 1 : 3]
func splitTokens(text string) []token {
	var tokens []token
	var current strings.Builder
	start := 0
	inPattern := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, token{kind: tokenWord, text: current.String(), offset: start})
			current.Reset()
		}
	}

	for i, ch := range text {
		if inPattern {
			current.WriteRune(ch)
			inPattern = ch != '@'
			continue
		}

		kind, reserved := reservedKind(ch)
		switch {
		case unicode.IsSpace(ch):
			flush()
		case reserved:
			flush()
			tokens = append(tokens, token{kind: kind, text: string(ch), offset: i})
		default:
			if current.Len() == 0 {
				start = i
				inPattern = ch == '@'
			}
			current.WriteRune(ch)
		}
	}
	flush()

	return append(tokens, token{kind: tokenEnd, offset: len(text)})
}

func reservedKind(ch rune) (tokenKind, bool) {
	switch ch {
	case ',':
		return tokenComma, true
	case '(':
		return tokenOpen, true
	case ')':
		return tokenClose, true
	case rune(RangeSeparator), rune(PairSeparator), rune(AssignSeparator):
		return tokenSeparator, true
	case rune(OpAdd), rune(OpSub):
		return tokenOperator, true
	}
	return 0, false
}

type parser struct {
	text   string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEnd {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok token, format string, args ...any) error {
	return &SyntaxError{Text: p.text, Offset: tok.offset, Message: fmt.Sprintf(format, args...)}
}

// parseList 解析一层并列的选择，nested 为 true 时必须以 ) 结束
func (p *parser) parseList(nested bool) ([]*Node, error) {
	var nodes []*Node

	for {
		tok := p.peek()
		switch tok.kind {
		case tokenEnd:
			if nested {
				return nil, p.errorAt(tok, "An opening parenthesis was not followed by a closing one.")
			}
			return nodes, nil

		case tokenClose:
			if !nested {
				return nil, p.errorAt(tok, "Closing parenthesis ')' must follow an opening one.")
			}
			p.next()
			return nodes, nil

		case tokenComma:
			p.next()

		default:
			node, err := p.parseAlternative()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
}

// parseAlternative 解析一个并列项，运算符只连接紧邻的两个元素
func (p *parser) parseAlternative() (*Node, error) {
	var operands []*Operand

	operator := OpAdd
	pending := "" // 刚读到的运算符，后面必须跟一个元素
	if tok := p.peek(); tok.kind == tokenOperator {
		p.next()
		operator = Operator(tok.text[0])
		pending = tok.text
	}

	for {
		if pending != "" && p.peek().kind != tokenWord {
			return nil, p.errorAt(p.peek(), "The operator %s is not followed by an element.", pending)
		}

		node, err := p.parseQualified()
		if err != nil {
			return nil, err
		}
		operands = append(operands, &Operand{Operator: operator, Node: node})

		if p.peek().kind != tokenOperator {
			break
		}
		pending = p.next().text
		operator = Operator(pending[0])
	}

	if len(operands) == 1 && operands[0].Operator == OpAdd {
		return operands[0].Node, nil
	}
	return &Node{Operands: operands}, nil
}

// parseQualified 解析 "content" 或 "content(children...)"
func (p *parser) parseQualified() (*Node, error) {
	content, err := p.parseContent()
	if err != nil {
		return nil, err
	}

	node := &Node{Content: content}
	if p.peek().kind != tokenOpen {
		return node, nil
	}

	p.next()
	children, err := p.parseList(true)
	if err != nil {
		return nil, err
	}
	node.Children = children
	return node, nil
}

// parseContent 解析单个元素或两个元素组成的 Group
func (p *parser) parseContent() (Part, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenWord:
	case tokenSeparator:
		return nil, p.errorAt(tok, "The left argument of %s is missing.", Separator(tok.text[0]))
	case tokenOpen:
		return nil, p.errorAt(tok, "Opening parenthesis '(' must relate to a previous argument.")
	default:
		return nil, p.errorAt(tok, "Expected an element of the selection.")
	}
	p.next()

	if p.peek().kind != tokenSeparator {
		return Token(tok.text), nil
	}
	sepTok := p.next()
	separator := Separator(sepTok.text[0])

	right, err := p.parseGroupRight(separator)
	if err != nil {
		return nil, err
	}

	if next := p.peek(); next.kind == tokenSeparator {
		return nil, p.errorAt(next, "A %s joins exactly two elements.", separator)
	}

	return &Group{Parts: []string{tok.text, right}, Separator: separator}, nil
}

// parseGroupRight 读取 Group 的右侧元素，赋值允许带符号的数值，如 x=-0.5
func (p *parser) parseGroupRight(separator Separator) (string, error) {
	tok := p.peek()
	if separator == AssignSeparator && tok.kind == tokenOperator && p.peekAt(1).kind == tokenWord {
		p.next()
		return tok.text + p.next().text, nil
	}
	if tok.kind != tokenWord {
		return "", p.errorAt(tok, "The right argument of %s is missing.", separator)
	}
	return p.next().text, nil
}
