package selection

import (
	"strings"
)

// Separator 表示 Group 内部成员之间的分隔符
type Separator byte

const (
	RangeSeparator  Separator = ':' // 1:3 区间
	PairSeparator   Separator = '~' // A~B 配对
	AssignSeparator Separator = '=' // key=value 赋值
)

func (s Separator) String() string {
	switch s {
	case RangeSeparator:
		return "range"
	case PairSeparator:
		return "pair"
	case AssignSeparator:
		return "assignment"
	default:
		return "group"
	}
}

// Operator 表示组合运算符
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
)

// Part 是选择路径中的一个元素，只可能是 Token、*Group 或 *Operation
type Part interface {
	String() string
	isPart()
}

// Token 是语法中的叶子，没有内部结构
type Token string

func (t Token) String() string { return string(t) }
func (Token) isPart()          {}

// Group 表示用分隔符连接的复合元素，如 "1:3"、"A~B"、"k=v"
type Group struct {
	Parts     []string
	Separator Separator
}

// NewGroup 创建 Group，成员少于两个时报错
func NewGroup(separator Separator, parts ...string) (*Group, error) {
	if len(parts) < 2 {
		return nil, syntaxErrorf("a %s needs two elements, got %d", separator, len(parts))
	}
	return &Group{Parts: append([]string(nil), parts...), Separator: separator}, nil
}

func (g *Group) String() string {
	return strings.Join(g.Parts, string(g.Separator))
}

func (*Group) isPart() {}

// Left 返回第一个成员
func (g *Group) Left() string { return g.Parts[0] }

// Right 返回最后一个成员
func (g *Group) Right() string { return g.Parts[len(g.Parts)-1] }

// Term 是组合中的一项：运算符加上一条完整的子路径
type Term struct {
	Operator Operator
	Path     Path
}

// Operation 表示 "A + B - C" 这样的组合，从左到右求值
// 第一项的运算符为 OpSub 时表示一元负号
type Operation struct {
	Terms []Term
}

func (o *Operation) String() string {
	var b strings.Builder
	for i, term := range o.Terms {
		switch {
		case i == 0 && term.Operator == OpSub:
			b.WriteString("-")
		case i > 0:
			b.WriteString(" ")
			b.WriteByte(byte(term.Operator))
			b.WriteString(" ")
		}
		b.WriteString(ToText(term.Path))
	}
	return b.String()
}

func (*Operation) isPart() {}

// Path 表示从根到叶子的一条具体选择
type Path []Part

func (p Path) String() string { return ToText(p) }

// Node 是语法树中的一个节点
// 普通节点持有 Content（Token 或 *Group），Children 是限定它的子选择；
// 组合节点的 Content 为 nil，Operands 保存参与运算的各项
type Node struct {
	Content  Part
	Children []*Node
	Operands []*Operand
}

// Operand 是组合节点中的一项
type Operand struct {
	Operator Operator
	Node     *Node
}

// IsOperation 判断节点是否为组合节点
func (n *Node) IsOperation() bool {
	return len(n.Operands) > 0
}

func (n *Node) String() string {
	if n.IsOperation() {
		var b strings.Builder
		for i, operand := range n.Operands {
			switch {
			case i == 0 && operand.Operator == OpSub:
				b.WriteString("-")
			case i > 0:
				b.WriteString(" ")
				b.WriteByte(byte(operand.Operator))
				b.WriteString(" ")
			}
			b.WriteString(operand.Node.String())
		}
		return b.String()
	}
	if len(n.Children) == 0 {
		return n.Content.String()
	}
	children := make([]string, len(n.Children))
	for i, child := range n.Children {
		children[i] = child.String()
	}
	return n.Content.String() + "(" + strings.Join(children, ", ") + ")"
}
