package selection

import (
	"fmt"

	"golang.org/x/text/cases"
)

// Tree 是解析后的整棵选择树，Nodes 是顶层的并列选择
type Tree struct {
	Nodes []*Node
	text  string
}

// FromText 解析字符串得到 Tree，空字符串得到空树
func FromText(text string) (*Tree, error) {
	return Parse(text)
}

func (t *Tree) String() string {
	return t.text
}

// SelectOption 配置 Selections 的展开方式
type SelectOption func(*selectConfig)

type selectConfig struct {
	qualifiers map[string]bool // nil 表示所有元素都展开子选择
	dropped    map[string]bool
}

// WithQualifierFilter 只有顶层元素属于 keys（忽略大小写）时才展开它的子选择，
// 其他元素按没有限定处理
func WithQualifierFilter(keys ...string) SelectOption {
	return func(c *selectConfig) {
		c.qualifiers = foldSet(keys)
	}
}

// WithoutParts 从生成的路径中去掉属于 keys 的元素（忽略大小写），
// 用于去掉 "m"、"mag" 这类别名关键字
func WithoutParts(keys ...string) SelectOption {
	return func(c *selectConfig) {
		c.dropped = foldSet(keys)
	}
}

func foldSet(keys []string) map[string]bool {
	caser := cases.Fold()
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[caser.String(key)] = true
	}
	return set
}

func (c *selectConfig) has(set map[string]bool, part Part) bool {
	if set == nil || part == nil {
		return false
	}
	return set[cases.Fold().String(part.String())]
}

// Selections 对树做深度优先的笛卡尔展开，返回所有具体的选择路径
// 空树返回一条空路径
func (t *Tree) Selections(opts ...SelectOption) ([]Path, error) {
	cfg := &selectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.selectNodes(t.Nodes, nil, true)
}

// selectNodes 展开同一层的并列节点，prefix 是已经选定的路径
func (c *selectConfig) selectNodes(nodes []*Node, prefix Path, top bool) ([]Path, error) {
	if len(nodes) == 0 {
		return []Path{clonePath(prefix)}, nil
	}

	var result []Path
	for _, node := range nodes {
		paths, err := c.selectNode(node, prefix, top)
		if err != nil {
			return nil, err
		}
		result = append(result, paths...)
	}
	return result, nil
}

func (c *selectConfig) selectNode(node *Node, prefix Path, top bool) ([]Path, error) {
	if node.IsOperation() {
		operations, err := c.selectOperation(node, top)
		if err != nil {
			return nil, err
		}
		result := make([]Path, len(operations))
		for i, operation := range operations {
			result[i] = append(clonePath(prefix), operation)
		}
		return result, nil
	}

	path := prefix
	if !c.has(c.dropped, node.Content) {
		path = append(clonePath(prefix), node.Content)
	}

	children := node.Children
	if top && c.qualifiers != nil && !c.has(c.qualifiers, node.Content) {
		children = nil
	}
	return c.selectNodes(children, path, false)
}

// selectOperation 对组合中每一项分别展开，再取笛卡尔积
func (c *selectConfig) selectOperation(node *Node, top bool) ([]*Operation, error) {
	combinations := [][]Term{nil}

	for _, operand := range node.Operands {
		paths, err := c.selectNode(operand.Node, nil, top)
		if err != nil {
			return nil, err
		}

		var next [][]Term
		for _, terms := range combinations {
			for _, path := range paths {
				if len(path) == 0 {
					return nil, fmt.Errorf("%w: the operand `%s` of `%s` is empty after filtering",
						ErrIncorrectUsage, operand.Node, node)
				}
				extended := append(append([]Term(nil), terms...), Term{Operator: operand.Operator, Path: path})
				next = append(next, extended)
			}
		}
		combinations = next
	}

	operations := make([]*Operation, len(combinations))
	for i, terms := range combinations {
		operations[i] = &Operation{Terms: terms}
	}
	return operations, nil
}

func clonePath(path Path) Path {
	return append(Path(nil), path...)
}
