package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeTexts(nodes []*Node) []string {
	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Content.String()
	}
	return texts
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", " , ,"} {
		tree, err := Parse(text)
		require.NoError(t, err)
		assert.Empty(t, tree.Nodes)
	}
}

func TestParseOneLevel(t *testing.T) {
	tree, err := Parse("foo bar baz")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "baz"}, nodeTexts(tree.Nodes))
}

func TestParseNested(t *testing.T) {
	tree, err := Parse("foo(bar(baz))")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)

	level1 := tree.Nodes[0]
	assert.Equal(t, Token("foo"), level1.Content)
	require.Len(t, level1.Children, 1)
	level2 := level1.Children[0]
	assert.Equal(t, Token("bar"), level2.Content)
	require.Len(t, level2.Children, 1)
	assert.Equal(t, Token("baz"), level2.Children[0].Content)
	assert.Empty(t, level2.Children[0].Children)
}

func TestParseSeparators(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		top      []string
		children []string
	}{
		{name: "comma", text: "foo, bar(1, 2)", top: []string{"foo", "bar"}, children: []string{"1", "2"}},
		{name: "excess whitespace", text: "  foo   (  bar,   baz  )", top: []string{"foo"}, children: []string{"bar", "baz"}},
		{name: "no whitespace", text: "foo(bar)baz", top: []string{"foo", "baz"}, children: []string{"bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.top, nodeTexts(tree.Nodes))

			var qualified *Node
			for _, node := range tree.Nodes {
				if len(node.Children) > 0 {
					qualified = node
				}
			}
			require.NotNil(t, qualified)
			assert.Equal(t, tt.children, nodeTexts(qualified.Children))
		})
	}
}

func TestParseGroups(t *testing.T) {
	tree, err := Parse("foo(1 : 3) 2:6 baz  ~  bar, k=v x=-0.5")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 5)

	assert.Equal(t, &Group{Parts: []string{"1", "3"}, Separator: RangeSeparator}, tree.Nodes[0].Children[0].Content)
	assert.Equal(t, &Group{Parts: []string{"2", "6"}, Separator: RangeSeparator}, tree.Nodes[1].Content)
	assert.Equal(t, &Group{Parts: []string{"baz", "bar"}, Separator: PairSeparator}, tree.Nodes[2].Content)
	assert.Equal(t, &Group{Parts: []string{"k", "v"}, Separator: AssignSeparator}, tree.Nodes[3].Content)
	assert.Equal(t, &Group{Parts: []string{"x", "-0.5"}, Separator: AssignSeparator}, tree.Nodes[4].Content)
	assert.Equal(t, "baz~bar", tree.Nodes[2].Content.String())
}

func TestParseOperations(t *testing.T) {
	tree, err := Parse("A + B C, -D(x) - E")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 3)

	sum := tree.Nodes[0]
	require.True(t, sum.IsOperation())
	require.Len(t, sum.Operands, 2)
	assert.Equal(t, OpAdd, sum.Operands[0].Operator)
	assert.Equal(t, OpAdd, sum.Operands[1].Operator)
	assert.Equal(t, "A + B", sum.String())

	assert.Equal(t, Token("C"), tree.Nodes[1].Content)

	diff := tree.Nodes[2]
	require.True(t, diff.IsOperation())
	assert.Equal(t, OpSub, diff.Operands[0].Operator)
	assert.Equal(t, OpSub, diff.Operands[1].Operator)
	assert.Equal(t, "-D(x) - E", diff.String())
}

func TestParseUnaryPlusIsPlain(t *testing.T) {
	tree, err := Parse("+A")
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 1)
	assert.False(t, tree.Nodes[0].IsOperation())
	assert.Equal(t, Token("A"), tree.Nodes[0].Content)
}

func TestParsePatternIsOneElement(t *testing.T) {
	tree, err := Parse("@^(sr|ti)-[a-z]+$@(p) x")
	require.NoError(t, err)
	assert.Equal(t, []string{"@^(sr|ti)-[a-z]+$@", "x"}, nodeTexts(tree.Nodes))
	assert.Equal(t, []string{"p"}, nodeTexts(tree.Nodes[0].Children))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
	}{
		{name: "missing closing parenthesis", text: "A(B", offset: 3},
		{name: "superfluous closing parenthesis", text: "A)", offset: 1},
		{name: "parenthesis without argument", text: "(A)", offset: 0},
		{name: "parenthesis after parenthesis", text: "A(x)(y)", offset: 4},
		{name: "range misses left", text: ":3", offset: 0},
		{name: "range misses right", text: "1:", offset: 2},
		{name: "pair misses right", text: "A~ , B", offset: 3},
		{name: "chained range", text: "1:2:3", offset: 3},
		{name: "operator misses right", text: "A +", offset: 3},
		{name: "double operator", text: "A + - B", offset: 4},
		{name: "operator before comma", text: "A -, B", offset: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.offset, syntaxErr.Offset)
			assert.Contains(t, err.Error(), tt.text)
		})
	}
}

func TestNewGroupNeedsTwoParts(t *testing.T) {
	_, err := NewGroup(RangeSeparator, "1")
	assert.ErrorIs(t, err, ErrSyntax)

	group, err := NewGroup(PairSeparator, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, "A~B", group.String())
	assert.Equal(t, "A", group.Left())
	assert.Equal(t, "B", group.Right())
}
