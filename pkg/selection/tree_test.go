package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeOf(left, right string) *Group {
	return &Group{Parts: []string{left, right}, Separator: RangeSeparator}
}

func pairOf(left, right string) *Group {
	return &Group{Parts: []string{left, right}, Separator: PairSeparator}
}

func mustSelections(t *testing.T, text string, opts ...SelectOption) []Path {
	t.Helper()
	tree, err := FromText(text)
	require.NoError(t, err)
	paths, err := tree.Selections(opts...)
	require.NoError(t, err)
	return paths
}

func TestSelectionsEmpty(t *testing.T) {
	for _, text := range []string{"", "  "} {
		paths := mustSelections(t, text)
		require.Len(t, paths, 1)
		assert.Empty(t, paths[0])
	}
}

func TestSelectionsCartesian(t *testing.T) {
	assert.Equal(t, []Path{{Token("foo")}}, mustSelections(t, "foo"))

	expected := []Path{
		{Token("A"), Token("x")},
		{Token("A"), Token("y")},
		{Token("B")},
	}
	assert.Equal(t, expected, mustSelections(t, "A(x,y) B"))
}

func TestSelectionsComplexTree(t *testing.T) {
	expected := []Path{
		{Token("A"), Token("B"), rangeOf("1", "3")},
		{Token("A"), pairOf("C", "D"), Token("E")},
		{Token("A"), pairOf("C", "D"), Token("F")},
		{Token("G"), Token("H")},
		{Token("G"), Token("J")},
		{Token("K")},
	}
	assert.Equal(t, expected, mustSelections(t, "A(B(1:3), C~D(E F)) G(H, J) K"))
}

func TestSelectionsOperation(t *testing.T) {
	paths := mustSelections(t, "Sr + Ti")
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 1)
	operation, ok := paths[0][0].(*Operation)
	require.True(t, ok)
	assert.Equal(t, []Term{
		{Operator: OpAdd, Path: Path{Token("Sr")}},
		{Operator: OpAdd, Path: Path{Token("Ti")}},
	}, operation.Terms)
	assert.Equal(t, "Sr + Ti", operation.String())

	paths = mustSelections(t, "Sr, Ti")
	assert.Equal(t, []Path{{Token("Sr")}, {Token("Ti")}}, paths)
}

func TestSelectionsOperationWithAlternatives(t *testing.T) {
	paths := mustSelections(t, "A(x, y) - B")
	require.Len(t, paths, 2)
	assert.Equal(t, "A(x) - B", ToText(paths[0]))
	assert.Equal(t, "A(y) - B", ToText(paths[1]))
}

func TestSelectionsNestedOperation(t *testing.T) {
	paths := mustSelections(t, "A(x + y(2)) - B(1:3 u - v)")
	require.Len(t, paths, 2)
	assert.Equal(t, "A(x + y(2)) - B(1:3)", ToText(paths[0]))
	assert.Equal(t, "A(x + y(2)) - B(u - v)", ToText(paths[1]))

	prefix, ok := paths[0][0].(*Operation)
	require.True(t, ok)
	first := prefix.Terms[0].Path
	require.Len(t, first, 2)
	assert.Equal(t, Token("A"), first[0])
	_, ok = first[1].(*Operation)
	assert.True(t, ok)
}

func TestSelectionsQualifierFilter(t *testing.T) {
	paths := mustSelections(t, "Sr(p) MAG(x, y) up", WithQualifierFilter("mag", "m"))
	expected := []Path{
		{Token("Sr")},
		{Token("MAG"), Token("x")},
		{Token("MAG"), Token("y")},
		{Token("up")},
	}
	assert.Equal(t, expected, paths)
}

func TestSelectionsWithoutParts(t *testing.T) {
	paths := mustSelections(t, "m(x) Sr(mag)", WithoutParts("m", "mag"))
	assert.Equal(t, []Path{{Token("x")}, {Token("Sr")}}, paths)

	tree, err := FromText("m + x")
	require.NoError(t, err)
	_, err = tree.Selections(WithoutParts("m"))
	assert.ErrorIs(t, err, ErrIncorrectUsage)
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"Sr(p)",
		"A(B(1:3), C~D(E F)) G(H, J) K",
		"A(x + y(2)) - B(z(1 + 2))",
		"-A(x - y)",
		"k=v(Sr) x=-0.5",
		"A + B C",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			for _, path := range mustSelections(t, text) {
				again := mustSelections(t, ToText(path))
				require.Len(t, again, 1)
				assert.Equal(t, path, again[0])
			}
		})
	}
}

func TestContains(t *testing.T) {
	paths := mustSelections(t, "Sr(p) kpoints_opt(1:3) A + Default(B)")
	require.Len(t, paths, 3)

	assert.True(t, Contains(paths[0], "sr", true))
	assert.False(t, Contains(paths[0], "sr", false))
	assert.True(t, Contains(paths[1], "3", false))
	assert.True(t, Contains(paths[2], "default", true))
	assert.False(t, Contains(paths[2], "C", true))
}

func TestRemoveIfPossible(t *testing.T) {
	paths := mustSelections(t, "KPOINTS_OPT(Sr) default + x, kpoints_opt(kpoints_opt)")
	require.Len(t, paths, 3)

	removed, remaining := RemoveIfPossible(paths[0], "kpoints_opt")
	assert.True(t, removed)
	assert.Equal(t, Path{Token("Sr")}, remaining)

	removed, remaining = RemoveIfPossible(paths[1], "default")
	assert.False(t, removed)
	assert.Equal(t, paths[1], remaining)

	removed, remaining = RemoveIfPossible(paths[2], "kpoints_opt")
	assert.True(t, removed)
	assert.Equal(t, Path{Token("kpoints_opt")}, remaining)
}

func TestSelectionsToText(t *testing.T) {
	paths := mustSelections(t, "A(x,y) B~C 1:3")
	assert.Equal(t, "A(x), A(y), B~C, 1:3", SelectionsToText(paths))
	assert.Equal(t, "", SelectionsToText(nil))
}
