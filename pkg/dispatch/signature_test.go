package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	signature := NewSignature(Required("quantity"), Optional(SelectionParam, "total"), Optional("width", 1.0))

	tests := []struct {
		name     string
		args     Arguments
		expected map[string]any
	}{
		{
			name:     "defaults",
			args:     Args("dos"),
			expected: map[string]any{"quantity": "dos", SelectionParam: "total", "width": 1.0},
		},
		{
			name:     "positional",
			args:     Args("dos", "Sr", 0.5),
			expected: map[string]any{"quantity": "dos", SelectionParam: "Sr", "width": 0.5},
		},
		{
			name:     "keyword",
			args:     Args("dos").With("width", 2.0),
			expected: map[string]any{"quantity": "dos", SelectionParam: "total", "width": 2.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound, err := signature.Bind(tt.args)
			require.NoError(t, err)
			for name, value := range tt.expected {
				assert.Equal(t, value, bound.Get(name), name)
			}
		})
	}
}

func TestBindErrors(t *testing.T) {
	signature := NewSignature(Required("quantity"), Optional(SelectionParam, nil))

	tests := []struct {
		name string
		args Arguments
	}{
		{name: "missing", args: Args()},
		{name: "too many", args: Args("dos", "Sr", "extra")},
		{name: "unexpected keyword", args: Args("dos").With("width", 1)},
		{name: "duplicate", args: Args("dos").With("quantity", "band")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signature.Bind(tt.args)
			assert.ErrorIs(t, err, ErrSignature)
		})
	}
}

func TestBoundText(t *testing.T) {
	bound, err := NewSignature(Optional(SelectionParam, nil)).Bind(Args())
	require.NoError(t, err)
	assert.Equal(t, "", bound.Text(SelectionParam))

	work := bound.clone()
	work.values[SelectionParam] = "Sr"
	assert.Equal(t, "Sr", work.Text(SelectionParam))
	assert.Nil(t, bound.Get(SelectionParam))
}
