package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glesirok/selexpr/pkg/dataset"
	"github.com/glesirok/selexpr/pkg/dispatch"
	"github.com/glesirok/selexpr/pkg/index"
	"github.com/glesirok/selexpr/pkg/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newProcessor(t *testing.T, opts ...index.Option) *Processor {
	t.Helper()
	p, err := NewProcessor("testdata/dos.yaml", opts...)
	require.NoError(t, err)
	return p
}

func TestRead(t *testing.T) {
	p := newProcessor(t)
	ctx := context.Background()

	tests := []struct {
		selection string
		expected  any
	}{
		{"Sr(p)", map[string]any{"Sr(p)": 6.0}},
		{"SR(P)", map[string]any{"Sr(p)": 6.0}},
		{"", map[string]any{"dos": 190.0}},
		{"Sr Ti", map[string]any{"Sr": 6.0, "Ti": 22.0}},
		{"O(s) - Ti(s)", map[string]any{"O(s) - Ti(s)": 32.0}},
		{"1:2(s)", map[string]any{"1:2(s)": 4.0}},
		{"kpoints_opt(Sr(p)) Ti", map[string]any{
			"kpoints_opt": map[string]any{"Sr(p)": 20.0},
			"default":     map[string]any{"Ti": 22.0},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.selection, func(t *testing.T) {
			result, err := p.Read(ctx, tt.selection)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestReadUnmappedAxis(t *testing.T) {
	ds, err := dataset.Parse([]byte(`
quantity: band
sources:
  - shape: [2, 3]
    data: [0, 1, 2, 3, 4, 5]
    axes:
      - dim: 0
        labels:
          up: 0
          down: 1
`))
	require.NoError(t, err)
	p, err := FromSource(ds, "default")
	require.NoError(t, err)

	result, err := p.Read(context.Background(), "up down")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"up": []float64{0, 1, 2}, "down": []float64{3, 4, 5}}, result)
}

func TestReadErrors(t *testing.T) {
	p := newProcessor(t)
	ctx := context.Background()

	_, err := p.Read(ctx, "foo")
	assert.ErrorIs(t, err, index.ErrUnknownLabel)

	_, err = p.Read(ctx, "kpoints_opt + Sr")
	assert.ErrorIs(t, err, dispatch.ErrNotImplemented)

	_, err = p.Read(ctx, "Sr(p")
	assert.Error(t, err)
}

func TestReadRepeatedLabels(t *testing.T) {
	p := newProcessor(t)

	result, err := p.Read(context.Background(), "Sr, SR, O(s) Ti(s)")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Sr": 6.0, "SR": 6.0, "O(s)": 36.0, "Ti(s)": 4.0}, result)
}

func TestIncorrectUsageIsShared(t *testing.T) {
	p := newProcessor(t)
	ctx := context.Background()

	// 区间的两端在不同的维
	_, err := p.Read(ctx, "Sr:p")
	assert.ErrorIs(t, err, selection.ErrIncorrectUsage)

	ds, err := dataset.LoadFromFile("testdata/dos.yaml")
	require.NoError(t, err)
	static, err := FromSource(ds, "default")
	require.NoError(t, err)
	_, err = static.Read(ctx, "kpoints_opt(Sr)")
	assert.ErrorIs(t, err, selection.ErrIncorrectUsage)
}

func TestReadWithoutDefaultSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "band.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
quantity: band
sources:
  - name: alt
    data: [1, 2]
    axes:
      - dim: 0
        labels:
          a: 0
          b: 1
`), 0644))

	p, err := NewProcessor(path)
	require.NoError(t, err)
	ctx := context.Background()

	result, err := p.Read(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, result)

	result, err = p.Read(ctx, "alt(b) a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"alt":     map[string]any{"b": 2.0},
		"default": map[string]any{"a": 1.0},
	}, result)
}

func TestReadWithOptions(t *testing.T) {
	p := newProcessor(t, index.WithNumericLabels(1))

	// 0 不是标签，作为轨道的索引
	result, err := p.Read(context.Background(), "Ti(0)")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Ti(0)": 4.0}, result)
}

func TestLabels(t *testing.T) {
	p := newProcessor(t)

	labels, err := p.Labels(context.Background(), "SR(P) charge")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sr(p)", "dos"}, labels)
}

func TestSelections(t *testing.T) {
	p := newProcessor(t)
	assert.Equal(t, "dos", p.Quantity())
	assert.Equal(t, map[string][]string{"dos": {"default", "kpoints_opt"}}, p.Selections())
}

func TestFromSource(t *testing.T) {
	ds, err := dataset.LoadFromFile("testdata/dos.yaml")
	require.NoError(t, err)

	p, err := FromSource(ds, "kpoints_opt")
	require.NoError(t, err)
	ctx := context.Background()

	result, err := p.Read(ctx, "Sr(p)")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Sr(p)": 20.0}, result)

	_, err = p.Read(ctx, "kpoints_opt(Sr)")
	assert.ErrorIs(t, err, dispatch.ErrIncorrectUsage)

	_, err = FromSource(ds, "kpoints_wan")
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	p := newProcessor(t)
	output := filepath.Join(t.TempDir(), "result.yaml")

	require.NoError(t, p.ProcessFile(context.Background(), "testdata/queries/band.yaml", output, false))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var results ResultFile
	require.NoError(t, yaml.Unmarshal(data, &results))

	assert.Equal(t, "dos", results.Quantity)
	require.Len(t, results.Results, 2)
	assert.Equal(t, "Sr(p)", results.Results[0].Selection)
	assert.Equal(t, map[string]any{"Sr(p)": 6}, results.Results[0].Value)
	assert.Equal(t, map[string]any{
		"kpoints_opt": map[string]any{"Sr(p)": 20},
		"default":     map[string]any{"Ti": 22},
	}, results.Results[1].Value)
}

func TestProcessFileDryRun(t *testing.T) {
	p := newProcessor(t)
	output := filepath.Join(t.TempDir(), "result.yaml")

	require.NoError(t, p.ProcessFile(context.Background(), "testdata/queries/band.yaml", output, true))
	assert.NoFileExists(t, output)
}

func TestProcessDirectory(t *testing.T) {
	p := newProcessor(t)
	outputDir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, p.ProcessDirectory(context.Background(), "testdata/queries", outputDir, false))

	assert.FileExists(t, filepath.Join(outputDir, "band"+ResultSuffix))
	assert.FileExists(t, filepath.Join(outputDir, "nested", "difference"+ResultSuffix))
	assert.NoFileExists(t, filepath.Join(outputDir, "notes"+ResultSuffix))

	data, err := os.ReadFile(filepath.Join(outputDir, "nested", "difference"+ResultSuffix))
	require.NoError(t, err)
	var results ResultFile
	require.NoError(t, yaml.Unmarshal(data, &results))
	require.Len(t, results.Results, 1)
	assert.Equal(t, map[string]any{"O(s) - Ti(s)": 32}, results.Results[0].Value)
}

func TestProcessDirectoryFailure(t *testing.T) {
	p := newProcessor(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("queries: [Fe]\n"), 0644))

	err := p.ProcessDirectory(context.Background(), dir, filepath.Join(dir, "out"), false)
	assert.ErrorIs(t, err, index.ErrUnknownLabel)
}
