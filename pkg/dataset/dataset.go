package dataset

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/glesirok/selexpr/pkg/index"
	"github.com/glesirok/selexpr/pkg/ndarray"
	"gopkg.in/yaml.v3"
)

// DefaultSource 是没有名字的数据源使用的名字
const DefaultSource = "default"

// Dataset 表示一个数据文件，一个量在多个数据源下的数据
type Dataset struct {
	Quantity string    `yaml:"quantity"`
	Sources  []*Source `yaml:"sources"`
}

// Source 是一个数据源下的数组和它的标签
type Source struct {
	Name          string    `yaml:"name"`
	Shape         []int     `yaml:"shape"`
	Data          []float64 `yaml:"data"`
	Reduction     string    `yaml:"reduction"`
	NumericLabels *int      `yaml:"numeric_labels"`
	Axes          []Axis    `yaml:"axes"`
}

// Axis 把标签映射到数组的第 Dim 维，列表中的顺序就是查找标签的优先顺序
type Axis struct {
	Dim    int              `yaml:"dim"`
	Name   string           `yaml:"name"`
	Labels map[string]Label `yaml:"labels"`
}

// LoadFromFile 从文件加载数据
func LoadFromFile(filePath string) (*Dataset, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(data)
}

// Parse 解析并校验 YAML 数据
func Parse(data []byte) (*Dataset, error) {
	// 移除 UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	for _, source := range ds.Sources {
		if source != nil && source.Name == "" {
			source.Name = DefaultSource
		}
	}

	if err := Validate(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate 校验数据的合法性
func Validate(ds *Dataset) error {
	if ds.Quantity == "" {
		return fmt.Errorf("quantity is required")
	}
	if len(ds.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	seen := make(map[string]bool)
	for i, source := range ds.Sources {
		if source == nil {
			return fmt.Errorf("source %d is empty", i)
		}
		key := strings.ToLower(source.Name)
		if seen[key] {
			return fmt.Errorf("source %q is defined twice", source.Name)
		}
		seen[key] = true

		if _, err := source.Selector(); err != nil {
			return fmt.Errorf("source %q: %w", source.Name, err)
		}
	}

	return nil
}

// Catalog 返回所有数据源的名字
func (ds *Dataset) Catalog() []string {
	names := make([]string, len(ds.Sources))
	for i, source := range ds.Sources {
		names[i] = source.Name
	}
	return names
}

// Source 按名字查找数据源（忽略大小写）
// 没有名为 default 的数据源时，default 指第一个数据源
func (ds *Dataset) Source(name string) (*Source, error) {
	for _, source := range ds.Sources {
		if strings.EqualFold(source.Name, name) {
			return source, nil
		}
	}
	if strings.EqualFold(name, DefaultSource) && len(ds.Sources) > 0 {
		return ds.Sources[0], nil
	}
	return nil, fmt.Errorf("source %q not found in %s, available sources are %s",
		name, ds.Quantity, strings.Join(ds.Catalog(), ", "))
}

// Array 返回数据源的数组，没有给出 shape 时为一维数组
func (s *Source) Array() (*ndarray.Array, error) {
	shape := s.Shape
	if len(shape) == 0 {
		shape = []int{len(s.Data)}
	}
	return ndarray.New(shape, s.Data)
}

// IndexAxes 转换为 index.Axis
func (s *Source) IndexAxes() []index.Axis {
	axes := make([]index.Axis, len(s.Axes))
	for i, axis := range s.Axes {
		labels := make(map[string]index.Spec, len(axis.Labels))
		for name, label := range axis.Labels {
			labels[name] = label.Spec
		}
		axes[i] = index.Axis{Dim: axis.Dim, Name: axis.Name, Labels: labels}
	}
	return axes
}

// Options 返回文件中配置的 Selector 选项
func (s *Source) Options() ([]index.Option, error) {
	var opts []index.Option

	reduction, ok := index.ReductionByName(s.Reduction)
	if !ok {
		return nil, fmt.Errorf("unknown reduction: %s", s.Reduction)
	}
	opts = append(opts, index.WithReduction(reduction))

	if s.NumericLabels != nil {
		opts = append(opts, index.WithNumericLabels(*s.NumericLabels))
	}
	return opts, nil
}

// Selector 创建该数据源的 Selector，extra 中的选项覆盖文件中的配置
func (s *Source) Selector(extra ...index.Option) (*index.Selector, error) {
	array, err := s.Array()
	if err != nil {
		return nil, err
	}
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	return index.New(s.IndexAxes(), array, append(opts, extra...)...)
}
