// Package index 把选择路径解析为多维数组上的索引并取出对应的数据
//
// 每个 Axis 把标签映射到数组某一维上的索引。选择路径中的每个元素按 Axis 的
// 优先顺序查找属于哪一维；同一维被多个元素选择时以后出现的为准。所有在
// Axis 中出现的维最终都会被归约（默认求和），其他维原样保留。
//
//	axes := []index.Axis{{Dim: 0, Name: "orbital", Labels: map[string]index.Spec{
//		"s": index.Index(0), "p": index.Span(1, 4), "d": index.Span(4, 9),
//	}}}
//	selector, _ := index.New(axes, ndarray.Arange(9))
//	value, _ := selector.Get(selection.Path{selection.Token("p")}) // 1+2+3
package index

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/glesirok/selexpr/pkg/ndarray"
	"github.com/glesirok/selexpr/pkg/selection"
	"golang.org/x/text/cases"
)

var (
	// ErrUnknownLabel 表示标签不属于任何 Axis
	ErrUnknownLabel = errors.New("unknown label")
	// ErrIncorrectUsage 表示标签存在但用法不对，如区间跨越不同的维
	ErrIncorrectUsage = selection.ErrIncorrectUsage
	// ErrInvalidAxis 表示 Axis 的定义与数组不匹配
	ErrInvalidAxis = errors.New("invalid axis map")
	// ErrShapeMismatch 表示组合中各项的结果形状不同
	ErrShapeMismatch = ndarray.ErrShapeMismatch
)

// DefaultLabel 对应的 Spec 在路径没有选择该维时使用，缺省为整个轴
const DefaultLabel = ""

// Axis 把标签映射到数组的第 Dim 维
type Axis struct {
	Dim    int
	Name   string
	Labels map[string]Spec
}

// Option 配置 Selector
type Option func(*Selector)

// WithReduction 设置归约方式，默认 Sum
func WithReduction(reduction Reduction) Option {
	return func(s *Selector) {
		s.reduction = func([]string) Reduction { return reduction }
	}
}

// WithDynamicReduction 根据选中的标签决定归约方式，
// keys 按 Axis 的优先顺序排列，没有被选择的维为空字符串
func WithDynamicReduction(factory ReductionFactory) Option {
	return func(s *Selector) {
		s.reduction = factory
	}
}

// WithNumericLabels 允许不在任何 Axis 中的非负整数标签直接作为第 dim 维的索引
func WithNumericLabels(dim int) Option {
	return func(s *Selector) {
		s.numeric = true
		s.numericDim = dim
	}
}

// WithCaseSensitive 查找标签时区分大小写
func WithCaseSensitive() Option {
	return func(s *Selector) {
		s.caseSensitive = true
	}
}

type entry struct {
	axis  int // 在 axes 中的位置
	label string
	spec  Spec
}

// Selector 根据选择路径从数组中取出数据
type Selector struct {
	axes          []Axis
	data          *ndarray.Array
	exact         map[string]entry
	entries       map[string]entry
	reduction     ReductionFactory
	numeric       bool
	numericDim    int
	caseSensitive bool
	caser         cases.Caser
}

// New 创建 Selector，axes 的顺序就是查找标签时的优先顺序
func New(axes []Axis, data *ndarray.Array, opts ...Option) (*Selector, error) {
	s := &Selector{
		axes:      axes,
		data:      data,
		exact:     make(map[string]entry),
		entries:   make(map[string]entry),
		reduction: func([]string) Reduction { return Sum },
		caser:     cases.Fold(),
	}
	for _, opt := range opts {
		opt(s)
	}

	shape := data.Shape()
	if s.numeric && (s.numericDim < 0 || s.numericDim >= len(shape)) {
		return nil, fmt.Errorf("%w: numeric labels refer to dimension %d of an array with %d dimensions",
			ErrInvalidAxis, s.numericDim, len(shape))
	}

	seen := make(map[int]bool)
	for pos, axis := range axes {
		if axis.Dim < 0 || axis.Dim >= len(shape) {
			return nil, fmt.Errorf("%w: dimension %d out of range for shape %v", ErrInvalidAxis, axis.Dim, shape)
		}
		if seen[axis.Dim] {
			return nil, fmt.Errorf("%w: dimension %d is mapped twice", ErrInvalidAxis, axis.Dim)
		}
		seen[axis.Dim] = true

		for _, label := range sortedLabels(axis.Labels) {
			spec := axis.Labels[label]
			if err := validate(spec, shape[axis.Dim]); err != nil {
				return nil, fmt.Errorf("%w: label %q: %v", ErrInvalidAxis, label, err)
			}
			if label == DefaultLabel {
				continue
			}
			// 优先顺序靠前的 Axis 胜出
			e := entry{axis: pos, label: label, spec: spec}
			if _, ok := s.exact[label]; !ok {
				s.exact[label] = e
			}
			if _, ok := s.entries[s.key(label)]; !ok {
				s.entries[s.key(label)] = e
			}
		}
	}

	return s, nil
}

func validate(spec Spec, size int) error {
	if !spec.IsValues() {
		_, err := spec.Resolve(size)
		return err
	}
	for _, value := range spec.values {
		if value.IsValues() {
			return fmt.Errorf("tables of values cannot be nested")
		}
		if _, err := value.Resolve(size); err != nil {
			return err
		}
	}
	return nil
}

func sortedLabels(labels map[string]Spec) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Selector) key(label string) string {
	if s.caseSensitive {
		return label
	}
	return s.caser.String(label)
}

// lookup 先按原样查找，找不到时再忽略大小写，
// 这样只有大小写不同的标签（如元素 S 和轨道 s）仍然可以区分
func (s *Selector) lookup(label string) (entry, bool) {
	if e, ok := s.exact[label]; ok {
		return e, true
	}
	e, ok := s.entries[s.key(label)]
	return e, ok
}

// Get 返回路径选中的数据
// 组合中的每一项分别解析，再按运算符从左到右逐元素加减，各项形状必须相同
func (s *Selector) Get(path selection.Path) (*ndarray.Array, error) {
	var result *ndarray.Array
	for _, term := range expand(path) {
		value, err := s.resolve(term.parts)
		if err != nil {
			return nil, err
		}
		if result == nil {
			if term.sign < 0 {
				value = value.Map(func(v float64) float64 { return -v })
			}
			result = value
			continue
		}

		if term.sign < 0 {
			result, err = result.Sub(value)
		} else {
			result, err = result.Add(value)
		}
		if err != nil {
			return nil, fmt.Errorf("combine %s: %w", selection.ToText(path), err)
		}
	}
	return result, nil
}

type resolved struct {
	dim     int
	indices []int
	key     string
}

// resolve 解析不含组合的路径
func (s *Selector) resolve(parts selection.Path) (*ndarray.Array, error) {
	shape := s.data.Shape()
	indices := make(map[int][]int)
	keys := make([]string, len(s.axes))

	for _, part := range parts {
		r, err := s.read(part)
		if err != nil {
			return nil, err
		}
		indices[r.dim] = r.indices
		for pos, axis := range s.axes {
			if axis.Dim == r.dim {
				keys[pos] = r.key
			}
		}
	}

	for _, axis := range s.axes {
		if _, ok := indices[axis.Dim]; ok {
			continue
		}
		spec, ok := axis.Labels[DefaultLabel]
		if !ok {
			spec = All()
		}
		idx, err := spec.Resolve(shape[axis.Dim])
		if err != nil {
			return nil, err
		}
		indices[axis.Dim] = idx
	}

	reduction := s.reduction(keys)
	return s.data.Take(indices, reduction.Reduce)
}

func (s *Selector) read(part selection.Part) (resolved, error) {
	switch p := part.(type) {
	case selection.Token:
		return s.readToken(string(p))
	case *selection.Group:
		switch p.Separator {
		case selection.RangeSeparator:
			return s.readRange(p)
		case selection.PairSeparator:
			return s.readPair(p)
		case selection.AssignSeparator:
			return s.readAssignment(p)
		}
		return resolved{}, fmt.Errorf("%w: unsupported group %s", ErrIncorrectUsage, p)
	case *selection.Operation:
		return resolved{}, fmt.Errorf("%w: operation %s was not expanded", ErrIncorrectUsage, p)
	default:
		return resolved{}, fmt.Errorf("%w: unsupported selection element %v", ErrIncorrectUsage, part)
	}
}

// readToken 依次尝试：通配模式、Axis 中的标签、数字标签
func (s *Selector) readToken(label string) (resolved, error) {
	if isPattern(label) {
		return s.readPattern(label)
	}

	if e, ok := s.lookup(label); ok {
		if e.spec.IsValues() {
			return resolved{}, fmt.Errorf("%w: %q selects a table of values, use %s=<value>",
				ErrIncorrectUsage, label, e.label)
		}
		return s.resolveEntry(e, e.spec, e.label)
	}

	if s.numeric && isDecimal(label) {
		i, err := strconv.Atoi(label)
		if err != nil {
			return resolved{}, fmt.Errorf("%w: %q: %v", ErrUnknownLabel, label, err)
		}
		n, err := normalize(i, s.data.Shape()[s.numericDim])
		if err != nil {
			return resolved{}, fmt.Errorf("%w: %v", ErrIncorrectUsage, err)
		}
		return resolved{dim: s.numericDim, indices: []int{n}, key: label}, nil
	}

	return resolved{}, s.unknown(label)
}

func (s *Selector) resolveEntry(e entry, spec Spec, key string) (resolved, error) {
	dim := s.axes[e.axis].Dim
	idx, err := spec.Resolve(s.data.Shape()[dim])
	if err != nil {
		return resolved{}, fmt.Errorf("%w: %q: %v", ErrIncorrectUsage, key, err)
	}
	return resolved{dim: dim, indices: idx, key: key}, nil
}

// readRange 区间的两端必须在同一维且各自连续，结果包含两端
func (s *Selector) readRange(group *selection.Group) (resolved, error) {
	left, err := s.readToken(group.Left())
	if err != nil {
		return resolved{}, err
	}
	right, err := s.readToken(group.Right())
	if err != nil {
		return resolved{}, err
	}

	if left.dim != right.dim {
		return resolved{}, fmt.Errorf("%w: the range %s could not be read, because the components correspond to different dimensions",
			ErrIncorrectUsage, group)
	}
	if !contiguous(left.indices) || !contiguous(right.indices) {
		return resolved{}, fmt.Errorf("%w: cannot read range %s because the data is not contiguous",
			ErrIncorrectUsage, group)
	}

	first, last := left.indices[0], right.indices[len(right.indices)-1]
	var indices []int
	for i := first; i <= last; i++ {
		indices = append(indices, i)
	}
	return resolved{dim: left.dim, indices: indices, key: left.key + string(selection.RangeSeparator) + right.key}, nil
}

func contiguous(indices []int) bool {
	if len(indices) == 0 {
		return false
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return false
		}
	}
	return true
}

// readPair 配对与顺序无关，A~B 和 B~A 指向同一个标签
func (s *Selector) readPair(group *selection.Group) (resolved, error) {
	if e, ok := s.lookupPair(group); ok {
		return s.resolveEntry(e, e.spec, e.label)
	}
	return resolved{}, s.unknown(group.String())
}

func (s *Selector) lookupPair(group *selection.Group) (entry, bool) {
	if e, ok := s.lookup(group.String()); ok {
		return e, true
	}
	reversed := make([]string, len(group.Parts))
	for i, part := range group.Parts {
		reversed[len(group.Parts)-1-i] = part
	}
	return s.lookup(strings.Join(reversed, string(group.Separator)))
}

// readAssignment 处理 key=value，key 必须对应一个取值表
func (s *Selector) readAssignment(group *selection.Group) (resolved, error) {
	e, ok := s.lookup(group.Left())
	if !ok {
		return resolved{}, s.unknown(group.Left())
	}
	if !e.spec.IsValues() {
		return resolved{}, fmt.Errorf("%w: %q does not accept a value", ErrIncorrectUsage, e.label)
	}

	value := group.Right()
	spec, ok := s.matchValue(e.spec.values, value)
	if !ok {
		return resolved{}, fmt.Errorf("%w: %q is not a valid value for %q, valid values are %s",
			ErrIncorrectUsage, value, e.label, e.spec)
	}
	return s.resolveEntry(e, spec, e.label+string(selection.AssignSeparator)+value)
}

func (s *Selector) unknown(label string) error {
	return fmt.Errorf("%w: could not read %q, please check the spelling and capitalization; valid choices are %s",
		ErrUnknownLabel, label, s.choices())
}

func (s *Selector) choices() string {
	var groups []string
	for _, axis := range s.axes {
		name := axis.Name
		if name == "" {
			name = fmt.Sprintf("axis %d", axis.Dim)
		}
		var labels []string
		for _, label := range sortedLabels(axis.Labels) {
			if label != DefaultLabel {
				labels = append(labels, label)
			}
		}
		groups = append(groups, fmt.Sprintf("%s (%s)", name, strings.Join(labels, ", ")))
	}
	return strings.Join(groups, "; ")
}

func isDecimal(label string) bool {
	if label == "" {
		return false
	}
	for _, ch := range label {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
