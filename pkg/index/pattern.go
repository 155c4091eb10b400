package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/shopspring/decimal"
)

// isPattern 判断标签是否为 @pattern@ 形式的通配模式
func isPattern(label string) bool {
	return len(label) > 2 && strings.HasPrefix(label, "@") && strings.HasSuffix(label, "@")
}

func (s *Selector) compilePattern(label string) (*regexp2.Regexp, error) {
	pattern := strings.Trim(label, "@")
	if pattern == "" {
		return nil, fmt.Errorf("%w: regex pattern cannot be empty", ErrIncorrectUsage)
	}

	var options regexp2.RegexOptions = regexp2.IgnoreCase
	if s.caseSensitive {
		options = regexp2.None
	}
	re, err := regexp2.Compile(pattern, options)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex pattern %q: %v", ErrIncorrectUsage, pattern, err)
	}
	return re, nil
}

// readPattern 在优先顺序中第一个有匹配标签的 Axis 上，合并所有匹配标签的索引
func (s *Selector) readPattern(label string) (resolved, error) {
	re, err := s.compilePattern(label)
	if err != nil {
		return resolved{}, err
	}

	for _, axis := range s.axes {
		size := s.data.Shape()[axis.Dim]
		seen := make(map[int]bool)
		for _, name := range sortedLabels(axis.Labels) {
			spec := axis.Labels[name]
			if name == DefaultLabel || spec.IsValues() {
				continue
			}
			matched, err := re.MatchString(name)
			if err != nil {
				return resolved{}, fmt.Errorf("%w: match %q: %v", ErrIncorrectUsage, label, err)
			}
			if !matched {
				continue
			}
			idx, err := spec.Resolve(size)
			if err != nil {
				return resolved{}, err
			}
			for _, i := range idx {
				seen[i] = true
			}
		}

		if len(seen) > 0 {
			indices := make([]int, 0, len(seen))
			for i := range seen {
				indices = append(indices, i)
			}
			sort.Ints(indices)
			return resolved{dim: axis.Dim, indices: indices, key: label}, nil
		}
	}

	return resolved{}, s.unknown(label)
}

// matchValue 在取值表中查找 value：先按字符串比较，再按数值比较（"1.0" 与 "1" 相等）
func (s *Selector) matchValue(values map[string]Spec, value string) (Spec, bool) {
	for _, key := range sortedLabels(values) {
		if s.key(key) == s.key(value) {
			return values[key], true
		}
	}

	number, err := decimal.NewFromString(value)
	if err != nil {
		return Spec{}, false
	}
	for _, key := range sortedLabels(values) {
		candidate, err := decimal.NewFromString(key)
		if err == nil && candidate.Equal(number) {
			return values[key], true
		}
	}
	return Spec{}, false
}
