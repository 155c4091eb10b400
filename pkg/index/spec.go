package index

import (
	"fmt"
	"sort"
	"strings"
)

type specKind int

const (
	specIndex  specKind = iota // 单个索引
	specSlice                  // start:stop:step 切片
	specList                   // 索引列表
	specValues                 // key=value 的取值表
)

// Spec 描述一个标签对应的索引，可以是单个索引、切片、索引列表，
// 或者供 "key=value" 查找的取值表
type Spec struct {
	kind     specKind
	index    int
	start    int
	stop     int
	step     int
	hasStart bool
	hasStop  bool
	list     []int
	values   map[string]Spec
}

// Index 单个索引，负数从末尾开始计数
func Index(i int) Spec {
	return Spec{kind: specIndex, index: i}
}

// Span 左闭右开区间 [start, stop)
func Span(start, stop int) Spec {
	return Spec{kind: specSlice, start: start, stop: stop, step: 1, hasStart: true, hasStop: true}
}

// Stride 带步长的区间
func Stride(start, stop, step int) Spec {
	return Spec{kind: specSlice, start: start, stop: stop, step: step, hasStart: true, hasStop: true}
}

// From 从 start 到轴末尾
func From(start int) Spec {
	return Spec{kind: specSlice, start: start, step: 1, hasStart: true}
}

// Until 从轴开头到 stop
func Until(stop int) Spec {
	return Spec{kind: specSlice, stop: stop, step: 1, hasStop: true}
}

// All 整个轴
func All() Spec {
	return Spec{kind: specSlice, step: 1}
}

// Every 整个轴按 step 取值
func Every(step int) Spec {
	return Spec{kind: specSlice, step: step}
}

// Slice 通用切片，start 或 stop 为 nil 时取到轴的端点
func Slice(start, stop *int, step int) Spec {
	s := Spec{kind: specSlice, step: step}
	if start != nil {
		s.start, s.hasStart = *start, true
	}
	if stop != nil {
		s.stop, s.hasStop = *stop, true
	}
	return s
}

// List 索引列表
func List(indices ...int) Spec {
	return Spec{kind: specList, list: append([]int(nil), indices...)}
}

// Values 取值表，只能通过 "key=value" 选择
func Values(values map[string]Spec) Spec {
	return Spec{kind: specValues, values: values}
}

// IsValues 判断是否为取值表
func (s Spec) IsValues() bool {
	return s.kind == specValues
}

// Resolve 把 Spec 展开为长度为 size 的轴上的具体索引
func (s Spec) Resolve(size int) ([]int, error) {
	switch s.kind {
	case specIndex:
		i, err := normalize(s.index, size)
		if err != nil {
			return nil, err
		}
		return []int{i}, nil

	case specSlice:
		return s.resolveSlice(size)

	case specList:
		result := make([]int, len(s.list))
		for k, i := range s.list {
			n, err := normalize(i, size)
			if err != nil {
				return nil, err
			}
			result[k] = n
		}
		return result, nil

	case specValues:
		return nil, fmt.Errorf("a table of values must be selected with key=value")

	default:
		return nil, fmt.Errorf("unknown index specification")
	}
}

func normalize(i, size int) (int, error) {
	if i < 0 {
		i += size
	}
	if i < 0 || i >= size {
		return 0, fmt.Errorf("index %d out of range for axis of size %d", i, size)
	}
	return i, nil
}

// resolveSlice 与 Python 的 slice.indices 语义一致
func (s Spec) resolveSlice(size int) ([]int, error) {
	step := s.step
	if step == 0 {
		return nil, fmt.Errorf("slice step cannot be zero")
	}

	var lower, upper int
	if step > 0 {
		lower, upper = 0, size
	} else {
		lower, upper = -1, size-1
	}

	clamp := func(v int, given bool, fallback int) int {
		if !given {
			return fallback
		}
		if v < 0 {
			v += size
			if v < lower {
				v = lower
			}
		} else if v > upper {
			v = upper
		}
		return v
	}

	var start, stop int
	if step > 0 {
		start = clamp(s.start, s.hasStart, lower)
		stop = clamp(s.stop, s.hasStop, upper)
	} else {
		start = clamp(s.start, s.hasStart, upper)
		stop = clamp(s.stop, s.hasStop, lower)
	}

	var result []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		result = append(result, i)
	}
	return result, nil
}

func (s Spec) String() string {
	switch s.kind {
	case specIndex:
		return fmt.Sprint(s.index)
	case specSlice:
		var b strings.Builder
		if s.hasStart {
			fmt.Fprint(&b, s.start)
		}
		b.WriteString(":")
		if s.hasStop {
			fmt.Fprint(&b, s.stop)
		}
		if s.step != 1 {
			fmt.Fprintf(&b, ":%d", s.step)
		}
		return b.String()
	case specList:
		return fmt.Sprint(s.list)
	case specValues:
		keys := make([]string, 0, len(s.values))
		for key := range s.values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return "{" + strings.Join(keys, ", ") + "}"
	default:
		return "?"
	}
}
