package dispatch

import (
	"fmt"
	"sort"
)

// SelectionParam 是表示选择字符串的参数名
const SelectionParam = "selection"

// Param 描述操作的一个参数
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// Required 没有默认值的参数
func Required(name string) Param {
	return Param{Name: name}
}

// Optional 带默认值的参数
func Optional(name string, value any) Param {
	return Param{Name: name, Default: value, HasDefault: true}
}

// Signature 是操作声明的参数列表，顺序即位置参数的顺序
type Signature struct {
	Params []Param
}

// NewSignature 创建参数列表
func NewSignature(params ...Param) Signature {
	return Signature{Params: params}
}

// Has 判断是否声明了名为 name 的参数
func (s Signature) Has(name string) bool {
	_, ok := s.param(name)
	return ok
}

func (s Signature) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Arguments 是一次调用传入的位置参数和关键字参数
type Arguments struct {
	Positional []any
	Keyword    map[string]any
}

// Args 只有位置参数的调用
func Args(positional ...any) Arguments {
	return Arguments{Positional: positional}
}

// With 返回增加了一个关键字参数的副本
func (a Arguments) With(name string, value any) Arguments {
	keyword := make(map[string]any, len(a.Keyword)+1)
	for k, v := range a.Keyword {
		keyword[k] = v
	}
	keyword[name] = value
	return Arguments{Positional: a.Positional, Keyword: keyword}
}

func (a Arguments) without(name string) Arguments {
	keyword := make(map[string]any, len(a.Keyword))
	for k, v := range a.Keyword {
		if k != name {
			keyword[k] = v
		}
	}
	return Arguments{Positional: a.Positional, Keyword: keyword}
}

// Bound 是绑定到参数列表上的参数值，未传入的参数使用默认值
type Bound struct {
	signature Signature
	values    map[string]any
}

// Bind 按位置和名字把参数绑定到参数列表上
func (s Signature) Bind(args Arguments) (*Bound, error) {
	if len(args.Positional) > len(s.Params) {
		return nil, fmt.Errorf("%w: takes %d positional arguments but %d were given",
			ErrSignature, len(s.Params), len(args.Positional))
	}

	values := make(map[string]any, len(s.Params))
	for i, value := range args.Positional {
		values[s.Params[i].Name] = value
	}

	names := make([]string, 0, len(args.Keyword))
	for name := range args.Keyword {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !s.Has(name) {
			return nil, fmt.Errorf("%w: got an unexpected keyword argument %q", ErrSignature, name)
		}
		if _, ok := values[name]; ok {
			return nil, fmt.Errorf("%w: got multiple values for argument %q", ErrSignature, name)
		}
		values[name] = args.Keyword[name]
	}

	for _, p := range s.Params {
		if _, ok := values[p.Name]; ok {
			continue
		}
		if !p.HasDefault {
			return nil, fmt.Errorf("%w: missing a required argument %q", ErrSignature, p.Name)
		}
		values[p.Name] = p.Default
	}

	return &Bound{signature: s, values: values}, nil
}

// Get 返回参数值
func (b *Bound) Get(name string) any {
	return b.values[name]
}

// Text 返回字符串参数，nil 视为空字符串
func (b *Bound) Text(name string) string {
	text, _ := toText(b.values[name])
	return text
}

func (b *Bound) clone() *Bound {
	values := make(map[string]any, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return &Bound{signature: b.signature, values: values}
}

func toText(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: selection must be a string, got %T", ErrSignature, value)
	}
}
