// Package dispatch 把选择字符串按数据源拆分，对每个数据源分别执行操作并合并结果
//
// 选择中出现的数据源名称（大小写不敏感）从选择中去掉，剩下的部分作为操作的
// selection 参数。没有数据源名称的选择使用 DefaultSource。
//
//	d := dispatch.New[*Data](access, []string{"default", "kpoints_opt"})
//	result, err := d.Run(ctx, op, dispatch.Args("kpoints_opt(Sr), Ti"))
//	// result: map[string]any{"kpoints_opt": op("Sr"), "default": op("Ti")}
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glesirok/selexpr/pkg/selection"
)

var (
	// ErrSignature 表示参数无法绑定到操作的参数列表
	ErrSignature = errors.New("signature mismatch")
	// ErrIncorrectUsage 表示选择中有无法解析的部分
	ErrIncorrectUsage = selection.ErrIncorrectUsage
	// ErrNotImplemented 表示数据源出现在加减组合或 Group 中，无法拆分
	ErrNotImplemented = errors.New("not implemented")
)

// DefaultSource 是没有指定数据源时使用的名字，合并结果时也用作键
const DefaultSource = "default"

// Func 是被包装的操作，selection 参数已经替换为属于当前数据源的部分
type Func[D any] func(ctx context.Context, data D, args *Bound) (any, error)

// Operation 是可以被分发的操作
type Operation[D any] struct {
	Name      string
	Signature Signature
	Func      Func[D]
}

// Dispatcher 根据选择中的数据源分发操作
type Dispatcher[D any] struct {
	access  Context[D]
	catalog []string
}

// New 创建 Dispatcher，catalog 是该量可以选择的数据源，按匹配优先顺序排列
func New[D any](access Context[D], catalog []string) *Dispatcher[D] {
	return &Dispatcher[D]{access: access, catalog: append([]string(nil), catalog...)}
}

// Sources 返回可以选择的数据源
func (d *Dispatcher[D]) Sources() []string {
	return append([]string(nil), d.catalog...)
}

// Selections 返回量的名字到可选数据源的映射
func (d *Dispatcher[D]) Selections() map[string][]string {
	return map[string][]string{d.access.Quantity(): d.Sources()}
}

type group struct {
	source    string
	residuals []selection.Path
}

type result struct {
	source string
	value  any
}

// Run 执行操作
// 各数据源依次执行，任何一个失败都会中止整个调用
func (d *Dispatcher[D]) Run(ctx context.Context, op Operation[D], args Arguments) (any, error) {
	text, bound, err := findSelection(op.Signature, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	groups, err := d.group(text)
	if err != nil {
		return nil, err
	}

	results := make([]result, 0, len(groups))
	for _, g := range groups {
		value, err := d.runGroup(ctx, op, bound, g)
		if err != nil {
			return nil, err
		}
		results = append(results, result{source: g.source, value: value})
	}

	return merge(results), nil
}

// findSelection 找到 selection 参数：
//   - 参数列表中有 selection 时按正常规则绑定
//   - 否则使用关键字参数 selection
//   - 否则如果参数无法绑定，把最后一个位置参数当作 selection
func findSelection(signature Signature, args Arguments) (string, *Bound, error) {
	if signature.Has(SelectionParam) {
		bound, err := signature.Bind(args)
		if err != nil {
			return "", nil, err
		}
		text, err := toText(bound.Get(SelectionParam))
		return text, bound, err
	}

	if value, ok := args.Keyword[SelectionParam]; ok {
		args = args.without(SelectionParam)
		text, err := toText(value)
		if err != nil {
			return "", nil, err
		}
		if text != "" {
			bound, err := signature.Bind(args)
			return text, bound, err
		}
	}

	bound, err := signature.Bind(args)
	if err == nil {
		return "", bound, nil
	}

	n := len(args.Positional)
	if n == 0 {
		return "", nil, err
	}
	text, textErr := toText(args.Positional[n-1])
	if textErr != nil {
		return "", nil, err
	}
	rest := Arguments{Positional: args.Positional[:n-1], Keyword: args.Keyword}
	bound, bindErr := signature.Bind(rest)
	if bindErr != nil {
		return "", nil, err
	}
	return text, bound, nil
}

// group 按数据源分组，保持第一次出现的顺序
func (d *Dispatcher[D]) group(text string) ([]*group, error) {
	tree, err := selection.Parse(text)
	if err != nil {
		return nil, err
	}
	paths, err := tree.Selections()
	if err != nil {
		return nil, err
	}

	bySource := make(map[string]*group)
	var groups []*group
	for _, path := range paths {
		source, residual, err := d.match(path)
		if err != nil {
			return nil, err
		}
		g, ok := bySource[source]
		if !ok {
			g = &group{source: source}
			bySource[source] = g
			groups = append(groups, g)
		}
		g.residuals = append(g.residuals, residual)
	}
	return groups, nil
}

// match 找到路径中的第一个数据源并把它从路径中去掉
func (d *Dispatcher[D]) match(path selection.Path) (string, selection.Path, error) {
	for _, option := range d.catalog {
		if !selection.Contains(path, option, true) {
			continue
		}
		removed, remaining := selection.RemoveIfPossible(path, option)
		if !removed {
			return "", nil, fmt.Errorf(
				"%w: identified the source %q in the selection %q, but it could not be extracted from the selection; "+
					"a possible reason is that it is used in an addition or subtraction",
				ErrNotImplemented, option, selection.ToText(path))
		}
		return option, remaining, nil
	}
	return DefaultSource, path, nil
}

func (d *Dispatcher[D]) runGroup(ctx context.Context, op Operation[D], bound *Bound, g *group) (value any, err error) {
	work, err := d.residualArguments(op.Signature, bound, g.residuals)
	if err != nil {
		return nil, err
	}

	if err := d.access.SetSource(g.source); err != nil {
		return nil, err
	}
	data, err := d.access.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if exitErr := d.access.Exit(); exitErr != nil && err == nil {
			err = exitErr
		}
	}()

	value, err = op.Func(ctx, data, work)
	if err != nil {
		return nil, fmt.Errorf("%s %s (source %s): %w", op.Name, d.access.Quantity(), g.source, err)
	}
	return value, nil
}

// residualArguments 用去掉数据源后剩下的选择替换 selection 参数
// 空的选择被忽略；全部为空时使用参数的默认值，没有默认值时使用空字符串
func (d *Dispatcher[D]) residualArguments(signature Signature, bound *Bound, residuals []selection.Path) (*Bound, error) {
	var selected []selection.Path
	for _, residual := range residuals {
		if len(residual) > 0 {
			selected = append(selected, residual)
		}
	}
	empty := len(selected) == 0

	param, ok := signature.param(SelectionParam)
	if !ok {
		if empty {
			return bound, nil
		}
		return nil, fmt.Errorf("%w: found the selection %q but could not parse it; "+
			"please check for possible spelling errors, possible sources for %s are \"%s\"",
			ErrIncorrectUsage, selection.SelectionsToText(selected), d.access.Quantity(),
			strings.Join(d.catalog, `", "`))
	}

	work := bound.clone()
	switch {
	case !empty:
		work.values[SelectionParam] = selection.SelectionsToText(selected)
	case param.HasDefault:
		work.values[SelectionParam] = param.Default
	default:
		work.values[SelectionParam] = ""
	}
	return work, nil
}

// merge 只有一个数据源时直接返回结果，所有结果都为 nil 时返回 nil，
// 否则返回数据源到结果的映射
func merge(results []result) any {
	allNil := true
	for _, r := range results {
		if r.value != nil {
			allNil = false
			break
		}
	}
	if allNil {
		return nil
	}
	if len(results) == 1 {
		return results[0].value
	}

	merged := make(map[string]any, len(results))
	for _, r := range results {
		merged[r.source] = r.value
	}
	return merged
}
