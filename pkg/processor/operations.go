package processor

import (
	"context"
	"fmt"
	"io"

	"github.com/glesirok/selexpr/pkg/dataset"
	"github.com/glesirok/selexpr/pkg/dispatch"
	"github.com/glesirok/selexpr/pkg/index"
	"github.com/glesirok/selexpr/pkg/selection"
)

// View 是打开后的一个数据源
type View struct {
	Quantity string
	Source   *dataset.Source
	Selector *index.Selector
}

// fileOpener 每次打开时重新读取数据文件
type fileOpener struct {
	path string
	opts []index.Option
}

func (o *fileOpener) Open(_ context.Context, quantity, source string) (*View, io.Closer, error) {
	ds, err := dataset.LoadFromFile(o.path)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	if ds.Quantity != quantity {
		return nil, nil, fmt.Errorf("dataset %s contains %s, expected %s", o.path, ds.Quantity, quantity)
	}
	return openSource(ds.Quantity, ds, source, o.opts)
}

func openSource(quantity string, ds *dataset.Dataset, name string, opts []index.Option) (*View, io.Closer, error) {
	source, err := ds.Source(name)
	if err != nil {
		return nil, nil, err
	}
	selector, err := source.Selector(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("source %s: %w", name, err)
	}
	return &View{Quantity: quantity, Source: source, Selector: selector}, nil, nil
}

// ReadOperation 返回每条选择路径的显示名称到数据的映射
// 没有可识别元素的路径使用量的名字，显示名称重复时使用路径的文本
var ReadOperation = dispatch.Operation[*View]{
	Name:      "read",
	Signature: dispatch.NewSignature(dispatch.Optional(dispatch.SelectionParam, "")),
	Func: func(_ context.Context, view *View, args *dispatch.Bound) (any, error) {
		paths, err := selectionPaths(args.Text(dispatch.SelectionParam))
		if err != nil {
			return nil, err
		}

		result := make(map[string]any, len(paths))
		for _, path := range paths {
			value, err := view.Selector.Get(path)
			if err != nil {
				return nil, err
			}
			// 显示名称相同的路径改用选择本身作为键
			key := view.label(path)
			if _, ok := result[key]; ok {
				key = selection.ToText(path)
			}
			result[key] = value.Nested()
		}
		return result, nil
	},
}

// LabelsOperation 返回每条选择路径的显示名称
var LabelsOperation = dispatch.Operation[*View]{
	Name:      "labels",
	Signature: dispatch.NewSignature(dispatch.Optional(dispatch.SelectionParam, "")),
	Func: func(_ context.Context, view *View, args *dispatch.Bound) (any, error) {
		paths, err := selectionPaths(args.Text(dispatch.SelectionParam))
		if err != nil {
			return nil, err
		}

		labels := make([]string, len(paths))
		for i, path := range paths {
			labels[i] = view.label(path)
		}
		return labels, nil
	},
}

func (v *View) label(path selection.Path) string {
	if label := v.Selector.Label(path); label != "" {
		return label
	}
	return v.Quantity
}

func selectionPaths(text string) ([]selection.Path, error) {
	tree, err := selection.Parse(text)
	if err != nil {
		return nil, err
	}
	return tree.Selections()
}
