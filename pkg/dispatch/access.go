package dispatch

import (
	"context"
	"fmt"
	"io"
)

// Context 是操作读取数据的入口
// SetSource 选择下一次打开使用的数据源，Enter 和 Exit 必须成对调用
type Context[D any] interface {
	Quantity() string
	SetSource(source string) error
	Enter(ctx context.Context) (D, error)
	Exit() error
}

// Opener 打开某个量在指定数据源下的数据
type Opener[D any] interface {
	Open(ctx context.Context, quantity, source string) (D, io.Closer, error)
}

// OpenerFunc 让普通函数实现 Opener
type OpenerFunc[D any] func(ctx context.Context, quantity, source string) (D, io.Closer, error)

func (f OpenerFunc[D]) Open(ctx context.Context, quantity, source string) (D, io.Closer, error) {
	return f(ctx, quantity, source)
}

// Access 按引用计数管理打开的数据
// 第一次 Enter 时真正打开数据，嵌套的 Enter 只增加计数并返回同一份数据；
// 计数回到零时关闭数据并把数据源恢复为 DefaultSource。
// 不能并发使用
type Access[D any] struct {
	quantity string
	opener   Opener[D]
	source   string
	count    int
	data     D
	closer   io.Closer
}

// NewAccess 创建 Access
func NewAccess[D any](quantity string, opener Opener[D]) *Access[D] {
	return &Access[D]{quantity: quantity, opener: opener, source: DefaultSource}
}

func (a *Access[D]) Quantity() string { return a.quantity }

// Source 返回当前的数据源
func (a *Access[D]) Source() string { return a.source }

// Depth 返回当前嵌套的层数
func (a *Access[D]) Depth() int { return a.count }

// SetSource 只在数据没有打开时生效，嵌套调用沿用外层的数据源
func (a *Access[D]) SetSource(source string) error {
	if a.count == 0 {
		a.source = source
	}
	return nil
}

func (a *Access[D]) Enter(ctx context.Context) (D, error) {
	if a.count == 0 {
		data, closer, err := a.opener.Open(ctx, a.quantity, a.source)
		if err != nil {
			source := a.source
			a.source = DefaultSource
			var zero D
			return zero, fmt.Errorf("open %s (source %s): %w", a.quantity, source, err)
		}
		a.data, a.closer = data, closer
	}
	a.count++
	return a.data, nil
}

func (a *Access[D]) Exit() error {
	if a.count == 0 {
		return fmt.Errorf("exit %s without a matching enter", a.quantity)
	}
	a.count--
	if a.count > 0 {
		return nil
	}

	closer := a.closer
	var zero D
	a.data, a.closer, a.source = zero, nil, DefaultSource
	if closer == nil {
		return nil
	}
	if err := closer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", a.quantity, err)
	}
	return nil
}

// Static 包装已经在内存中的数据，不允许选择数据源
type Static[D any] struct {
	quantity string
	data     D
}

// NewStatic 创建 Static
func NewStatic[D any](quantity string, data D) *Static[D] {
	return &Static[D]{quantity: quantity, data: data}
}

func (s *Static[D]) Quantity() string { return s.quantity }

func (s *Static[D]) SetSource(source string) error {
	if source == DefaultSource {
		return nil
	}
	return fmt.Errorf("%w: creating %s from data does not allow to select the source %q",
		ErrIncorrectUsage, s.quantity, source)
}

func (s *Static[D]) Enter(context.Context) (D, error) { return s.data, nil }

func (s *Static[D]) Exit() error { return nil }
