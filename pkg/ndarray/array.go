// Package ndarray 提供按行优先存储的 float64 多维数组，
// 只实现选择引擎需要的操作：按轴取索引、归约、逐元素加减。
package ndarray

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch 表示两个数组形状不一致
var ErrShapeMismatch = errors.New("shape mismatch")

// Array 是行优先存储的多维数组，零维数组表示标量
type Array struct {
	shape []int
	data  []float64
}

// New 用给定形状和数据创建数组，数据长度必须与形状匹配
func New(shape []int, data []float64) (*Array, error) {
	size := 1
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
		size *= n
	}
	if size != len(data) {
		return nil, fmt.Errorf("shape %v needs %d values, got %d", shape, size, len(data))
	}
	return &Array{shape: append([]int(nil), shape...), data: append([]float64(nil), data...)}, nil
}

// Scalar 创建零维数组
func Scalar(value float64) *Array {
	return &Array{data: []float64{value}}
}

// Zeros 创建全零数组
func Zeros(shape ...int) *Array {
	size := 1
	for _, n := range shape {
		size *= n
	}
	return &Array{shape: append([]int(nil), shape...), data: make([]float64, size)}
}

// Arange 创建形状为 shape、值依次为 0, 1, 2, ... 的数组
func Arange(shape ...int) *Array {
	a := Zeros(shape...)
	for i := range a.data {
		a.data[i] = float64(i)
	}
	return a
}

// Shape 返回形状的副本
func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

// Ndim 返回维数
func (a *Array) Ndim() int { return len(a.shape) }

// Size 返回元素个数
func (a *Array) Size() int { return len(a.data) }

// Values 返回按行优先排列的数据副本
func (a *Array) Values() []float64 { return append([]float64(nil), a.data...) }

// Item 返回零维或只有一个元素的数组的值
func (a *Array) Item() (float64, error) {
	if len(a.data) != 1 {
		return 0, fmt.Errorf("array of shape %v is not a single value", a.shape)
	}
	return a.data[0], nil
}

// Nested 转换为便于序列化的值：零维数组为 float64，一维为 []float64，
// 更高维为逐层嵌套的 []any
func (a *Array) Nested() any {
	if len(a.shape) == 0 {
		return a.data[0]
	}
	return nest(a.shape, a.data)
}

func nest(shape []int, data []float64) any {
	if len(shape) == 1 {
		return append([]float64(nil), data...)
	}
	out := make([]any, shape[0])
	if shape[0] == 0 {
		return out
	}
	step := len(data) / shape[0]
	for i := range out {
		out[i] = nest(shape[1:], data[i*step:(i+1)*step])
	}
	return out
}

// At 返回给定位置的元素
func (a *Array) At(idx ...int) float64 {
	offset := 0
	for i, stride := range a.strides() {
		offset += idx[i] * stride
	}
	return a.data[offset]
}

func (a *Array) strides() []int {
	strides := make([]int, len(a.shape))
	step := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= a.shape[i]
	}
	return strides
}

// Map 对每个元素应用 f，返回新数组
func (a *Array) Map(f func(float64) float64) *Array {
	out := &Array{shape: a.Shape(), data: make([]float64, len(a.data))}
	for i, v := range a.data {
		out.data[i] = f(v)
	}
	return out
}

// Add 逐元素相加
func (a *Array) Add(b *Array) (*Array, error) {
	return a.combine(b, func(x, y float64) float64 { return x + y })
}

// Sub 逐元素相减
func (a *Array) Sub(b *Array) (*Array, error) {
	return a.combine(b, func(x, y float64) float64 { return x - y })
}

func (a *Array) combine(b *Array, f func(x, y float64) float64) (*Array, error) {
	if !SameShape(a, b) {
		return nil, fmt.Errorf("%w: %v and %v", ErrShapeMismatch, a.shape, b.shape)
	}
	out := &Array{shape: a.Shape(), data: make([]float64, len(a.data))}
	for i := range a.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out, nil
}

// SameShape 判断两个数组形状是否相同
func SameShape(a, b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(shape=%v, data=%v)", a.shape, a.data)
}
