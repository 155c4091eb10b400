package ndarray

import (
	"fmt"
	"sort"
)

// Take 在 indices 给出的轴上只保留对应的索引，并用 reduce 把这些轴归约掉
// 没有出现在 indices 中的轴原样保留，结果的维数 = Ndim - len(indices)
// 例如: shape (2, 3, 4)，indices {1: [0, 2]} -> shape (2, 4)
func (a *Array) Take(indices map[int][]int, reduce func([]float64) float64) (*Array, error) {
	reduced := make([]int, 0, len(indices))
	for axis, idx := range indices {
		if axis < 0 || axis >= len(a.shape) {
			return nil, fmt.Errorf("axis %d out of range for shape %v", axis, a.shape)
		}
		for _, i := range idx {
			if i < 0 || i >= a.shape[axis] {
				return nil, fmt.Errorf("index %d out of range for axis %d of size %d", i, axis, a.shape[axis])
			}
		}
		reduced = append(reduced, axis)
	}
	sort.Ints(reduced)

	var kept, outShape []int
	for axis, n := range a.shape {
		if _, ok := indices[axis]; !ok {
			kept = append(kept, axis)
			outShape = append(outShape, n)
		}
	}

	strides := a.strides()
	out := Zeros(outShape...)
	counters := make([]int, len(reduced))
	buf := make([]float64, 0, 16)

	for o := range out.data {
		// 计算保留轴对应的起始偏移
		base, rest := 0, o
		for k := len(kept) - 1; k >= 0; k-- {
			axis := kept[k]
			base += (rest % a.shape[axis]) * strides[axis]
			rest /= a.shape[axis]
		}

		buf = buf[:0]
		for i := range counters {
			counters[i] = 0
		}
		for a.gather(indices, reduced, counters) {
			offset := base
			for r, axis := range reduced {
				offset += indices[axis][counters[r]] * strides[axis]
			}
			buf = append(buf, a.data[offset])
			if !advance(indices, reduced, counters) {
				break
			}
		}
		out.data[o] = reduce(buf)
	}

	return out, nil
}

// gather 判断当前计数器是否指向合法组合（任一轴没有索引时没有组合）
func (a *Array) gather(indices map[int][]int, reduced []int, counters []int) bool {
	for r, axis := range reduced {
		if counters[r] >= len(indices[axis]) {
			return false
		}
	}
	return true
}

// advance 以最后一个轴变化最快的顺序推进计数器，返回是否还有下一个组合
func advance(indices map[int][]int, reduced []int, counters []int) bool {
	for r := len(reduced) - 1; r >= 0; r-- {
		counters[r]++
		if counters[r] < len(indices[reduced[r]]) {
			return true
		}
		counters[r] = 0
	}
	return false
}
