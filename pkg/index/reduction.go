package index

import "math"

// Reduction 把一个轴上选中的多个值归约为一个值
type Reduction interface {
	Reduce(values []float64) float64
}

// ReductionFunc 让普通函数实现 Reduction
type ReductionFunc func(values []float64) float64

func (f ReductionFunc) Reduce(values []float64) float64 { return f(values) }

// ReductionFactory 根据本次选中的标签（按轴的优先顺序）决定使用哪种归约
type ReductionFactory func(keys []string) Reduction

var (
	// Sum 求和，默认的归约方式
	Sum Reduction = ReductionFunc(sum)
	// Average 求平均
	Average Reduction = ReductionFunc(average)
	// Max 取最大值
	Max Reduction = ReductionFunc(maximum)
)

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return sum(values) / float64(len(values))
}

func maximum(values []float64) float64 {
	result := math.Inf(-1)
	for _, v := range values {
		result = math.Max(result, v)
	}
	return result
}

// ReductionByName 根据名字查找内置归约，用于配置和命令行
func ReductionByName(name string) (Reduction, bool) {
	switch name {
	case "", "sum":
		return Sum, true
	case "average", "mean":
		return Average, true
	case "max":
		return Max, true
	}
	return nil, false
}
