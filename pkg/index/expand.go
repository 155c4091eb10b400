package index

import (
	"github.com/glesirok/selexpr/pkg/selection"
)

// signedPath 是展开组合后不含运算的一条路径及其符号
type signedPath struct {
	sign  int
	parts selection.Path
}

// expand 把路径中的组合按分配律展开
// 例如: A - B(x + y) -> +A, -B(x), -B(y)；-A(x - y) -> -A(x), +A(y)
func expand(path selection.Path) []signedPath {
	result := []signedPath{{sign: 1}}

	for _, part := range path {
		operation, ok := part.(*selection.Operation)
		if !ok {
			for i := range result {
				result[i].parts = append(append(selection.Path(nil), result[i].parts...), part)
			}
			continue
		}

		var next []signedPath
		for _, prefix := range result {
			for _, term := range operation.Terms {
				sub := expand(term.Path)
				sign := prefix.sign
				if term.Operator == selection.OpSub {
					sign = -sign
				}
				for _, s := range sub {
					parts := append(append(selection.Path(nil), prefix.parts...), s.parts...)
					next = append(next, signedPath{sign: sign * s.sign, parts: parts})
				}
			}
		}
		result = next
	}

	return result
}
