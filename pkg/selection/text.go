package selection

import (
	"strings"

	"golang.org/x/text/cases"
)

// ToText 把一条路径还原为可以重新解析的字符串
// 例如: (Sr, p) -> "Sr(p)"
func ToText(path Path) string {
	parts := make([]string, len(path))
	for i, part := range path {
		parts[i] = part.String()
	}
	return strings.Join(parts, "(") + strings.Repeat(")", max(len(parts)-1, 0))
}

// SelectionsToText 把多条路径还原为一个字符串，用逗号分隔
func SelectionsToText(paths []Path) string {
	texts := make([]string, len(paths))
	for i, path := range paths {
		texts[i] = ToText(path)
	}
	return strings.Join(texts, ", ")
}

// Contains 判断路径中是否有元素等于 option，
// 会检查 Group 的成员以及组合中每一项的子路径
func Contains(path Path, option string, ignoreCase bool) bool {
	for _, part := range path {
		if partContains(part, option, ignoreCase) {
			return true
		}
	}
	return false
}

func partContains(part Part, option string, ignoreCase bool) bool {
	switch p := part.(type) {
	case *Group:
		for _, member := range p.Parts {
			if equal(member, option, ignoreCase) {
				return true
			}
		}
		return false
	case *Operation:
		for _, term := range p.Terms {
			if Contains(term.Path, option, ignoreCase) {
				return true
			}
		}
		return false
	default:
		return equal(part.String(), option, ignoreCase)
	}
}

// RemoveIfPossible 从路径的顶层删除一个等于 option 的元素（忽略大小写）
// 如果 option 只出现在 Group 或组合内部，removed 为 false，路径保持不变
func RemoveIfPossible(path Path, option string) (removed bool, remaining Path) {
	remaining = make(Path, 0, len(path))
	for _, part := range path {
		if !removed && isPlain(part) && equal(part.String(), option, true) {
			removed = true
			continue
		}
		remaining = append(remaining, part)
	}
	return removed, remaining
}

func isPlain(part Part) bool {
	_, ok := part.(Token)
	return ok
}

func equal(a, b string, ignoreCase bool) bool {
	if !ignoreCase {
		return a == b
	}
	caser := cases.Fold()
	return caser.String(a) == caser.String(b)
}
