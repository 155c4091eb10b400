package index

import (
	"strings"

	"github.com/glesirok/selexpr/pkg/selection"
)

// Label 生成路径的显示名称
// 只保留能被识别的元素，用 Axis 中的写法显示；限定关系显示为 outer(inner)，
// 组合显示为 "A + B"。没有可识别的元素时返回空字符串，由调用方使用默认名称
func (s *Selector) Label(path selection.Path) string {
	var labels []string
	for _, part := range path {
		var text string
		if operation, ok := part.(*selection.Operation); ok {
			text = s.operationLabel(operation)
		} else {
			text, _ = s.partLabel(part)
		}
		if text != "" {
			labels = append(labels, text)
		}
	}
	return strings.Join(labels, "(") + strings.Repeat(")", max(len(labels)-1, 0))
}

func (s *Selector) operationLabel(operation *selection.Operation) string {
	var b strings.Builder
	for _, term := range operation.Terms {
		text := s.Label(term.Path)
		if text == "" {
			continue
		}
		switch {
		case b.Len() == 0 && term.Operator == selection.OpSub:
			b.WriteString("-")
		case b.Len() > 0:
			b.WriteString(" ")
			b.WriteByte(byte(term.Operator))
			b.WriteString(" ")
		}
		b.WriteString(text)
	}
	return b.String()
}

func (s *Selector) partLabel(part selection.Part) (string, bool) {
	switch p := part.(type) {
	case selection.Token:
		return s.tokenLabel(string(p))

	case *selection.Group:
		switch p.Separator {
		case selection.RangeSeparator:
			left, ok := s.tokenLabel(p.Left())
			if !ok {
				return "", false
			}
			right, ok := s.tokenLabel(p.Right())
			if !ok {
				return "", false
			}
			return left + string(selection.RangeSeparator) + right, true

		case selection.PairSeparator:
			if e, ok := s.lookupPair(p); ok {
				return e.label, true
			}

		case selection.AssignSeparator:
			if e, ok := s.lookup(p.Left()); ok && e.spec.IsValues() {
				return e.label + string(selection.AssignSeparator) + p.Right(), true
			}
		}
	}
	return "", false
}

func (s *Selector) tokenLabel(label string) (string, bool) {
	if isPattern(label) {
		_, err := s.compilePattern(label)
		return label, err == nil
	}
	if e, ok := s.lookup(label); ok {
		return e.label, true
	}
	if s.numeric && isDecimal(label) {
		return label, true
	}
	return "", false
}
