package selection

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrSyntax 表示选择字符串无法解析
	ErrSyntax = errors.New("selection syntax error")
	// ErrIncorrectUsage 表示语法正确但用法不被支持
	// index 和 dispatch 中的 ErrIncorrectUsage 都是它
	ErrIncorrectUsage = errors.New("incorrect usage")
)

// SyntaxError 记录出错位置，Error() 会在原始字符串下方用 ^ 标出位置
type SyntaxError struct {
	Text    string
	Offset  int // 字节偏移，-1 表示没有位置信息
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Offset < 0 {
		return e.Message
	}
	column := utf8.RuneCountInString(e.Text[:e.Offset])
	return fmt.Sprintf("error when parsing the selection string\n  %s\n  %s^\n%s",
		e.Text, strings.Repeat(" ", column), e.Message)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func syntaxErrorf(format string, args ...any) error {
	return &SyntaxError{Offset: -1, Message: fmt.Sprintf(format, args...)}
}
