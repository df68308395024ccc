package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Prefix 聊天行前缀
const Prefix = "MSG "

var (
	// ErrNotChat 不是聊天行
	ErrNotChat = errors.New("not a chat line")

	// ErrMalformedLine 聊天行缺少 sender:body 分隔符
	ErrMalformedLine = errors.New("malformed chat line")
)

// Message 一条聊天消息
type Message struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// String 显示格式
func (m Message) String() string {
	return m.Sender + " : " + m.Body
}

// Display 聊天显示
type Display interface {
	ShowMessage(msg Message) error
}

// DisplayFunc 函数形式的 Display
type DisplayFunc func(msg Message) error

// ShowMessage 实现 Display
func (f DisplayFunc) ShowMessage(msg Message) error {
	return f(msg)
}

// ParseLine 解析 "MSG <sender>:<body>"，按第一个 ':' 切分，body 可以包含 ':'
func ParseLine(line string) (Message, error) {
	rest, ok := strings.CutPrefix(line, Prefix)
	if !ok {
		return Message{}, ErrNotChat
	}
	sender, body, ok := strings.Cut(rest, ":")
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	return Message{Sender: sender, Body: body}, nil
}

// FormatLine 组装发往聊天服务的行，发送者由服务端补上
func FormatLine(body string) string {
	return Prefix + body
}

// Route 解析聊天行并交给 display
func Route(line string, display Display) error {
	msg, err := ParseLine(line)
	if err != nil {
		return err
	}
	return display.ShowMessage(msg)
}
