package decoder

import "fmt"

// MalformedInstructionError 表示指令数据在按 schema 解码时出现截断或非法内容。
// 该错误只影响当前指令：调用方记录日志后跳过，不产出部分记录，流继续。
type MalformedInstructionError struct {
	Schema string // 命中的 schema 名称
	Field  string // 出错的字段名
	Reason string // 具体原因（长度越界 / 非法 UTF-8 等）
}

func (e *MalformedInstructionError) Error() string {
	return fmt.Sprintf("malformed %s instruction: field %q: %s", e.Schema, e.Field, e.Reason)
}
