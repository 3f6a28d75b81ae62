package decoder

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"pump-monitor-sol/internal/types"

	"github.com/mr-tron/base58"
)

// NA 是账户下标越界时的占位值：越界按降级处理，不中断解码。
const NA = "N/A"

// Field 是一条已解码字段。Value 的具体类型由 FieldKind 决定：
// FieldString/FieldPubkey → string，FieldU64 → uint64，FieldI64 → int64，FieldBool → bool。
type Field struct {
	Name  string
	Value any
}

// Record 是一条指令的解码结果，交给 sink 后即丢弃，核心不保留历史。
type Record struct {
	Schema   string            // 命中的 schema 名称
	Slot     uint64            // 所属 slot（由 dispatcher 填充）
	TxHash   string            // base58 交易签名（由 dispatcher 填充）
	Fields   []Field           // 标量字段，按 schema 声明顺序
	Accounts map[string]string // 语义角色 → base58 地址，越界时为 NA
}

// Field 按名称取标量字段值，未命中返回 nil。
func (r *Record) Field(name string) any {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Registry 是判别 ID → Schema 的路由表。进程启动时装配一次，之后只读。
type Registry struct {
	schemas map[[8]byte]*Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[[8]byte]*Schema)}
}

// Register 注册一个 schema，判别 ID 重复时返回 error。
func (r *Registry) Register(s *Schema) error {
	if _, exists := r.schemas[s.Discriminator]; exists {
		return fmt.Errorf("duplicate discriminator %x (schema %s)", s.Discriminator, s.Name)
	}
	r.schemas[s.Discriminator] = s
	return nil
}

func (r *Registry) MustRegister(s *Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Lookup 按指令数据前 8 字节查找 schema，数据过短或未注册返回 nil。
func (r *Registry) Lookup(data []byte) *Schema {
	if len(data) < 8 {
		return nil
	}
	var d [8]byte
	copy(d[:], data[:8])
	return r.schemas[d]
}

func (r *Registry) Len() int {
	return len(r.schemas)
}

// Decode 对一条指令执行 匹配 → 字段解码 → 账户解析。
//
//   - data:     指令原始数据，前 8 字节为判别 ID
//   - accounts: 指令携带的账户表下标序列
//   - keys:     所属交易的完整账户表
//
// 未注册的判别 ID 返回 (nil, nil)，属于正常过滤结果而非错误。
// 字段解码失败返回 *MalformedInstructionError，不产出部分记录。
// 输入缓冲区不会被修改。
func (r *Registry) Decode(data []byte, accounts []byte, keys []types.Pubkey) (*Record, error) {
	schema := r.Lookup(data)
	if schema == nil {
		return nil, nil
	}

	fields, _, err := decodeFields(schema, data)
	if err != nil {
		return nil, err
	}

	roles := make(map[string]string, len(schema.Roles))
	for role, pos := range schema.Roles {
		roles[role] = resolveAccount(accounts, keys, pos)
	}

	return &Record{
		Schema:   schema.Name,
		Fields:   fields,
		Accounts: roles,
	}, nil
}

// decodeFields 从偏移 8 开始按 schema 依次读取字段，返回字段与总消费字节数
//（含 8 字节判别 ID）。任何一步越界即失败，整条指令作废。
func decodeFields(schema *Schema, data []byte) ([]Field, int, error) {
	fields := make([]Field, 0, len(schema.Fields))
	offset := 8

	fail := func(name, reason string) ([]Field, int, error) {
		return nil, 0, &MalformedInstructionError{Schema: schema.Name, Field: name, Reason: reason}
	}

	for _, op := range schema.Fields {
		switch op.Kind {
		case FieldString:
			if offset+4 > len(data) {
				return fail(op.Name, "truncated length prefix")
			}
			length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
			if length > len(data)-offset {
				return fail(op.Name, fmt.Sprintf("declared length %d exceeds remaining %d bytes", length, len(data)-offset))
			}
			raw := data[offset : offset+length]
			if !utf8.Valid(raw) {
				return fail(op.Name, "invalid utf-8 text")
			}
			fields = append(fields, Field{Name: op.Name, Value: string(raw)})
			offset += length

		case FieldPubkey:
			if offset+32 > len(data) {
				return fail(op.Name, "truncated pubkey")
			}
			fields = append(fields, Field{Name: op.Name, Value: base58.Encode(data[offset : offset+32])})
			offset += 32

		case FieldU64:
			if offset+8 > len(data) {
				return fail(op.Name, "truncated u64")
			}
			fields = append(fields, Field{Name: op.Name, Value: binary.LittleEndian.Uint64(data[offset : offset+8])})
			offset += 8

		case FieldI64:
			if offset+8 > len(data) {
				return fail(op.Name, "truncated i64")
			}
			fields = append(fields, Field{Name: op.Name, Value: int64(binary.LittleEndian.Uint64(data[offset : offset+8]))})
			offset += 8

		case FieldBool:
			if offset+1 > len(data) {
				return fail(op.Name, "truncated bool")
			}
			fields = append(fields, Field{Name: op.Name, Value: data[offset] != 0})
			offset++

		default:
			return fail(op.Name, fmt.Sprintf("unknown field kind %d", op.Kind))
		}
	}
	return fields, offset, nil
}

// resolveAccount 做两级下标查找：schema 位置 → 指令账户下标 → 账户表公钥。
// 任意一级越界都降级为 NA，保持流继续。
func resolveAccount(accounts []byte, keys []types.Pubkey, pos int) string {
	if pos < 0 || pos >= len(accounts) {
		return NA
	}
	keyIndex := int(accounts[pos])
	if keyIndex >= len(keys) {
		return NA
	}
	return keys[keyIndex].String()
}
