package decoder

import "encoding/binary"

// FieldKind 表示 schema 中一种字段读取操作。
type FieldKind uint8

const (
	FieldString FieldKind = iota + 1 // u32 小端长度前缀 + UTF-8 文本
	FieldPubkey                      // 固定 32 字节公钥，输出 base58 文本
	FieldU64                         // 8 字节小端无符号整数
	FieldI64                         // 8 字节小端有符号整数
	FieldBool                        // 1 字节布尔
)

// FieldOp 是 schema 中的一步字段读取：按声明顺序依次推进游标。
type FieldOp struct {
	Name string
	Kind FieldKind
}

// Schema 描述一种指令的解码规则：8 字节判别 ID、字段读取序列，
// 以及语义角色 → 指令账户下标位置的映射。
// 新增指令类型只需注册新的 Schema 数据，匹配/解码/账户解析算法不变。
type Schema struct {
	Name          string         // 记录上携带的 schema 名称，如 "pumpfun_create"
	Discriminator [8]byte        // 指令数据前 8 字节
	Fields        []FieldOp      // 字段读取序列（游标从偏移 8 开始）
	Roles         map[string]int // 语义角色 → ix.Accounts 的位置下标（非账户表下标）
}

// DiscriminatorFromU64 把按大端读数表示的方法 ID 还原为线上 8 字节序列。
// 与直接书写 [8]byte 字面量等价，便于 schema 常量与区块浏览器展示对齐。
func DiscriminatorFromU64(v uint64) [8]byte {
	var d [8]byte
	binary.BigEndian.PutUint64(d[:], v)
	return d
}
