package types

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey 表示 Solana 账户公钥（固定 32 字节），值类型便于比较与做 map key。
type Pubkey [32]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

// PubkeyFromBytes 从原始字节构造 Pubkey，长度不为 32 时返回 error。
// gRPC 推送里的 account_keys / owner 等字段均为 32 字节原始公钥。
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	if len(b) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32", len(b))
	}
	var p Pubkey
	copy(p[:], b)
	return p, nil
}

// PubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error。
func PubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	return PubkeyFromBytes(data)
}

// MustPubkeyFromBase58 同 PubkeyFromBase58，仅用于常量初始化，失败直接 panic。
func MustPubkeyFromBase58(s string) Pubkey {
	p, err := PubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}
