package pumpfun

import (
	"fmt"

	"pump-monitor-sol/internal/consts"
	"pump-monitor-sol/internal/types"

	"github.com/near/borsh-go"
)

// BondingCurve 是 Pump.fun BondingCurve 账户的链上布局（borsh，判别前缀之后）。
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              types.Pubkey
}

// IsBondingCurveAccount 判断账户数据是否带 BondingCurve 的 Anchor 判别前缀。
func IsBondingCurveAccount(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	var d [8]byte
	copy(d[:], data[:8])
	return d == consts.BondingCurveDiscriminator
}

// DecodeBondingCurve 反序列化 BondingCurve 账户状态（data 含 8 字节判别前缀）。
func DecodeBondingCurve(data []byte) (*BondingCurve, error) {
	if !IsBondingCurveAccount(data) {
		return nil, fmt.Errorf("not a bonding curve account (len=%d)", len(data))
	}
	curve := &BondingCurve{}
	if err := borsh.Deserialize(curve, data[8:]); err != nil {
		return nil, fmt.Errorf("deserialize bonding curve: %w", err)
	}
	return curve, nil
}
