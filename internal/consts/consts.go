package consts

import "pump-monitor-sol/internal/types"

// Pump.fun 主程序地址（默认值，可在配置里覆盖订阅用的 program 列表）。
var PumpFunProgram = types.MustPubkeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

// Pump.fun 指令 8 字节方法 ID（按线上字节序列的大端读数表示，与链上数据逐字节一致）。
const (
	PumpCreate uint64 = 0x181ec828051c0777
	PumpBuy    uint64 = 0x66063d1201daebea
	PumpSell   uint64 = 0x33e685a4017f83ad
)

// Pump.fun BondingCurve 账户的 Anchor 判别前缀（sha256("account:BondingCurve")[:8]）。
var BondingCurveDiscriminator = [8]byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}
