package core

import "pump-monitor-sol/internal/types"

// RawInstruction 表示一条未解码的指令（主指令或 inner 指令）。
// Data 前 8 字节为方法判别 ID；Accounts 是指向交易账户表的下标序列，
// 解码时按 schema 的位置映射在账户表里二次查找，保持原始顺序。
type RawInstruction struct {
	IxIndex    uint16 // 主指令索引（从 0 开始）
	InnerIndex uint16 // inner 指令在主指令中的序号，主指令本身为 0，CPI 调用从 1 开始
	ProgramID  types.Pubkey
	Accounts   []byte // 账户表下标列表
	Data       []byte // 指令原始数据
}

// FlatTx 表示一条已摊平的交易推送：账户表、指令序列与签名一次性抽取，
// 后续解码不再接触 gRPC 的多层嵌套结构。
type FlatTx struct {
	Slot        uint64
	Signature   []byte         // 交易签名（64 字节原始数据）
	AccountKeys []types.Pubkey // 完整账户表：account_keys + lookup table 的 writable/readonly
	// Instructions 按 Solana 执行顺序摊平，inner 指令紧随其主指令之后。
	Instructions []*RawInstruction
}
