package pumpfun

import (
	"pump-monitor-sol/internal/consts"
	"pump-monitor-sol/internal/logic/decoder"
)

// 示例交易：https://solscan.io/tx/5hHxQWz2H7FNv7oNoDHTmqhAGZLDjW5dTgX1sazUAPnXoY5MqirHnV5oPoJPQSAH6A11ynzKeqmTVB7Cy52iTbcK
//
// Pump.fun - Create 指令账户布局：
//
// #0  - Mint 账户（新创建的 Token Mint）
// #1  - Mint Authority（程序派生的权限地址）
// #2  - Bonding Curve 主账户（池子地址）
// #3  - Bonding Curve Vault（池子 TokenAccount）
// #4  - Global 配置账户
// #5  - Metaplex Token Metadata 程序地址
// #6  - Metadata 账户（Metaplex 元数据 PDA）
// #7  - 用户钱包地址
// #8+ - System / Token / ATA / Rent / Event Authority / Program ID
var createSchema = &decoder.Schema{
	Name:          "pumpfun_create",
	Discriminator: decoder.DiscriminatorFromU64(consts.PumpCreate),
	Fields: []decoder.FieldOp{
		{Name: "name", Kind: decoder.FieldString},
		{Name: "symbol", Kind: decoder.FieldString},
		{Name: "uri", Kind: decoder.FieldString},
		{Name: "creator", Kind: decoder.FieldPubkey},
	},
	Roles: map[string]int{
		"mint":                     0,
		"bonding_curve":            2,
		"associated_bonding_curve": 3,
		"user":                     7,
	},
}

// Buy 指令账户布局：#0 Global，#1 Fee Recipient，#2 Mint，#3 Bonding Curve，
// #4 Bonding Curve Vault，#5 用户 ATA，#6 用户钱包。
var buySchema = &decoder.Schema{
	Name:          "pumpfun_buy",
	Discriminator: decoder.DiscriminatorFromU64(consts.PumpBuy),
	Fields: []decoder.FieldOp{
		{Name: "amount", Kind: decoder.FieldU64},
		{Name: "max_sol_cost", Kind: decoder.FieldU64},
	},
	Roles: map[string]int{
		"mint":          2,
		"bonding_curve": 3,
		"user":          6,
	},
}

// Sell 指令账户布局与 Buy 一致。
var sellSchema = &decoder.Schema{
	Name:          "pumpfun_sell",
	Discriminator: decoder.DiscriminatorFromU64(consts.PumpSell),
	Fields: []decoder.FieldOp{
		{Name: "amount", Kind: decoder.FieldU64},
		{Name: "min_sol_output", Kind: decoder.FieldU64},
	},
	Roles: map[string]int{
		"mint":          2,
		"bonding_curve": 3,
		"user":          6,
	},
}

// RegisterSchemas 把 Pump.fun 相关指令 schema 注册进路由表。
func RegisterSchemas(r *decoder.Registry) {
	r.MustRegister(createSchema)
	r.MustRegister(buySchema)
	r.MustRegister(sellSchema)
}
