package txadapter

import (
	"fmt"

	"pump-monitor-sol/internal/logic/core"
	"pump-monitor-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// buildAccountKeys 构造交易的完整账户表。
// 将 message.accountKeys 与 Address Lookup Table 的 writable / readonly 地址
// 顺序拼接为 []Pubkey，供指令里的下标直接索引。
func buildAccountKeys(accountKeys, loadedWritable, loadedReadonly [][]byte) ([]types.Pubkey, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	keys := make([]types.Pubkey, 0, total)

	for _, group := range [][][]byte{accountKeys, loadedWritable, loadedReadonly} {
		for _, b := range group {
			p, err := types.PubkeyFromBytes(b)
			if err != nil {
				return nil, fmt.Errorf("account key at index %d: %w", len(keys), err)
			}
			keys = append(keys, p)
		}
	}
	return keys, nil
}

// Flatten 把一条 transaction 推送摊平为 FlatTx：账户表、签名与指令序列
// 一次性抽取，inner 指令按执行顺序插在其主指令之后。
// 结构不完整（缺 message / 账户表下标越界等）时返回 error，由调用方跳过该交易。
func Flatten(update *pb.SubscribeUpdateTransaction) (*core.FlatTx, error) {
	info := update.GetTransaction()
	if info == nil || info.Transaction == nil || info.Transaction.Message == nil {
		return nil, fmt.Errorf("transaction update missing message")
	}
	msg := info.Transaction.Message

	var loadedWritable, loadedReadonly [][]byte
	var rawInners []*pb.InnerInstructions
	if meta := info.Meta; meta != nil {
		loadedWritable = meta.LoadedWritableAddresses
		loadedReadonly = meta.LoadedReadonlyAddresses
		rawInners = meta.InnerInstructions
	}

	keys, err := buildAccountKeys(msg.AccountKeys, loadedWritable, loadedReadonly)
	if err != nil {
		return nil, err
	}

	programAt := func(idx uint32) (types.Pubkey, error) {
		if int(idx) >= len(keys) {
			return types.Pubkey{}, fmt.Errorf("program id index %d out of range (keys=%d)", idx, len(keys))
		}
		return keys[idx], nil
	}

	instrs := make([]*core.RawInstruction, 0, len(msg.Instructions))
	innerCursor := 0 // rawInners 按主指令索引有序，顺序推进即可

	for i, inst := range msg.Instructions {
		program, err := programAt(inst.ProgramIdIndex)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, &core.RawInstruction{
			IxIndex:   uint16(i),
			ProgramID: program,
			Accounts:  inst.Accounts,
			Data:      inst.Data,
		})

		if innerCursor < len(rawInners) && int(rawInners[innerCursor].Index) == i {
			for j, inner := range rawInners[innerCursor].Instructions {
				program, err := programAt(inner.ProgramIdIndex)
				if err != nil {
					return nil, err
				}
				instrs = append(instrs, &core.RawInstruction{
					IxIndex:    uint16(i),
					InnerIndex: uint16(j + 1),
					ProgramID:  program,
					Accounts:   inner.Accounts,
					Data:       inner.Data,
				})
			}
			innerCursor++
		}
	}

	return &core.FlatTx{
		Slot:         update.GetSlot(),
		Signature:    info.Signature,
		AccountKeys:  keys,
		Instructions: instrs,
	}, nil
}
