package dispatcher

import (
	"context"

	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/internal/logic/txadapter"
	"pump-monitor-sol/pkg/logger"

	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// Sink 接收分发结果：解码出的记录，以及非交易类的原样推送。
type Sink interface {
	OnRecord(rec *decoder.Record)
	OnUpdate(update *pb.SubscribeUpdate)
}

// SlotProgress 记录已推进到的 slot（断点续传用），实现可为 nil 关闭。
type SlotProgress interface {
	MarkSlot(ctx context.Context, slot uint64) error
}

// Dispatcher 是订阅流的单一消费者：对每条推送按类型分类，
// 交易类送解码器，其余原样转给 sink。处理顺序与推送到达顺序一致，
// 不做重排、去重或跨消息缓存。
type Dispatcher struct {
	registry *decoder.Registry
	sink     Sink
	progress SlotProgress // 可为 nil
}

func New(registry *decoder.Registry, sink Sink, progress SlotProgress) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		sink:     sink,
		progress: progress,
	}
}

// Dispatch 处理一条推送。oneof 的每个分支都显式列出，
// 新增实体类型时编译期即可发现遗漏。
func (d *Dispatcher) Dispatch(ctx context.Context, update *pb.SubscribeUpdate) {
	switch u := update.GetUpdateOneof().(type) {
	case *pb.SubscribeUpdate_Transaction:
		d.handleTransaction(u.Transaction)

	case *pb.SubscribeUpdate_Slot:
		d.markSlot(ctx, u.Slot.GetSlot())
		d.sink.OnUpdate(update)

	case *pb.SubscribeUpdate_Account,
		*pb.SubscribeUpdate_TransactionStatus,
		*pb.SubscribeUpdate_Block,
		*pb.SubscribeUpdate_BlockMeta,
		*pb.SubscribeUpdate_Entry,
		*pb.SubscribeUpdate_Ping,
		*pb.SubscribeUpdate_Pong:
		d.sink.OnUpdate(update)

	default:
		logger.Warnf("[dispatcher] 未知推送类型: %T", update.GetUpdateOneof())
	}
}

// handleTransaction 摊平交易后逐条指令尝试解码。
// 未注册判别 ID 属正常过滤；解码失败只跳过该指令，流继续。
func (d *Dispatcher) handleTransaction(update *pb.SubscribeUpdateTransaction) {
	flat, err := txadapter.Flatten(update)
	if err != nil {
		logger.Warnf("[dispatcher] 交易结构异常，跳过: %v", err)
		return
	}

	txHash := base58.Encode(flat.Signature)
	for _, ix := range flat.Instructions {
		rec, err := d.registry.Decode(ix.Data, ix.Accounts, flat.AccountKeys)
		if err != nil {
			logger.Warnf("[dispatcher] 指令解码失败，跳过: %v, tx=%s, ix=%d.%d",
				err, txHash, ix.IxIndex, ix.InnerIndex)
			continue
		}
		if rec == nil {
			continue
		}
		rec.Slot = flat.Slot
		rec.TxHash = txHash
		d.sink.OnRecord(rec)
	}
}

func (d *Dispatcher) markSlot(ctx context.Context, slot uint64) {
	if d.progress == nil {
		return
	}
	if err := d.progress.MarkSlot(ctx, slot); err != nil {
		logger.Warnf("[dispatcher] slot 进度写入失败: slot=%d, err=%v", slot, err)
	}
}
