package dispatcher

import (
	"context"
	"encoding/binary"
	"testing"

	"pump-monitor-sol/internal/consts"
	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/internal/logic/decoder/pumpfun"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	records []*decoder.Record
	updates []*pb.SubscribeUpdate
}

func (s *captureSink) OnRecord(rec *decoder.Record)       { s.records = append(s.records, rec) }
func (s *captureSink) OnUpdate(update *pb.SubscribeUpdate) { s.updates = append(s.updates, update) }

type captureProgress struct {
	slots []uint64
}

func (p *captureProgress) MarkSlot(_ context.Context, slot uint64) error {
	p.slots = append(p.slots, slot)
	return nil
}

func newTestDispatcher(sink Sink, progress SlotProgress) *Dispatcher {
	registry := decoder.NewRegistry()
	pumpfun.RegisterSchemas(registry)
	return New(registry, sink, progress)
}

// 构造一条 pump.fun create 指令数据
func createInstructionData(name, symbol, uri string) []byte {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, consts.PumpCreate)
	for _, s := range []string{name, symbol, uri} {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		data = append(data, lenBuf[:]...)
		data = append(data, s...)
	}
	return append(data, make([]byte, 32)...) // creator
}

func accountKeys(n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = make([]byte, 32)
		keys[i][0] = byte(i + 1)
	}
	return keys
}

func transactionUpdate(instructions ...*pb.CompiledInstruction) *pb.SubscribeUpdate {
	return &pb.SubscribeUpdate{
		UpdateOneof: &pb.SubscribeUpdate_Transaction{
			Transaction: &pb.SubscribeUpdateTransaction{
				Slot: 4242,
				Transaction: &pb.SubscribeUpdateTransactionInfo{
					Signature: make([]byte, 64),
					Transaction: &pb.Transaction{
						Message: &pb.Message{
							AccountKeys:  accountKeys(14),
							Instructions: instructions,
						},
					},
					Meta: &pb.TransactionStatusMeta{},
				},
			},
		},
	}
}

func TestDispatchTransactionDecodesCreate(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(sink, nil)

	update := transactionUpdate(&pb.CompiledInstruction{
		ProgramIdIndex: 13,
		Accounts:       []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
		Data:           createInstructionData("ABC", "ABC", "http://x"),
	})
	d.Dispatch(context.Background(), update)

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "pumpfun_create", rec.Schema)
	assert.Equal(t, uint64(4242), rec.Slot)
	assert.NotEmpty(t, rec.TxHash)
	assert.Equal(t, "ABC", rec.Field("name"))
	assert.Empty(t, sink.updates, "交易推送不应原样转发")
}

// 不认识的指令与解码失败的指令都只是被跳过，其余指令照常解码
func TestDispatchTransactionSkipsBadInstructions(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(sink, nil)

	truncated := createInstructionData("ABC", "ABC", "http://x")
	truncated = truncated[:12] // 掐断在 name 长度前缀之后

	update := transactionUpdate(
		&pb.CompiledInstruction{ProgramIdIndex: 0, Accounts: []byte{0}, Data: []byte("unrelated")},
		&pb.CompiledInstruction{ProgramIdIndex: 13, Accounts: []byte{0, 1, 2, 3, 4, 5, 6, 7}, Data: truncated},
		&pb.CompiledInstruction{
			ProgramIdIndex: 13,
			Accounts:       []byte{0, 1, 2, 3, 4, 5, 6, 7},
			Data:           createInstructionData("OK", "OK", "u"),
		},
	)
	d.Dispatch(context.Background(), update)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "OK", sink.records[0].Field("name"))
}

// 非交易推送：原样转发，解码器不参与
func TestDispatchSlotUpdatePassThrough(t *testing.T) {
	sink := &captureSink{}
	progress := &captureProgress{}
	d := newTestDispatcher(sink, progress)

	update := &pb.SubscribeUpdate{
		UpdateOneof: &pb.SubscribeUpdate_Slot{
			Slot: &pb.SubscribeUpdateSlot{Slot: 777},
		},
	}
	d.Dispatch(context.Background(), update)

	assert.Empty(t, sink.records)
	require.Len(t, sink.updates, 1)
	assert.Same(t, update, sink.updates[0])
	assert.Equal(t, []uint64{777}, progress.slots)
}

func TestDispatchOtherKindsPassThrough(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(sink, nil)

	updates := []*pb.SubscribeUpdate{
		{UpdateOneof: &pb.SubscribeUpdate_Account{Account: &pb.SubscribeUpdateAccount{}}},
		{UpdateOneof: &pb.SubscribeUpdate_BlockMeta{BlockMeta: &pb.SubscribeUpdateBlockMeta{}}},
		{UpdateOneof: &pb.SubscribeUpdate_Ping{Ping: &pb.SubscribeUpdatePing{}}},
	}
	for _, u := range updates {
		d.Dispatch(context.Background(), u)
	}

	assert.Empty(t, sink.records)
	assert.Len(t, sink.updates, len(updates))
}

// 结构异常的交易整体跳过，不影响后续推送
func TestDispatchMalformedTransaction(t *testing.T) {
	sink := &captureSink{}
	d := newTestDispatcher(sink, nil)

	d.Dispatch(context.Background(), &pb.SubscribeUpdate{
		UpdateOneof: &pb.SubscribeUpdate_Transaction{
			Transaction: &pb.SubscribeUpdateTransaction{
				Transaction: &pb.SubscribeUpdateTransactionInfo{},
			},
		},
	})
	assert.Empty(t, sink.records)
	assert.Empty(t, sink.updates)
}
