package sink

import (
	"fmt"
	"strings"

	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/internal/logic/decoder/pumpfun"
	"pump-monitor-sol/pkg/logger"

	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/protobuf/encoding/protojson"
)

// ConsoleSink 把解码记录渲染为人类可读日志；非交易类推送按类型做轻量展示，
// 内容本身原样（不做深度解码，BondingCurve 账户除外，见 onAccount）。
type ConsoleSink struct {
	render protojson.MarshalOptions
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{
		render: protojson.MarshalOptions{UseProtoNames: true},
	}
}

func (s *ConsoleSink) OnRecord(rec *decoder.Record) {
	var b strings.Builder
	for _, f := range rec.Fields {
		fmt.Fprintf(&b, " %s=%v", f.Name, f.Value)
	}
	for role, addr := range rec.Accounts {
		fmt.Fprintf(&b, " %s=%s", role, addr)
	}
	logger.Infof("[record] %s slot=%d tx=%s%s", rec.Schema, rec.Slot, rec.TxHash, b.String())
}

func (s *ConsoleSink) OnUpdate(update *pb.SubscribeUpdate) {
	switch u := update.GetUpdateOneof().(type) {
	case *pb.SubscribeUpdate_Slot:
		logger.Debugf("[slot] slot=%d parent=%d", u.Slot.GetSlot(), u.Slot.GetParent())
	case *pb.SubscribeUpdate_Account:
		s.onAccount(u.Account)
	case *pb.SubscribeUpdate_Ping, *pb.SubscribeUpdate_Pong:
		logger.Debugf("[ping] 心跳往返")
	default:
		logger.Debugf("[update] %s", s.render.Format(update))
	}
}

// onAccount 展示账户推送。命中 Pump.fun BondingCurve 布局时附带曲线状态，
// 其余账户只打元信息。
func (s *ConsoleSink) onAccount(update *pb.SubscribeUpdateAccount) {
	info := update.GetAccount()
	if info == nil {
		return
	}
	account := base58.Encode(info.Pubkey)

	if pumpfun.IsBondingCurveAccount(info.Data) {
		curve, err := pumpfun.DecodeBondingCurve(info.Data)
		if err != nil {
			logger.Warnf("[account] bonding curve 解码失败: account=%s, err=%v", account, err)
			return
		}
		logger.Infof("[account] bonding_curve=%s slot=%d virtual_sol=%d virtual_token=%d real_sol=%d real_token=%d supply=%d complete=%v creator=%s",
			account, update.GetSlot(),
			curve.VirtualSolReserves, curve.VirtualTokenReserves,
			curve.RealSolReserves, curve.RealTokenReserves,
			curve.TokenTotalSupply, curve.Complete, curve.Creator)
		return
	}

	logger.Infof("[account] account=%s slot=%d owner=%s lamports=%d data_len=%d",
		account, update.GetSlot(), base58.Encode(info.Owner), info.Lamports, len(info.Data))
}
