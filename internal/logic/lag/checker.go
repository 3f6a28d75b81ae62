package lag

import (
	"context"
	"sync/atomic"
	"time"

	"pump-monitor-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/rpc"
)

const (
	defaultCheckIntervalSec = 30
	defaultMaxLagSlots      = 150 // 约一分钟的 slot 数
	rpcTimeout              = 6 * time.Second
)

// Checker 周期性对比链上最新 slot 与流内推进到的 slot，落后过多时告警。
// 只巡检不干预：是否断开重订阅由上层决定。
type Checker struct {
	client      *rpc.RpcClient
	interval    time.Duration
	maxLagSlots uint64

	streamSlot atomic.Uint64 // 流内最新 slot 水位

	ctx    context.Context
	cancel context.CancelFunc
}

func NewChecker(endpoint string, checkIntervalSec int, maxLagSlots uint64) *Checker {
	if checkIntervalSec <= 0 {
		checkIntervalSec = defaultCheckIntervalSec
	}
	if maxLagSlots == 0 {
		maxLagSlots = defaultMaxLagSlots
	}
	client := rpc.NewRpcClient(endpoint)
	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		client:      &client,
		interval:    time.Duration(checkIntervalSec) * time.Second,
		maxLagSlots: maxLagSlots,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// MarkSlot 更新流内 slot 水位。实现 dispatcher.SlotProgress，永不失败。
func (c *Checker) MarkSlot(_ context.Context, slot uint64) error {
	// slot 推送有序，直接覆盖
	c.streamSlot.Store(slot)
	return nil
}

func (c *Checker) Start() {
	go c.run()
}

func (c *Checker) Stop() {
	c.cancel()
}

func (c *Checker) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.checkOnce()
		}
	}
}

func (c *Checker) checkOnce() {
	streamSlot := c.streamSlot.Load()
	if streamSlot == 0 {
		return // 尚未收到任何 slot 推送
	}

	ctx, cancel := context.WithTimeout(c.ctx, rpcTimeout)
	resp, err := c.client.GetSlot(ctx)
	cancel()
	if err != nil {
		logger.Warnf("[lag] 查询链上 slot 失败: %v", err)
		return
	}

	chainSlot := resp.Result
	if chainSlot > streamSlot && chainSlot-streamSlot > c.maxLagSlots {
		logger.Warnf("[lag] 订阅流落后链上 %d 个 slot (stream=%d, chain=%d)",
			chainSlot-streamSlot, streamSlot, chainSlot)
	}
}
