package svc

import (
	"context"
	"fmt"

	"pump-monitor-sol/internal/config"
	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/internal/logic/decoder/pumpfun"
	"pump-monitor-sol/internal/logic/dispatcher"
	"pump-monitor-sol/internal/logic/lag"
	"pump-monitor-sol/internal/logic/progress"
	"pump-monitor-sol/internal/sink"
	"pump-monitor-sol/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// MonitorServiceContext 持有监控服务的共享资源：schema 路由表、输出端、
// 进度存储与延迟巡检。进程启动时装配一次。
type MonitorServiceContext struct {
	Config     config.MonitorConfig
	Registry   *decoder.Registry
	Sink       dispatcher.Sink
	Progress   *progress.Store // 可为 nil（未配置 Redis）
	LagChecker *lag.Checker    // 可为 nil（未配置 RPC 端点）

	rdb       *redis.Client
	kafkaSink *sink.KafkaSink
}

func NewMonitorServiceContext(c config.MonitorConfig) (*MonitorServiceContext, error) {
	// 1. 装配指令 schema 路由表（启动后只读）
	registry := decoder.NewRegistry()
	pumpfun.RegisterSchemas(registry)

	sc := &MonitorServiceContext{Config: c, Registry: registry}

	// 2. 选择记录输出端
	switch c.SinkConf.Type {
	case "", "console":
		sc.Sink = sink.NewConsoleSink()
	case "kafka":
		kafkaSink, err := sink.NewKafkaSink(c.SinkConf.Kafka)
		if err != nil {
			return nil, fmt.Errorf("init kafka sink: %w", err)
		}
		sc.kafkaSink = kafkaSink
		sc.Sink = kafkaSink
	default:
		return nil, fmt.Errorf("unknown sink type %q", c.SinkConf.Type)
	}

	// 3. 可选：Redis slot 进度存储
	if addr := c.ProgressConf.RedisAddr; addr != "" {
		sc.rdb = redis.NewClient(&redis.Options{Addr: addr})
		sc.Progress = progress.NewStore(sc.rdb, c.ProgressConf.TTLHours)
	}

	// 4. 可选：slot 延迟巡检
	if lagConf := c.LagCheckConf; lagConf.Endpoint != "" {
		sc.LagChecker = lag.NewChecker(lagConf.Endpoint, lagConf.CheckIntervalSec, lagConf.MaxLagSlots)
	}

	logger.Infof("监控服务上下文初始化完成: schemas=%d, sink=%s", registry.Len(), c.SinkConf.Type)
	return sc, nil
}

// SlotProgress 返回 dispatcher 用的 slot 水位接收方，无任何接收方时为 nil。
func (sc *MonitorServiceContext) SlotProgress() dispatcher.SlotProgress {
	var targets []dispatcher.SlotProgress
	if sc.Progress != nil {
		targets = append(targets, sc.Progress)
	}
	if sc.LagChecker != nil {
		targets = append(targets, sc.LagChecker)
	}
	switch len(targets) {
	case 0:
		return nil
	case 1:
		return targets[0]
	default:
		return multiProgress(targets)
	}
}

type multiProgress []dispatcher.SlotProgress

func (m multiProgress) MarkSlot(ctx context.Context, slot uint64) error {
	var firstErr error
	for _, p := range m {
		if err := p.MarkSlot(ctx, slot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close 关闭上下文持有的资源。
func (sc *MonitorServiceContext) Close() {
	if sc.kafkaSink != nil {
		sc.kafkaSink.Close()
	}
	if sc.rdb != nil {
		_ = sc.rdb.Close()
	}
}
