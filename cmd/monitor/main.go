package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"pump-monitor-sol/internal/config"
	"pump-monitor-sol/internal/consts"
	"pump-monitor-sol/internal/logic/dispatcher"
	"pump-monitor-sol/internal/logic/grpc"
	"pump-monitor-sol/internal/logic/subscription"
	"pump-monitor-sol/internal/svc"
	"pump-monitor-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/monitor.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.MonitorConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewMonitorServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	request, err := buildRequest(serviceContext)
	if err != nil {
		panic(err)
	}

	conn, err := grpc.Open(context.Background(), &c.Grpc)
	if err != nil {
		panic(err)
	}

	disp := dispatcher.New(serviceContext.Registry, serviceContext.Sink, serviceContext.SlotProgress())
	stream := grpc.NewStreamService(conn, request, disp, &c.Grpc)

	sg := zerosvc.NewServiceGroup()
	if serviceContext.LagChecker != nil {
		sg.Add(serviceContext.LagChecker)
	}
	sg.Add(stream)

	logx.Infof("Starting pump monitor service")
	sg.Start()

	// 等待退出信号或会话终止；重连策略留给外层编排，这里一次会话即一次进程
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		logx.Info("Shutting down services...")
	case err := <-stream.Done():
		if err != nil {
			logx.Errorf("stream session terminated: %v", err)
		} else {
			logx.Info("stream session ended")
		}
	}
	sg.Stop()
}

// buildRequest 按配置组装订阅请求：一条交易过滤器，外加可选的
// BondingCurve 账户订阅与 slot 订阅（进度/延迟监控需要 slot 推送）。
func buildRequest(sc *svc.MonitorServiceContext) (*pb.SubscribeRequest, error) {
	subConf := sc.Config.SubscriptionConf

	programs := subConf.Programs
	if len(programs) == 0 {
		programs = []string{consts.PumpFunProgram.String()}
	}
	filterName := subConf.FilterName
	if filterName == "" {
		filterName = "pump_filter"
	}

	filters := subscription.Filters{
		Transactions: map[string]subscription.FilterSpec{
			filterName: {
				AccountInclude: programs,
				IncludeFailed:  subConf.IncludeFailed,
				IncludeVote:    subConf.IncludeVote,
			},
		},
	}
	if subConf.WatchAccounts {
		filters.Accounts = map[string]subscription.FilterSpec{
			filterName + "_curves": {
				Owner:          programs,
				Discriminators: [][]byte{consts.BondingCurveDiscriminator[:]},
			},
		}
	}
	if subConf.WatchSlots || sc.SlotProgress() != nil {
		filters.Slots = map[string]subscription.FilterSpec{"slots": {}}
	}

	commitment, err := subscription.ParseCommitment(subConf.Commitment)
	if err != nil {
		return nil, err
	}

	var opts []subscription.Option
	if subConf.Resume && sc.Progress != nil {
		slot, ok, err := sc.Progress.LastSlot(context.Background())
		switch {
		case err != nil:
			logger.Warnf("读取 slot 进度失败，从当前位置订阅: %v", err)
		case ok:
			logger.Infof("断点续传: from_slot=%d", slot+1)
			opts = append(opts, subscription.WithFromSlot(slot+1))
		}
	}

	return subscription.Build(filters, commitment, opts...), nil
}
