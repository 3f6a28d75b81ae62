package grpc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"pump-monitor-sol/internal/config"
	"pump-monitor-sol/internal/logic/dispatcher"
	"pump-monitor-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
)

// subscribeStream 是订阅流的最小收发面，便于在测试里替换。
type subscribeStream interface {
	Send(*pb.SubscribeRequest) error
	Recv() (*pb.SubscribeUpdate, error)
}

const defaultSendTimeoutSec = 10

// StreamService 管理一次订阅会话：发起 Subscribe、下发订阅请求、
// 消费推送并交给 dispatcher，附带应用层 ping 心跳。
// 会话是一次性的：流结束或出错即终止并通过 Done 上报，不自行重连。
type StreamService struct {
	conf       *config.GrpcConfig
	conn       *grpc.ClientConn
	client     pb.GeyserClient
	request    *pb.SubscribeRequest
	dispatcher *dispatcher.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	finishOnce sync.Once
	done       chan error
}

func NewStreamService(
	conn *grpc.ClientConn,
	request *pb.SubscribeRequest,
	disp *dispatcher.Dispatcher,
	conf *config.GrpcConfig,
) *StreamService {
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamService{
		conf:       conf,
		conn:       conn,
		client:     pb.NewGeyserClient(conn),
		request:    request,
		dispatcher: disp,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan error, 1),
	}
}

// Done 返回会话终止信号：正常流结束为 nil，传输失败为对应 error。
// 重连与否由监听该信号的上层决定。
func (s *StreamService) Done() <-chan error {
	return s.done
}

// Start 建立订阅并启动消费循环。实现 go-zero service.Service 接口，
// 循环在后台 goroutine 里运行，Start 本身很快返回。
func (s *StreamService) Start() {
	stream, err := s.client.Subscribe(s.ctx)
	if err != nil {
		s.finish(&ConnectionError{Endpoint: s.conf.Endpoint, Err: err})
		return
	}

	if err := sendWithTimeout(s.ctx, stream.Send, s.request, s.sendTimeout()); err != nil {
		s.finish(&ConnectionError{Endpoint: s.conf.Endpoint, Err: err})
		return
	}
	logger.Infof("[stream] 订阅已建立: endpoint=%s", s.conf.Endpoint)

	if interval := s.pingInterval(); interval > 0 {
		go s.pingLoop(s.ctx, stream, interval)
	}
	go s.recvLoop(s.ctx, stream)
}

// Stop 主动取消会话并释放连接。与流自身终止共用同一条退出路径。
func (s *StreamService) Stop() {
	s.finish(nil)
}

// finish 是所有退出路径的汇合点：取消内部 context、关闭连接、上报一次结果。
func (s *StreamService) finish(err error) {
	s.finishOnce.Do(func() {
		s.cancel()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.done <- err
	})
}

// recvLoop 按到达顺序消费推送，直到流结束、出错或会话被取消。
func (s *StreamService) recvLoop(ctx context.Context, stream subscribeStream) {
	for {
		update, err := stream.Recv()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				logger.Infof("[stream] 服务端关闭了流 (EOF)")
				s.finish(nil)
			case ctx.Err() != nil:
				s.finish(nil) // 本地主动取消
			default:
				logger.Errorf("[stream] 接收失败: %v", err)
				s.finish(&ConnectionError{Endpoint: s.conf.Endpoint, Err: err})
			}
			return
		}
		s.dispatcher.Dispatch(ctx, update)
	}
}

// pingLoop 周期性发送应用层 ping，保持部分网关的会话活性。
// 发送失败只记录，不触发会话终止。
func (s *StreamService) pingLoop(ctx context.Context, stream subscribeStream, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping := &pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: 1}}
			if err := sendWithTimeout(ctx, stream.Send, ping, s.sendTimeout()); err != nil {
				logger.Warnf("[stream] ping 发送失败: %v", err)
			}
		}
	}
}

// pingInterval 返回应用层 ping 间隔，0 表示关闭；
// 配置的最小 ping 间距会收紧该值的下限。
func (s *StreamService) pingInterval() time.Duration {
	sec := s.conf.StreamPingIntervalSec
	if sec <= 0 {
		return 0
	}
	if spacing := s.conf.MinPingSpacingSec; spacing > sec {
		sec = spacing
	}
	return time.Duration(sec) * time.Second
}

func (s *StreamService) sendTimeout() time.Duration {
	sec := s.conf.SendTimeoutSec
	if sec <= 0 {
		sec = defaultSendTimeoutSec
	}
	return time.Duration(sec) * time.Second
}

// sendWithTimeout 给流式 Send 套上超时，避免对端停读时永久阻塞。
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}
