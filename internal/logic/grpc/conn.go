package grpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"pump-monitor-sol/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
)

// 认证方式，对应配置 grpc.auth_type。
const (
	AuthXToken = "x-token" // 元数据头 x-token: <token>
	AuthBasic  = "basic"   // 元数据头 authorization: Basic <token>
)

// keepalive 兜底默认值（秒），配置缺省时生效。
const (
	defaultKeepaliveIntervalSec = 30
	defaultKeepaliveTimeoutSec  = 10
	defaultConnectTimeoutSec    = 10
)

// AuthConfigError 表示认证配置不可用（缺少凭证或认证方式不识别），
// 在会话启动前即失败，直接上抛给调用方。
type AuthConfigError struct {
	Reason string
}

func (e *AuthConfigError) Error() string {
	return "auth config error: " + e.Reason
}

// ConnectionError 表示传输层无法建立或中断。核心只上报，不自行重连，
// 重连策略由上层监管者决定。
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// streamAuth 实现 per-RPC 元数据凭证，与 TLS 通道凭证组合使用。
type streamAuth struct {
	authType string
	token    string
}

func newStreamAuth(authType, token string) (*streamAuth, error) {
	if token == "" {
		return nil, &AuthConfigError{Reason: "missing credential"}
	}
	switch authType {
	case "", AuthXToken:
		return &streamAuth{authType: AuthXToken, token: token}, nil
	case AuthBasic:
		return &streamAuth{authType: AuthBasic, token: token}, nil
	default:
		return nil, &AuthConfigError{Reason: fmt.Sprintf("unrecognized auth type %q", authType)}
	}
}

func (a *streamAuth) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	if a.authType == AuthBasic {
		return map[string]string{"authorization": "Basic " + a.token}, nil
	}
	return map[string]string{"x-token": a.token}, nil
}

func (a *streamAuth) RequireTransportSecurity() bool {
	return true
}

// Open 建立到 Geyser 端点的 gRPC 连接：TLS 通道 + per-RPC 认证元数据，
// 并应用 keepalive 与窗口/消息大小调优。认证配置问题返回 *AuthConfigError，
// 拨号失败返回 *ConnectionError。
func Open(ctx context.Context, cfg *config.GrpcConfig) (*grpc.ClientConn, error) {
	auth, err := newStreamAuth(cfg.AuthType, cfg.Token)
	if err != nil {
		return nil, err
	}

	keepaliveInterval := cfg.KeepalivePingIntervalSec
	if keepaliveInterval <= 0 {
		keepaliveInterval = defaultKeepaliveIntervalSec
	}
	keepaliveTimeout := cfg.KeepalivePingTimeoutSec
	if keepaliveTimeout <= 0 {
		keepaliveTimeout = defaultKeepaliveTimeoutSec
	}
	connectTimeout := cfg.ConnectTimeoutSec
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeoutSec
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})),
		grpc.WithPerRPCCredentials(auth),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(keepaliveInterval) * time.Second,
			Timeout:             time.Duration(keepaliveTimeout) * time.Second,
			PermitWithoutStream: cfg.KeepalivePermitNoStream,
		}),
	}
	if cfg.InitialWindowSize > 0 {
		opts = append(opts, grpc.WithInitialWindowSize(int32(cfg.InitialWindowSize)))
	}
	if cfg.InitialConnWindowSize > 0 {
		opts = append(opts, grpc.WithInitialConnWindowSize(int32(cfg.InitialConnWindowSize)))
	}
	var callOpts []grpc.CallOption
	if cfg.MaxCallSendMsgSize > 0 {
		callOpts = append(callOpts, grpc.MaxCallSendMsgSize(cfg.MaxCallSendMsgSize))
	}
	if cfg.MaxCallRecvMsgSize > 0 {
		callOpts = append(callOpts, grpc.MaxCallRecvMsgSize(cfg.MaxCallRecvMsgSize))
	}
	if len(callOpts) > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(callOpts...))
	}

	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(connectTimeout)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, cfg.Endpoint, opts...)
	if err != nil {
		return nil, &ConnectionError{Endpoint: cfg.Endpoint, Err: err}
	}
	return conn, nil
}
