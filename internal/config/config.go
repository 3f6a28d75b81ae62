package config

import (
	"pump-monitor-sol/pkg/logger"
)

// LogConfig 日志配置
type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径），为空只打 stdout
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// GrpcConfig gRPC 客户端连接相关配置
type GrpcConfig struct {
	Endpoint string `yaml:"endpoint"`  // Geyser gRPC 服务端地址
	AuthType string `yaml:"auth_type"` // 认证方式："x-token" 或 "basic"
	Token    string `yaml:"token"`     // 认证凭证（x-token 值，或 Basic 授权串）

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int  `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int  `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）
	KeepalivePermitNoStream  bool `yaml:"keepalive_permit_no_stream"`  // 无活跃调用时是否允许 ping
	MinPingSpacingSec        int  `yaml:"min_ping_spacing_sec"`        // ping 之间的最小间隔（秒），用于收紧应用层心跳下限

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
	InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

	// 超时配置
	ConnectTimeoutSec int `yaml:"connect_timeout_sec"` // 连接建立超时（秒）
	SendTimeoutSec    int `yaml:"send_timeout_sec"`    // 发送超时（秒）
}

// SubscriptionConfig 订阅过滤配置
type SubscriptionConfig struct {
	FilterName    string   `yaml:"filter_name"`    // 交易过滤器名称（推送回来的 filters 字段会带上）
	Programs      []string `yaml:"programs"`       // account_include 的 program 地址列表，空则用内置 Pump.fun 地址
	IncludeFailed bool     `yaml:"include_failed"` // 是否包含失败交易
	IncludeVote   bool     `yaml:"include_vote"`   // 是否包含投票交易
	Commitment    string   `yaml:"commitment"`     // processed / confirmed / finalized
	Resume        bool     `yaml:"resume"`         // 启动时是否从 Redis 进度断点续传（from_slot）

	// 可选：附加 BondingCurve 账户订阅（按 owner + 判别前缀过滤）
	WatchAccounts bool `yaml:"watch_accounts"`

	// 可选：附加 slot 订阅（用于进度记录与延迟监控）
	WatchSlots bool `yaml:"watch_slots"`
}

// KafkaSinkConfig Kafka 输出端配置
type KafkaSinkConfig struct {
	Brokers   string `yaml:"brokers"`    // broker 地址，多个用英文逗号分隔
	Topic     string `yaml:"topic"`      // 解码记录输出 topic
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）
}

// SinkConfig 记录输出端配置
type SinkConfig struct {
	Type  string          `yaml:"type"` // "console"（默认）或 "kafka"
	Kafka KafkaSinkConfig `yaml:"kafka"`
}

// ProgressConfig slot 进度存储配置（Redis），Addr 为空时关闭进度记录。
type ProgressConfig struct {
	RedisAddr string `yaml:"redis_addr"` // Redis 地址，例如 127.0.0.1:6379
	TTLHours  int    `yaml:"ttl_hours"`  // 进度 key 的 TTL（小时），<=0 时取默认 24
}

// LagCheckConfig slot 延迟巡检配置，Endpoint 为空时关闭巡检。
type LagCheckConfig struct {
	Endpoint         string `yaml:"endpoint"`           // Solana RPC 地址，用于查询链上最新 slot
	CheckIntervalSec int    `yaml:"check_interval_sec"` // 巡检间隔（秒）
	MaxLagSlots      uint64 `yaml:"max_lag_slots"`      // 超过该落后 slot 数则告警
}

// MonitorConfig 是主配置结构体，驱动整个监控服务。
type MonitorConfig struct {
	LogConf          LogConfig          `yaml:"logger"`       // 日志配置
	Grpc             GrpcConfig         `yaml:"grpc"`         // gRPC 连接配置
	SubscriptionConf SubscriptionConfig `yaml:"subscription"` // 订阅过滤配置
	SinkConf         SinkConfig         `yaml:"sink"`         // 记录输出配置
	ProgressConf     ProgressConfig     `yaml:"progress"`     // slot 进度配置
	LagCheckConf     LagCheckConfig     `yaml:"lag_check"`    // slot 延迟巡检配置
}
