package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYaml = `
logger:
  format: console
  log_dir: logs
  level: info
  compress: true

grpc:
  endpoint: grpc.example.org:443
  auth_type: x-token
  token: secret
  stream_ping_interval_sec: 30
  keepalive_ping_interval_sec: 20
  keepalive_ping_timeout_sec: 10
  keepalive_permit_no_stream: true
  min_ping_spacing_sec: 10
  initial_window_size: 16777216
  initial_conn_window_size: 33554432
  max_call_recv_msg_size: 67108864
  connect_timeout_sec: 15
  send_timeout_sec: 10

subscription:
  filter_name: pump_filter
  programs:
    - 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P
  include_failed: false
  include_vote: false
  commitment: processed
  resume: true
  watch_accounts: true
  watch_slots: true

sink:
  type: kafka
  kafka:
    brokers: kafka-1:9092,kafka-2:9092
    topic: pump-events
    batch_size: 262144
    linger_ms: 50

progress:
  redis_addr: 127.0.0.1:6379
  ttl_hours: 48

lag_check:
  endpoint: https://api.mainnet-beta.solana.com
  check_interval_sec: 15
  max_lag_slots: 100
`

func TestUnmarshalMonitorConfig(t *testing.T) {
	var c MonitorConfig
	require.NoError(t, yaml.Unmarshal([]byte(sampleYaml), &c))

	assert.Equal(t, "grpc.example.org:443", c.Grpc.Endpoint)
	assert.Equal(t, "x-token", c.Grpc.AuthType)
	assert.Equal(t, 30, c.Grpc.StreamPingIntervalSec)
	assert.Equal(t, 10, c.Grpc.MinPingSpacingSec)
	assert.Equal(t, 16777216, c.Grpc.InitialWindowSize)
	assert.Equal(t, 67108864, c.Grpc.MaxCallRecvMsgSize)
	assert.True(t, c.Grpc.KeepalivePermitNoStream)

	assert.Equal(t, "pump_filter", c.SubscriptionConf.FilterName)
	assert.Equal(t, []string{"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"}, c.SubscriptionConf.Programs)
	assert.Equal(t, "processed", c.SubscriptionConf.Commitment)
	assert.True(t, c.SubscriptionConf.Resume)
	assert.True(t, c.SubscriptionConf.WatchAccounts)

	assert.Equal(t, "kafka", c.SinkConf.Type)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", c.SinkConf.Kafka.Brokers)
	assert.Equal(t, "pump-events", c.SinkConf.Kafka.Topic)

	assert.Equal(t, "127.0.0.1:6379", c.ProgressConf.RedisAddr)
	assert.Equal(t, 48, c.ProgressConf.TTLHours)
	assert.Equal(t, uint64(100), c.LagCheckConf.MaxLagSlots)
}

func TestToLogOption(t *testing.T) {
	c := LogConfig{Format: "json", LogDir: "/var/log/monitor", Level: "warn", Compress: true}
	opt := c.ToLogOption()
	assert.Equal(t, "json", opt.Format)
	assert.Equal(t, "/var/log/monitor", opt.LogDir)
	assert.Equal(t, "warn", opt.Level)
	assert.True(t, opt.Compress)
}
