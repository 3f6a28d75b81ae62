package sink

import (
	"encoding/json"
	"fmt"

	"pump-monitor-sol/internal/config"
	"pump-monitor-sol/internal/logic/decoder"
	"pump-monitor-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
	flushTimeoutMs   = 5000
)

// recordMessage 是写入 Kafka 的记录载荷（JSON）。
type recordMessage struct {
	Schema   string            `json:"schema"`
	Slot     uint64            `json:"slot"`
	TxHash   string            `json:"tx_hash"`
	Fields   map[string]any    `json:"fields"`
	Accounts map[string]string `json:"accounts"`
}

// KafkaSink 把解码记录以 JSON 形式发往单个 topic，按 tx_hash 做 key
// 保证同笔交易的记录落在同一分区。非交易类推送不出站，只在 debug 级别记录。
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSink(cfg config.KafkaSinkConfig) (*KafkaSink, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs <= 0 {
		lingerMs = defaultLingerMs
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":        cfg.Brokers,
		"client.id":                "pump-monitor",
		"acks":                     "all",
		"batch.size":               batchSize,
		"linger.ms":                lingerMs,
		"allow.auto.create.topics": true,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	s := &KafkaSink{producer: producer, topic: cfg.Topic}
	go s.drainDeliveryEvents()
	return s, nil
}

// drainDeliveryEvents 消费投递回执，失败只记日志（监控链路不做重发）。
func (s *KafkaSink) drainDeliveryEvents() {
	for e := range s.producer.Events() {
		if msg, ok := e.(*kafka.Message); ok && msg.TopicPartition.Error != nil {
			logger.Errorf("[kafka] 投递失败: topic=%s, err=%v", s.topic, msg.TopicPartition.Error)
		}
	}
}

func (s *KafkaSink) OnRecord(rec *decoder.Record) {
	fields := make(map[string]any, len(rec.Fields))
	for _, f := range rec.Fields {
		fields[f.Name] = f.Value
	}
	payload, err := json.Marshal(recordMessage{
		Schema:   rec.Schema,
		Slot:     rec.Slot,
		TxHash:   rec.TxHash,
		Fields:   fields,
		Accounts: rec.Accounts,
	})
	if err != nil {
		logger.Errorf("[kafka] 记录序列化失败: schema=%s, err=%v", rec.Schema, err)
		return
	}

	err = s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &s.topic, Partition: kafka.PartitionAny},
		Key:            []byte(rec.TxHash),
		Value:          payload,
	}, nil)
	if err != nil {
		logger.Errorf("[kafka] 发送失败: schema=%s, tx=%s, err=%v", rec.Schema, rec.TxHash, err)
	}
}

func (s *KafkaSink) OnUpdate(update *pb.SubscribeUpdate) {
	logger.Debugf("[kafka] 忽略非交易推送: %T", update.GetUpdateOneof())
}

// Close 冲刷未完成的消息并关闭生产者。
func (s *KafkaSink) Close() {
	remaining := s.producer.Flush(flushTimeoutMs)
	if remaining > 0 {
		logger.Warnf("[kafka] 关闭时仍有 %d 条消息未完成投递", remaining)
	}
	s.producer.Close()
}
