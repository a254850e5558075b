package kafka

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/openeeap/replytune/internal/infrastructure/message"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/pkg/errors"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string      // Broker 地址列表
	ClientID     string        // 客户端ID
	Topic        string        // 训练事件主题
	RequiredAcks int16         // 需要的确认（-1, 0, 1）
	Compression  string        // 压缩（none, gzip, snappy, lz4, zstd）
	Timeout      time.Duration // 超时时间
	MaxRetries   int           // 最大重试次数
	RetryBackoff time.Duration // 重试退避时间
}

// Producer 基于 Sarama 同步生产者的消息发布
type Producer struct {
	producer sarama.SyncProducer
	mu       sync.Mutex
	closed   bool
}

// NewProducer 创建同步生产者
func NewProducer(config *KafkaConfig) (*Producer, error) {
	if config == nil {
		return nil, errors.NewFromCodef(errors.ErrSysConfigurationError, "kafka config cannot be nil")
	}
	if len(config.Brokers) == 0 {
		return nil, errors.NewFromCodef(errors.ErrSysConfigurationError, "kafka brokers cannot be empty")
	}

	saramaConfig, err := newSaramaConfig(config)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrMQPublishFailed)
	}
	return NewProducerFrom(producer), nil
}

// NewProducerFrom 使用已有的 Sarama 生产者
func NewProducerFrom(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

func newSaramaConfig(config *KafkaConfig) (*sarama.Config, error) {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 100 * time.Millisecond
	}

	codec, err := parseCompression(config.Compression)
	if err != nil {
		return nil, err
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = config.ClientID
	saramaConfig.Net.DialTimeout = config.Timeout
	saramaConfig.Net.ReadTimeout = config.Timeout
	saramaConfig.Net.WriteTimeout = config.Timeout

	saramaConfig.Producer.RequiredAcks = sarama.RequiredAcks(config.RequiredAcks)
	saramaConfig.Producer.Compression = codec
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Retry.Max = config.MaxRetries
	saramaConfig.Producer.Retry.Backoff = config.RetryBackoff
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	return saramaConfig, nil
}

func parseCompression(name string) (sarama.CompressionCodec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return sarama.CompressionNone, nil
	case "gzip":
		return sarama.CompressionGZIP, nil
	case "snappy":
		return sarama.CompressionSnappy, nil
	case "lz4":
		return sarama.CompressionLZ4, nil
	case "zstd":
		return sarama.CompressionZSTD, nil
	default:
		return sarama.CompressionNone, errors.NewFromCodef(errors.ErrSysConfigurationError, "unknown kafka compression "+name)
	}
}

// Send 发送消息
func (p *Producer) Send(ctx context.Context, env *message.Envelope) (int32, int64, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, 0, errors.NewFromCode(errors.ErrMQPublishFailed).WithDetails("reason", "producer closed")
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, errors.WrapFromCode(err, errors.ErrMQPublishFailed)
	}

	msg := &sarama.ProducerMessage{
		Topic: env.Topic,
		Key:   sarama.ByteEncoder(env.Key),
		Value: sarama.ByteEncoder(env.Value),
	}
	if !env.PublishedAt.IsZero() {
		msg.Timestamp = env.PublishedAt
	}
	if len(env.Headers) > 0 {
		headers := make([]sarama.RecordHeader, 0, len(env.Headers))
		for k, v := range env.Headers {
			headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
		}
		msg.Headers = headers
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return 0, 0, errors.WrapFromCode(err, errors.ErrMQPublishFailed)
	}
	return partition, offset, nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}

// EventPublisher 训练进度事件发布
type EventPublisher struct {
	producer message.Producer
	topic    string
	logger   logging.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(producer message.Producer, topic string, logger logging.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish 发布事件，以运行ID作为分区键
func (p *EventPublisher) Publish(ctx context.Context, event *training.ProgressEvent) error {
	env, err := message.NewEventEnvelope(p.topic, event)
	if err != nil {
		return errors.WrapFromCode(err, errors.ErrMQPublishFailed)
	}

	partition, offset, err := p.producer.Send(ctx, env)
	if err != nil {
		return err
	}

	p.logger.WithContext(ctx).Debug("progress event published",
		logging.String("type", string(event.Type)),
		logging.String("run_id", event.RunID),
		logging.Int("partition", int(partition)),
		logging.Int64("offset", offset),
	)
	return nil
}

// Close 关闭发布器
func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

var _ training.EventPublisher = (*EventPublisher)(nil)

//Personal.AI order the ending
