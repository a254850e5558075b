package message

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openeeap/replytune/internal/platform/training"
)

// ContentTypeJSON 事件消息体类型
const ContentTypeJSON = "application/json"

// Envelope 待发布的消息
type Envelope struct {
	Topic       string            // 主题名称
	Key         []byte            // 分区键
	Value       []byte            // 消息体
	Headers     map[string]string // 消息头
	PublishedAt time.Time         // 发布时间
}

// Producer 单条消息同步发布接口
type Producer interface {
	// Send 发送消息，返回分区与偏移量
	Send(ctx context.Context, env *Envelope) (partition int32, offset int64, err error)

	// Close 关闭生产者
	Close() error
}

// NewEventEnvelope 将训练进度事件编码为消息，同一运行的事件使用相同分区键以保证顺序
func NewEventEnvelope(topic string, event *training.ProgressEvent) (*Envelope, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Topic: topic,
		Key:   []byte(event.RunID),
		Value: body,
		Headers: map[string]string{
			"content-type": ContentTypeJSON,
			"event-type":   string(event.Type),
		},
		PublishedAt: event.Timestamp,
	}, nil
}

// DecodeEvent 解码进度事件
func DecodeEvent(value []byte) (*training.ProgressEvent, error) {
	var event training.ProgressEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

//Personal.AI order the ending
