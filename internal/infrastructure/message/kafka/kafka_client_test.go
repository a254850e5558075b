package kafka

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openeeap/replytune/internal/infrastructure/message"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/pkg/errors"
)

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func TestEventPublisher_Publish(t *testing.T) {
	mock := newMockProducer(t)
	event := &training.ProgressEvent{
		Type:      training.EventEpochCompleted,
		RunID:     "run-1",
		Epoch:     2,
		Epochs:    3,
		AvgReward: 0.42,
		Status:    training.RunStatusRunning,
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		decoded, err := message.DecodeEvent(val)
		if err != nil {
			return err
		}
		if decoded.RunID != "run-1" || decoded.Epoch != 2 || decoded.Type != training.EventEpochCompleted {
			return stderrors.New("unexpected event payload")
		}
		return nil
	})

	publisher := NewEventPublisher(NewProducerFrom(mock), "replytune.training", logging.NewNoopLogger())
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.NoError(t, publisher.Close())
}

func TestEventPublisher_SendFailure(t *testing.T) {
	mock := newMockProducer(t)
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewEventPublisher(NewProducerFrom(mock), "replytune.training", logging.NewNoopLogger())
	err := publisher.Publish(context.Background(), &training.ProgressEvent{Type: training.EventRunStarted, RunID: "run-2"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMQPublishFailed.Code))
	require.NoError(t, publisher.Close())
}

func TestProducer_SendAfterClose(t *testing.T) {
	producer := NewProducerFrom(newMockProducer(t))
	require.NoError(t, producer.Close())
	require.NoError(t, producer.Close())

	_, _, err := producer.Send(context.Background(), &message.Envelope{Topic: "t"})
	assert.True(t, errors.Is(err, errors.ErrMQPublishFailed.Code))
}

func TestProducer_CancelledContext(t *testing.T) {
	mock := newMockProducer(t)
	producer := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := producer.Send(ctx, &message.Envelope{Topic: "t"})
	assert.True(t, errors.Is(err, errors.ErrMQPublishFailed.Code))
	require.NoError(t, producer.Close())
}

func TestNewEventEnvelope(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env, err := message.NewEventEnvelope("topic", &training.ProgressEvent{Type: training.EventRunFinished, RunID: "abc", Timestamp: ts})
	require.NoError(t, err)

	assert.Equal(t, "topic", env.Topic)
	assert.Equal(t, []byte("abc"), env.Key)
	assert.Equal(t, "run_finished", env.Headers["event-type"])
	assert.Equal(t, ts, env.PublishedAt)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name    string
		want    sarama.CompressionCodec
		wantErr bool
	}{
		{"", sarama.CompressionNone, false},
		{"none", sarama.CompressionNone, false},
		{"GZIP", sarama.CompressionGZIP, false},
		{"snappy", sarama.CompressionSnappy, false},
		{"lz4", sarama.CompressionLZ4, false},
		{"zstd", sarama.CompressionZSTD, false},
		{"brotli", sarama.CompressionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCompression(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := &KafkaConfig{Brokers: []string{"localhost:9092"}, ClientID: "replytune", RequiredAcks: -1, Compression: "gzip"}
	sc, err := newSaramaConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionGZIP, sc.Producer.Compression)
	assert.True(t, sc.Producer.Return.Successes)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	_, err = NewProducer(&KafkaConfig{})
	assert.True(t, errors.Is(err, errors.ErrSysConfigurationError.Code))
}

//Personal.AI order the ending
