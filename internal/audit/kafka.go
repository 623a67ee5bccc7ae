package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const DefaultTopic = "membership.registration.lifecycle"

// KafkaStore publishes events as JSON records keyed by session id, so one
// session's events stay ordered within a partition.
type KafkaStore struct {
	client  *kgo.Client
	timeout time.Duration
}

// NewKafkaStore connects a producer to brokers writing to topic.
func NewKafkaStore(brokers []string, topic string) (*KafkaStore, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaStore{client: client, timeout: 5 * time.Second}, nil
}

func (k *KafkaStore) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	record := &kgo.Record{
		Key:   []byte(event.SessionID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Ping checks that at least one broker answers.
func (k *KafkaStore) Ping(ctx context.Context) error {
	return k.client.Ping(ctx)
}

func (k *KafkaStore) Close() {
	k.client.Close()
}
