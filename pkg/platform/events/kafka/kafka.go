// Package kafka publishes ledger events to a Kafka topic. Kafka is the
// durable audit trail; downstream consumers (compliance reporting, SIEM)
// subscribe to the topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"veriledger/pkg/domain"
	events "veriledger/pkg/platform/events"
)

// Sink implements events.Store by producing records to a Kafka topic.
// Records are keyed by wallet so per-wallet ordering is preserved within a
// partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// payload is the JSON structure written to the topic. Field names are part of
// the consumer contract.
type payload struct {
	ID            string `json:"id"`
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
	Wallet        string `json:"wallet,omitempty"`
	CounterWallet string `json:"counter_wallet,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
	Amount        uint64 `json:"amount,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// NewSink connects to the given brokers and returns a sink for topic.
func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// Append produces the event synchronously. The caller (the async publisher)
// already decouples this from the mutation path.
func (s *Sink) Append(ctx context.Context, event events.Event) error {
	value, err := json.Marshal(payload{
		ID:            event.ID,
		Action:        string(event.Action),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Wallet:        event.Wallet.String(),
		CounterWallet: event.CounterWallet.String(),
		ActorID:       event.ActorID.String(),
		Amount:        event.Amount,
		Reason:        event.Reason,
		RequestID:     event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Wallet),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// ListByWallet is not supported by the Kafka sink; the topic is write-only
// from the service's perspective.
func (s *Sink) ListByWallet(ctx context.Context, wallet domain.WalletID) ([]events.Event, error) {
	return nil, fmt.Errorf("kafka sink does not support reads")
}

// Close flushes buffered records and closes the client.
func (s *Sink) Close() {
	_ = s.client.Flush(context.Background())
	s.client.Close()
}
