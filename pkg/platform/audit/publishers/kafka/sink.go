// Package kafka delivers outbox events to a Kafka topic with franz-go.
//
// Records are keyed by "<category>:<name>" (or the category alone for events
// without a name) so one name's lifecycle stays ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "namereg/pkg/platform/audit"
)

// Message is the JSON value of every record.
type Message struct {
	ID           string     `json:"id"`
	Action       string     `json:"action"`
	Category     string     `json:"category"`
	Timestamp    time.Time  `json:"timestamp"`
	Name         string     `json:"name,omitempty"`
	Account      string     `json:"account,omitempty"`
	Counterparty string     `json:"counterparty,omitempty"`
	Commitment   string     `json:"commitment,omitempty"`
	Amount       uint64     `json:"amount,omitempty"`
	Expiration   *time.Time `json:"expiration,omitempty"`
	RequestID    string     `json:"request_id,omitempty"`
}

// NewMessage projects an event onto its wire form. Zero accounts and hashes are omitted.
func NewMessage(e audit.Event) Message {
	m := Message{
		ID:        e.ID.String(),
		Action:    e.Action,
		Category:  string(e.Category()),
		Timestamp: e.Timestamp.UTC(),
		Name:      e.Name,
		Amount:    e.Amount,
		RequestID: e.RequestID,
	}
	if !e.Account.IsZero() {
		m.Account = e.Account.String()
	}
	if !e.Counterparty.IsZero() {
		m.Counterparty = e.Counterparty.String()
	}
	if !e.Commitment.IsZero() {
		m.Commitment = e.Commitment.String()
	}
	if !e.Expiration.IsZero() {
		exp := e.Expiration.UTC()
		m.Expiration = &exp
	}
	return m
}

// RecordKey returns the partitioning key for e.
func RecordKey(e audit.Event) []byte {
	if e.Name == "" {
		return []byte(e.Category())
	}
	return []byte(string(e.Category()) + ":" + e.Name)
}

// Producer is the subset of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// NewClient builds a franz-go client that waits for all in-sync replicas and
// produces to topic by default.
func NewClient(brokers []string, topic string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchMaxBytes(1 << 20),
		kgo.ClientID("namereg-relay"),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return client, nil
}

// Publish produces every event and waits for acknowledgement of all of them.
func (s *Sink) Publish(ctx context.Context, events []audit.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(NewMessage(e))
		if err != nil {
			return fmt.Errorf("kafka: encode event %s: %w", e.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   RecordKey(e),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "action", Value: []byte(e.Action)},
				{Key: "category", Value: []byte(e.Category())},
			},
		})
	}
	if err := s.producer.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce: %w", err)
	}
	return nil
}
