// Package events publishes advisory purchase events. Publishing never gates
// a ledger write; a lost event costs analytics, not an entitlement.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type PurchaseRecorded struct {
	PaymentID   string    `json:"payment_id"`
	BuyerID     string    `json:"buyer_id"`
	ItemID      string    `json:"item_id"`
	ItemType    string    `json:"item_type"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	RecordedAt  time.Time `json:"recorded_at"`
}

type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher builds a kafka publisher from a comma-separated broker list.
// An empty list yields a disabled publisher; callers check Enabled.
func NewPublisher(brokersCSV, topic string, log *slog.Logger) *Publisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 || topic == "" {
		return &Publisher{log: log}
	}
	return &Publisher{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

func (p *Publisher) PublishPurchaseRecorded(ctx context.Context, ev PurchaseRecorded) error {
	if !p.Enabled() {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.BuyerID),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
