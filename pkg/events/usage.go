package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const RuleAppliedType = "price_rule.applied"

// ErrPoisonMessage marks a message that can never be applied and should be
// skipped rather than retried.
var ErrPoisonMessage = errors.New("poison message")

// RuleApplied is published once for every rule that contributed to a quote.
type RuleApplied struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	RuleID     string    `json:"rule_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewRuleApplied(ruleID primitive.ObjectID, at time.Time) RuleApplied {
	return RuleApplied{
		EventID:    uuid.NewString(),
		Type:       RuleAppliedType,
		RuleID:     ruleID.Hex(),
		OccurredAt: at.UTC(),
	}
}

// DecodeRuleApplied parses a message value and returns the rule it refers to.
func DecodeRuleApplied(value []byte) (RuleApplied, primitive.ObjectID, error) {
	var ev RuleApplied
	if err := json.Unmarshal(value, &ev); err != nil {
		return ev, primitive.NilObjectID, fmt.Errorf("%w: %w", ErrPoisonMessage, err)
	}
	if ev.Type != RuleAppliedType {
		return ev, primitive.NilObjectID, fmt.Errorf("%w: unexpected event type %q", ErrPoisonMessage, ev.Type)
	}
	id, err := primitive.ObjectIDFromHex(ev.RuleID)
	if err != nil {
		return ev, primitive.NilObjectID, fmt.Errorf("%w: invalid rule id %q", ErrPoisonMessage, ev.RuleID)
	}
	return ev, id, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// UsagePublisher appends rule usage to a Kafka topic. Messages are keyed by
// rule id so one rule's events stay on one partition.
type UsagePublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewUsagePublisher(brokers []string, topic string) *UsagePublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &UsagePublisher{writer: w, now: time.Now}
}

func (p *UsagePublisher) RecordRuleUsage(ctx context.Context, ruleID primitive.ObjectID) error {
	b, err := json.Marshal(NewRuleApplied(ruleID, p.now()))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ruleID.Hex()), Value: b})
}

func (p *UsagePublisher) Name() string { return "kafka" }

func (p *UsagePublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
