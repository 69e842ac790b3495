package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"taxibot/internal/utils"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const TypeBookingCreated = "booking.created"

// BookingCreated is emitted after a booking transaction commits.
type BookingCreated struct {
	EventID    string    `json:"event_id"`
	BookingID  int64     `json:"booking_id"`
	UserID     int64     `json:"user_id"`
	TripID     int64     `json:"trip_id"`
	Direction  string    `json:"direction"`
	TripDate   string    `json:"trip_date"`
	FreeTrip   bool      `json:"free_trip"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishBookingCreated(ctx context.Context, e BookingCreated) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingCreated(context.Context, BookingCreated) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

var ErrPublisherClosed = errors.New("publisher is closed")

// KafkaPublisher writes events keyed by trip id so one trip's bookings stay
// ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			BatchTimeout: 50 * time.Millisecond,
			Logger:       kafka.LoggerFunc(func(string, ...any) {}),
			ErrorLogger:  kafka.LoggerFunc(log.Printf),
		},
	}, nil
}

func (p *KafkaPublisher) PublishBookingCreated(ctx context.Context, e BookingCreated) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	msg, err := bookingCreatedMessage(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func bookingCreatedMessage(e BookingCreated) (kafka.Message, error) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = utils.NowUTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", TypeBookingCreated, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(e.TripID, 10)),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeBookingCreated)},
			{Key: "event_id", Value: []byte(e.EventID)},
		},
	}, nil
}
