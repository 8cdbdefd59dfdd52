// Package events публикует доменные события сервиса в Kafka.
//
// События публикуются после коммита транзакции: бухгалтерский коллаборатор
// обрабатывает их идемпотентно, поэтому семантика at-least-once достаточна.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingConfirmedEvent публикуется при переходе бронирования в confirmed
type BookingConfirmedEvent struct {
	BookingID     int64     `json:"booking_id"`
	ReferenceCode string    `json:"reference_code"`
	UserID        int64     `json:"user_id"`
	ServiceID     int64     `json:"service_id"`
	Amount        float64   `json:"amount"`
	PlatformFee   float64   `json:"platform_fee"`
	OnlineAmount  float64   `json:"online_amount"`
	VenueAmount   float64   `json:"venue_amount"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// RefundIssuedEvent публикуется при создании записи о возврате
type RefundIssuedEvent struct {
	BookingID     int64     `json:"booking_id"`
	ReferenceCode string    `json:"reference_code"`
	UserID        int64     `json:"user_id"`
	RefundPercent int       `json:"refund_percent"`
	RefundAmount  float64   `json:"refund_amount"`
	IssuedAt      time.Time `json:"issued_at"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Producer публикует события в Kafka
type Producer struct {
	writer                *kafka.Writer
	bookingConfirmedTopic string
	refundIssuedTopic     string
	log                   Logger
}

// NewProducer создает продюсер событий
func NewProducer(brokers []string, bookingConfirmedTopic, refundIssuedTopic string, log Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer:                writer,
		bookingConfirmedTopic: bookingConfirmedTopic,
		refundIssuedTopic:     refundIssuedTopic,
		log:                   log,
	}
}

// PublishBookingConfirmed публикует событие подтверждения бронирования
func (p *Producer) PublishBookingConfirmed(ctx context.Context, ev BookingConfirmedEvent) error {
	return p.publish(ctx, p.bookingConfirmedTopic, ev.ReferenceCode, ev)
}

// PublishRefundIssued публикует событие выдачи возврата
func (p *Producer) PublishRefundIssued(ctx context.Context, ev RefundIssuedEvent) error {
	return p.publish(ctx, p.refundIssuedTopic, ev.ReferenceCode, ev)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload for topic %s: %w", topic, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("events: write message to topic %s: %w", topic, err)
	}

	p.log.Info("events: published %s key=%s", topic, key)
	return nil
}

// Close закрывает продюсер
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopProducer заглушка для окружений с выключенной Kafka
type NopProducer struct {
	log Logger
}

// NewNopProducer создает продюсер-заглушку
func NewNopProducer(log Logger) *NopProducer {
	return &NopProducer{log: log}
}

// PublishBookingConfirmed логирует событие вместо публикации
func (p *NopProducer) PublishBookingConfirmed(_ context.Context, ev BookingConfirmedEvent) error {
	p.log.Info("events: kafka disabled, skipping booking-confirmed for %s", ev.ReferenceCode)
	return nil
}

// PublishRefundIssued логирует событие вместо публикации
func (p *NopProducer) PublishRefundIssued(_ context.Context, ev RefundIssuedEvent) error {
	p.log.Info("events: kafka disabled, skipping refund-issued for %s", ev.ReferenceCode)
	return nil
}
