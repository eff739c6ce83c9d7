package intake

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// RequestEvent — событие о новой заявке для сервиса уведомлений.
type RequestEvent struct {
	RequestID   uint      `json:"requestId"`
	Email       string    `json:"email"`
	PackageType string    `json:"packageType"`
	HasFile     bool      `json:"hasFile"`
	Timestamp   time.Time `json:"timestamp"`
}

type EventProducer interface {
	SendRequestEvent(ctx context.Context, event RequestEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) EventProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{
		writer: writer,
		topic:  topic,
	}
}

// SendRequestEvent отправляет событие заявки в Kafka.
func (p *kafkaProducer) SendRequestEvent(ctx context.Context, event RequestEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.RequestID), 10)),
		Value: eventJSON,
		Time:  time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

// Close закрывает соединение с Kafka.
func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
