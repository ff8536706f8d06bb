package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

const OrderCreatedTopic = "order.created"

// OrderCreatedEvent is the wire form of a committed order on the feed.
// It carries the projection fields the notification view needs plus the
// full order for consumers that want it.
type OrderCreatedEvent struct {
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	TotalCents   int64     `json:"total_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	EventTime    time.Time `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{producer: producer, logger: logger}, nil
}

// PublishOrderCreated emits the event for a freshly committed order.
func (p *KafkaProducer) PublishOrderCreated(o *domain.Order) error {
	event := OrderCreatedEvent{
		OrderID:      o.ID,
		CustomerName: o.Customer.Name,
		TotalCents:   o.TotalCents,
		Status:       o.Status,
		CreatedAt:    o.CreatedAt,
		EventTime:    time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: OrderCreatedTopic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		p.logger.WithError(err).Error("failed to send order.created")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     OrderCreatedTopic,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
	}).Info("order.created published")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
