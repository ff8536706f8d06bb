package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/service/notification"
)

// KafkaFeed adapts a sarama consumer group to the notification Feed
// abstraction: each Subscribe call yields a cancellable handle streaming
// order.created events.
type KafkaFeed struct {
	brokers string
	groupID string
	logger  *logrus.Logger
}

func NewKafkaFeed(brokers, groupID string, logger *logrus.Logger) *KafkaFeed {
	return &KafkaFeed{brokers: brokers, groupID: groupID, logger: logger}
}

func (f *KafkaFeed) Subscribe(ctx context.Context) (notification.Handle, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Version = sarama.V2_6_0_0

	group, err := sarama.NewConsumerGroup(strings.Split(f.brokers, ","), f.groupID, config)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	h := &kafkaHandle{
		events: make(chan notification.OrderEvent, 64),
		cancel: cancel,
		group:  group,
	}

	go func() {
		defer close(h.events)
		defer group.Close()

		handler := &groupHandler{events: h.events, logger: f.logger}
		for {
			if err := group.Consume(subCtx, []string{OrderCreatedTopic}, handler); err != nil {
				if subCtx.Err() == nil {
					h.setErr(err)
					f.logger.WithError(err).Error("order feed consume failed")
				}
				return
			}
			if subCtx.Err() != nil {
				return
			}
		}
	}()

	return h, nil
}

type kafkaHandle struct {
	events chan notification.OrderEvent
	cancel context.CancelFunc
	group  sarama.ConsumerGroup

	mu  sync.Mutex
	err error
}

func (h *kafkaHandle) Events() <-chan notification.OrderEvent { return h.events }

func (h *kafkaHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *kafkaHandle) Cancel() { h.cancel() }

func (h *kafkaHandle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

type groupHandler struct {
	events chan<- notification.OrderEvent
	logger *logrus.Logger
}

func (g *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (g *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (g *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			var event OrderCreatedEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				g.logger.WithError(err).Error("failed to unmarshal order.created")
				session.MarkMessage(message, "")
				continue
			}

			g.events <- notification.OrderEvent{Order: domain.Order{
				ID:         event.OrderID,
				Customer:   domain.Customer{Name: event.CustomerName},
				TotalCents: event.TotalCents,
				Status:     event.Status,
				CreatedAt:  event.CreatedAt,
			}}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}
