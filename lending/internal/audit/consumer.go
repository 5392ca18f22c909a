package audit

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-lending/lending/internal/model"
)

// Consumer moves audit events from kafka into a sink.
type Consumer struct {
	sink Sink
	log  *zap.Logger
}

func NewConsumer(sink Sink, log *zap.Logger) *Consumer {
	return &Consumer{
		sink: sink,
		log:  log.Named("audit_consumer"),
	}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				c.log.Warn("message channel was closed")
				return nil
			}
			var event model.AuditEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				c.log.Error("decode audit event", zap.Error(err), zap.Int64("offset", message.Offset))
				session.MarkMessage(message, "")
				continue
			}
			// unmarked messages are redelivered after the next rebalance
			if err := c.sink.Write(session.Context(), event); err != nil {
				c.log.Error("persist audit event", zap.Error(err), zap.String("id", event.ID))
				continue
			}
			c.log.Debug("audit event stored", zap.String("id", event.ID), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
