// Package listener bridges one Network Rail STOMP topic onto RabbitMQ.
package listener

import (
	"context"

	"github.com/go-stomp/stomp/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the part of an AMQP channel a handler publishes through.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Handler splits one STOMP frame into queue messages.
type Handler func(ctx context.Context, pub Publisher, data string)

type Listener struct {
	channel   *amqp.Channel
	stompConn *stomp.Conn
	topic     string
	handler   Handler
	logger    *zap.SugaredLogger
}

func NewListener(channel *amqp.Channel, stompConn *stomp.Conn, topic string, handler Handler, logger *zap.SugaredLogger) *Listener {
	return &Listener{
		channel:   channel,
		stompConn: stompConn,
		topic:     topic,
		handler:   handler,
		logger:    logger.With("topic", topic),
	}
}

func (l *Listener) DeclareQueue(name string) error {
	_, err := l.channel.QueueDeclare(
		name,
		false,
		false,
		false,
		false,
		nil,
	)
	return err
}

// Start forwards frames until ctx is done or the subscription closes.
func (l *Listener) Start(ctx context.Context) error {
	sub, err := l.stompConn.Subscribe("/topic/"+l.topic, stomp.AckAuto)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			l.logger.Debugw("Unsubscribe failed", "error", err)
		}
	}()
	l.logger.Info("Subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				l.logger.Warn("Subscription closed")
				return nil
			}
			if msg.Err != nil {
				l.logger.Warnw("STOMP frame error", "error", msg.Err)
				continue
			}

			l.handler(ctx, l.channel, string(msg.Body))
		}
	}
}
