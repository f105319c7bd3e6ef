package utils

import (
	"fmt"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consume declares queue and starts an auto-acknowledged consumer on it.
func Consume(channel *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := channel.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	msgs, err := channel.Consume(queue, "", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume queue %s: %w", queue, err)
	}
	return msgs, nil
}

// LogResult logs the outcome of one feed message at the level its status
// calls for.
func LogResult(logger *zap.SugaredLogger, res types.Result, keysAndValues ...any) {
	if res.Err != nil {
		keysAndValues = append(keysAndValues, "error", res.Err)
	}
	switch res.Status {
	case types.StatusOk:
		logger.Debugw(res.Message, keysAndValues...)
	case types.StatusWarning:
		logger.Warnw(res.Message, keysAndValues...)
	default:
		logger.Errorw(res.Message, keysAndValues...)
	}
}
