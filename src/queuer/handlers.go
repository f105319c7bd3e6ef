package main

import (
	"context"
	"encoding/json"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"github.com/jack-barr3tt/gbr-tsdb/src/queuer/listener"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	queueTrust = "trust"
	queueTDC   = "tdc"
	queueTDS   = "tds"
	queueVSTP  = "vstp"
)

func publish(ctx context.Context, pub listener.Publisher, queue string, message any) {
	body, err := json.Marshal(message)
	if err != nil {
		utils.GetLogger().Warnw("error marshalling message", "queue", queue, "error", err)
		return
	}
	err = pub.PublishWithContext(ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		utils.GetLogger().Warnw("error publishing message to RabbitMQ", "queue", queue, "error", err)
	} else {
		utils.GetLogger().Debugw("Published message to RabbitMQ", "queue", queue)
	}
}

// HandleTrust fans a batch of train movements out one message per delivery.
func HandleTrust(ctx context.Context, pub listener.Publisher, data string) {
	messages, err := utils.UnmarshalTrustMessages(data)
	if err != nil {
		utils.GetLogger().Warnw("error unmarshalling TRUST message", "error", err)
		return
	}

	for _, message := range messages {
		publish(ctx, pub, queueTrust, message)
	}
}

func HandleTD(ctx context.Context, pub listener.Publisher, data string) {
	tdcMessages, tdsMessages, err := utils.UnmarshalTDMessages(data)
	if err != nil {
		utils.GetLogger().Warnw("error unmarshalling TD message", "error", err)
		return
	}

	for _, message := range tdcMessages {
		publish(ctx, pub, queueTDC, message)
	}
	for _, message := range tdsMessages {
		publish(ctx, pub, queueTDS, message)
	}
}

func HandleVSTP(ctx context.Context, pub listener.Publisher, data string) {
	message, err := utils.UnmarshalVSTP(data)
	if err != nil {
		utils.GetLogger().Warnw("error unmarshalling VSTP message", "error", err)
		return
	}
	publish(ctx, pub, queueVSTP, message)
}
