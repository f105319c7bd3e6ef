package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/decode"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/engine"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// handleDelivery applies one message from the tdc or tds queue.
func handleDelivery(ctx context.Context, e *engine.Engine, logger *zap.SugaredLogger, queue string, body []byte) {
	var c *types.TDCMsgBody
	var s *types.TDSMsgBody
	var err error
	if queue == "tdc" {
		c = &types.TDCMsgBody{}
		err = json.Unmarshal(body, c)
	} else {
		s = &types.TDSMsgBody{}
		err = json.Unmarshal(body, s)
	}
	if err != nil {
		logger.Warnw("Bad JSON", "queue", queue, "error", err)
		return
	}

	f, err := decode.TDJSON(c, s)
	if err != nil {
		logger.Warnw("Failed to decode TD message", "queue", queue, "error", err)
		return
	}
	utils.LogResult(logger, e.ProcessTDFields(ctx, f), "area", f.String("td_identity"))
}

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("td-consumer")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("failed to load config", "error", err)
	}

	var closers utils.Closers
	defer func() {
		if err := closers.Close(); err != nil {
			logger.Warnw("error closing connections", "error", err)
		}
	}()

	db, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalw("failed to connect to Postgres", "error", err)
	}
	closers.AddFunc(db.Close)

	rdb, err := utils.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalw("failed to connect to Redis", "error", err)
	}
	closers.Add(rdb)

	conn, channel, err := utils.NewRabbitConnection(ctx, cfg.MQ)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	closers.Add(conn)
	closers.Add(channel)

	e := engine.New(data.NewDataClient(db, logger.Named("data")), logger.Named("engine"),
		engine.WithBerthMap(engine.NewBerthMap(rdb)),
	)

	tdc, err := utils.Consume(channel, "tdc")
	if err != nil {
		logger.Fatalw("failed to consume", "error", err)
	}
	tds, err := utils.Consume(channel, "tds")
	if err != nil {
		logger.Fatalw("failed to consume", "error", err)
	}

	logger.Info("Tracking berth steps via TD feed")

	var msg amqp.Delivery
	var ok bool
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok = <-tdc:
		case msg, ok = <-tds:
		}
		if !ok {
			logger.Warn("RabbitMQ delivery channel closed")
			return
		}
		handleDelivery(ctx, e, logger, msg.RoutingKey, msg.Body)
	}
}
