package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/activation"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/engine"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("trust-consumer")
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

	store := data.NewDataClient(db, logger.Named("data"))
	e := engine.New(store, logger.Named("engine"),
		engine.WithTiplocs(data.NewCachedTiplocs(store, rdb, cfg.TiplocTTL)),
		engine.WithCache(activation.NewRedisCache(rdb, cfg.ActivationTTL)),
		engine.WithOperators(store),
	)

	warmed, err := e.Warm(ctx, time.Now().In(types.London))
	if err != nil {
		logger.Fatalw("failed to warm activation index", "error", err)
	}
	logger.Infow("Warmed activation index", "trains", warmed)

	msgs, err := utils.Consume(channel, "trust")
	if err != nil {
		logger.Fatalw("failed to consume", "error", err)
	}

	d := newDispatcher(cfg.Workers, func(ctx context.Context, msg types.TrustMessage) {
		res := e.ProcessTrustJSON(ctx, msg)
		utils.LogResult(logger, res, "msg_type", msg.Header.MsgType, "train_id", msg.Body.TrainID)
	})
	d.start(ctx)

	logger.Infow("Tracking trains via TRUST feed", "workers", cfg.Workers)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("RabbitMQ delivery channel closed")
				break loop
			}
			var trust types.TrustMessage
			if err := json.Unmarshal(msg.Body, &trust); err != nil {
				logger.Warnw("Bad JSON", "error", err)
				continue
			}
			d.dispatch(trust)
		}
	}

	d.stop()
}
