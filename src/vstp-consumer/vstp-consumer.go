package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/amendment"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("vstp-consumer")
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

	conn, channel, err := utils.NewRabbitConnection(ctx, cfg.MQ)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	closers.Add(conn)
	closers.Add(channel)

	injector := amendment.NewInjector(data.NewDataClient(db, logger.Named("data")), logger.Named("injector"))

	msgs, err := utils.Consume(channel, "vstp")
	if err != nil {
		logger.Fatalw("failed to consume", "error", err)
	}

	logger.Info("Processing VSTP schedule messages")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Warn("RabbitMQ delivery channel closed")
				return
			}
			vstp, err := utils.UnmarshalVSTP(string(msg.Body))
			if err != nil {
				logger.Warnw("Bad JSON", "error", err)
				continue
			}
			res := injector.ApplyJSON(ctx, *vstp)
			utils.LogResult(logger, res, "train_uid", vstp.VSTPCIFMsgV1.Schedule.TrainUID)
		}
	}
}
