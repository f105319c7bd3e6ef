package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"github.com/jack-barr3tt/gbr-tsdb/src/queuer/listener"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sourcegraph/conc"
)

type route struct {
	topic   string
	queues  []string
	handler listener.Handler
}

var routes = []route{
	{"TRAIN_MVT_ALL_TOC", []string{queueTrust}, HandleTrust},
	{"TD_ALL_SIG_AREA", []string{queueTDC, queueTDS}, HandleTD},
	{"VSTP_ALL", []string{queueVSTP}, HandleVSTP},
}

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("queuer")
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

	mqConn, err := utils.NewRabbitConnectionOnly(ctx, cfg.MQ)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	closers.Add(mqConn)

	closeChan := mqConn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		select {
		case err := <-closeChan:
			if err != nil {
				logger.Warnw("RabbitMQ connection closed", "error", err)
			}
			stop()
		case <-ctx.Done():
		}
	}()

	stompConn, err := utils.NewNRStompConnection(ctx, cfg.Feeds)
	if err != nil {
		logger.Fatalw("failed to connect to NR stomp", "error", err)
	}
	closers.Add(utils.CloserFunc(stompConn.Disconnect))

	var wg conc.WaitGroup
	for _, r := range routes {
		// one channel per listener, channels are not safe for concurrent publishing
		channel, err := mqConn.Channel()
		if err != nil {
			logger.Fatalw("failed to create channel", "topic", r.topic, "error", err)
		}
		closers.Add(channel)

		l := listener.NewListener(channel, stompConn, r.topic, r.handler, logger)
		for _, q := range r.queues {
			if err := l.DeclareQueue(q); err != nil {
				logger.Fatalw("failed to declare queue", "queue", q, "error", err)
			}
		}

		wg.Go(func() {
			if err := l.Start(ctx); err != nil {
				logger.Errorw("listener stopped", "topic", r.topic, "error", err)
			}
		})
	}

	<-ctx.Done()
	stop()
	wg.Wait()
}
