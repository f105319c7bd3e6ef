package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"github.com/jack-barr3tt/gbr-tsdb/src/http-api/api"
)

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger().Named("http-api")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	var closers utils.Closers
	defer func() {
		if err := closers.Close(); err != nil {
			log.Warnw("error closing connections", "error", err)
		}
	}()

	db, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	closers.AddFunc(db.Close)

	rdb, err := utils.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}
	closers.Add(rdb)

	store := data.NewDataClient(db, log.Named("data"))
	server := api.NewServer(store, data.NewCachedTiplocs(store, rdb, cfg.TiplocTTL), rdb, log)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if path := c.Path(); path != "/health" {
			log.Infow("request", "method", c.Method(), "path", path, "status", c.Response().StatusCode())
		}
		return err
	})

	app.Use(cors.New())

	api.RegisterHandlers(app, server)

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Warnw("fiber shutdown failed", "error", err)
		}
	}()

	log.Infow("Listening", "addr", cfg.HTTP.Addr)
	if err := app.Listen(cfg.HTTP.Addr); err != nil {
		log.Fatalw("fiber listen failed", "error", err)
	}
}
