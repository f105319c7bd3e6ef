package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
)

const extractURL = "https://publicdatafeeds.networkrail.co.uk/ntrod/CifFileAuthenticate?type=CIF_ALL_FULL_DAILY&day=toc-full"

// openExtract opens a local gzipped extract when path is set, otherwise
// downloads today's full extract.
func openExtract(ctx context.Context, path string, feeds config.FeedsConfig) (io.ReadCloser, error) {
	if path != "" {
		return os.Open(path)
	}
	if feeds.Username == "" || feeds.Password == "" {
		return nil, fmt.Errorf("NR_FEEDS_USERNAME and NR_FEEDS_PASSWORD must be set to download the extract")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, extractURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(feeds.Username, feeds.Password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download schedule data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return resp.Body, nil
}

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("schedule-initializer")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("failed to load config", "error", err)
	}

	var closers utils.Closers
	defer func() {
		if err := closers.Close(); err != nil {
			logger.Warnw("error closing", "error", err)
		}
	}()

	pg, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	closers.AddFunc(pg.Close)

	rdb, err := utils.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalw("failed to connect to Redis", "error", err)
	}
	closers.Add(rdb)

	store := data.NewDataClient(pg, logger.Named("data"))
	if err := store.Migrate(ctx); err != nil {
		logger.Fatalw("failed to migrate schema", "error", err)
	}

	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	raw, err := openExtract(ctx, path, cfg.Feeds)
	if err != nil {
		logger.Fatalw("failed to open schedule extract", "error", err)
	}
	closers.Add(raw)

	gz, err := gzip.NewReader(raw)
	if err != nil {
		logger.Fatalw("failed to create gzip reader", "error", err)
	}
	closers.Add(gz)

	// the public API answers 503 while schedules are half loaded
	if err := utils.SetMaintenanceMode(ctx, rdb, "Timetable reload in progress"); err != nil {
		logger.Warnw("failed to enter maintenance mode", "error", err)
	}
	defer func() {
		if err := utils.ClearMaintenanceMode(context.Background(), rdb); err != nil {
			logger.Warnw("failed to leave maintenance mode", "error", err)
		}
	}()

	logger.Info("Processing schedule data")
	c, err := load(ctx, gz, store, logger)
	if err != nil {
		logger.Errorw("schedule load stopped", "error", err)
	}
	logger.Infow("Schedule initialization completed",
		"processed", c.Processed,
		"tiplocs", c.Tiplocs,
		"schedules", c.Schedules,
		"deleted", c.Deleted,
		"skipped", c.Skipped,
	)
}
