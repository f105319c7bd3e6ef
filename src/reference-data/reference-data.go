package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"go.uber.org/zap"
)

const tocListPath = "/LDBSVWS/api/ref/20211101/GetTOCList/1"

type operatorStore interface {
	ReplaceOperators(ctx context.Context, ops []types.Operator) error
}

type refresher struct {
	cfg    config.ReferenceConfig
	client *http.Client
	store  operatorStore
	logger *zap.SugaredLogger
}

func (r *refresher) fetchTOCs(ctx context.Context) ([]types.Operator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(r.cfg.URL, "/")+tocListPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-apikey", r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("reference API returned %s", resp.Status)
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var ref types.TOCReference
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, fmt.Errorf("failed to decode TOC list: %w", err)
	}

	ops := make([]types.Operator, 0, len(ref.TOCList))
	for _, toc := range ref.TOCList {
		code, name := strings.TrimSpace(toc.TOC), strings.TrimSpace(toc.Value)
		if code == "" || name == "" {
			continue
		}
		ops = append(ops, types.Operator{Code: code, Name: name})
	}
	return ops, nil
}

// refresh replaces the operator list, retrying transient failures.
func (r *refresher) refresh(ctx context.Context) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	ops, err := backoff.RetryNotifyWithData(func() ([]types.Operator, error) {
		return r.fetchTOCs(ctx)
	}, b, func(err error, d time.Duration) {
		r.logger.Warnw("TOC list fetch failed, retrying", "backoff", d, "error", err)
	})
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return fmt.Errorf("reference API returned no operators")
	}
	if err := r.store.ReplaceOperators(ctx, ops); err != nil {
		return err
	}
	r.logger.Infow("TOC reference data updated", "operators", len(ops))
	return nil
}

func (r *refresher) run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.refresh(ctx); err != nil && ctx.Err() == nil {
			r.logger.Errorw("Error updating TOC reference data", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func main() {
	utils.InitLogger()
	defer utils.SyncLogger()
	logger := utils.GetLogger().Named("reference-data")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("failed to load config", "error", err)
	}
	if cfg.Reference.URL == "" {
		logger.Fatal("NR_REFERENCE_API must be set")
	}

	pg, err := utils.NewPostgresConnection(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer pg.Close()

	store := data.NewDataClient(pg, logger.Named("data"))
	if err := store.Migrate(ctx); err != nil {
		logger.Fatalw("failed to migrate schema", "error", err)
	}

	r := &refresher{
		cfg:    cfg.Reference,
		client: &http.Client{Timeout: 30 * time.Second},
		store:  store,
		logger: logger,
	}
	r.run(ctx)
}
