package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/engine"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/resolver"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type APIServer struct {
	Store    data.Store
	Tiplocs  data.TiplocLookup
	Resolver *resolver.Resolver
	Berths   *engine.BerthMap
	Redis    *redis.Client
	Logger   *zap.SugaredLogger
}

// NewServer serves timetable lookups from store. TIPLOC lookups go through
// tiplocs, which may be a cache in front of the store.
func NewServer(store data.Store, tiplocs data.TiplocLookup, rdb *redis.Client, logger *zap.SugaredLogger) *APIServer {
	return &APIServer{
		Store:    store,
		Tiplocs:  tiplocs,
		Resolver: resolver.New(store),
		Berths:   engine.NewBerthMap(rdb),
		Redis:    rdb,
		Logger:   logger,
	}
}

func RegisterHandlers(app *fiber.App, s *APIServer) {
	app.Get("/health", s.GetHealth)
	app.Get("/berths/:area", s.GetBerths)

	app.Get("/schedules/:uid/:date", s.Maintenance, s.GetSchedule)
	app.Get("/window", s.Maintenance, s.GetWindow)
	app.Get("/daily/:uid/:date", s.Maintenance, s.GetDailySchedule)
}
