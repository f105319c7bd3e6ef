package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/engine"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func schedule(uid, identity string, stp types.STPIndicator, locs ...types.Location) *types.BasicSchedule {
	days, _ := types.ParseDaysRun("1111111")
	for i := range locs {
		locs[i].Seq = i + 1
	}
	return &types.BasicSchedule{
		TrainUID:      uid,
		STPIndicator:  stp,
		RunsFrom:      day("2024-01-01"),
		RunsTo:        day("2024-12-31"),
		DaysRun:       days,
		Status:        "P",
		Category:      "OO",
		TrainIdentity: identity,
		Source:        types.SourceBulkImport,
		Locations:     locs,
	}
}

func setup(t *testing.T) (*fiber.App, *data.MemoryStore, *redis.Client) {
	t.Helper()
	ctx := context.Background()
	store := data.NewMemoryStore()

	for _, tl := range []types.Tiploc{
		{TiplocCode: "EUSTON", Stanox: "72410", CRSCode: "EUS", Description: "LONDON EUSTON"},
		{TiplocCode: "WATFDJ", Stanox: "72237", CRSCode: "WFJ", Description: "WATFORD JUNCTION"},
	} {
		if err := store.InsertTiploc(ctx, tl); err != nil {
			t.Fatalf("InsertTiploc: %v", err)
		}
	}

	late := schedule("W10001", "2W01", types.Permanent,
		types.Location{TiplocCode: "EUSTON", Departure: "2350", PublicDeparture: "2350"},
		types.Location{TiplocCode: "WATFDJ", Arrival: "0010", PublicArrival: "0010"},
	)
	late.MarkNextDay()
	for _, bs := range []*types.BasicSchedule{
		late,
		schedule("W10002", "2W02", types.Permanent,
			types.Location{TiplocCode: "EUSTON", Departure: "1200"},
			types.Location{TiplocCode: "WATFDJ", Arrival: "1220"},
		),
		schedule("W10002", "2W92", types.Overlay,
			types.Location{TiplocCode: "EUSTON", Departure: "1205"},
			types.Location{TiplocCode: "WATFDJ", Arrival: "1225"},
		),
	} {
		if err := store.InsertSchedule(ctx, bs); err != nil {
			t.Fatalf("InsertSchedule: %v", err)
		}
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	RegisterHandlers(app, NewServer(store, store, rdb, zap.NewNop().Sugar()))
	return app, store, rdb
}

func get(t *testing.T, app *fiber.App, url string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("GET %s: decode %s: %v", url, body, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	app, _, _ := setup(t)
	var h HealthResponse
	if code := get(t, app, "/health", &h); code != http.StatusOK || h.Status != "healthy" {
		t.Errorf("health %d %+v", code, h)
	}
	if h.LatestScheduleDate == nil || h.LatestScheduleDate.Format("2006-01-02") != "2024-12-31" {
		t.Errorf("latest schedule date %v", h.LatestScheduleDate)
	}
}

func TestHealthEmptyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := data.NewMemoryStore()
	app := fiber.New()
	RegisterHandlers(app, NewServer(store, store, rdb, zap.NewNop().Sugar()))

	var h HealthResponse
	if code := get(t, app, "/health", &h); code != http.StatusOK || h.Status != "empty" || h.LatestScheduleDate != nil {
		t.Errorf("health %d %+v", code, h)
	}
}

func TestGetBerths(t *testing.T) {
	app, _, rdb := setup(t)
	ctx := context.Background()
	berths := engine.NewBerthMap(rdb)
	if err := berths.Step(ctx, "SK", "", "3647", "1F42"); err != nil {
		t.Fatal(err)
	}
	if err := berths.Step(ctx, "SK", "3647", "3649", "1F42"); err != nil {
		t.Fatal(err)
	}

	var b BerthsResponse
	if code := get(t, app, "/berths/sk", &b); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if b.Area != "SK" || len(b.Berths) != 1 || b.Berths["3649"] != "1F42" {
		t.Errorf("berths %+v", b)
	}

	if code := get(t, app, "/berths/SKX", nil); code != http.StatusBadRequest {
		t.Errorf("bad area status %d", code)
	}

	// berth data is unaffected by a bulk schedule load
	if err := utils.SetMaintenanceMode(ctx, rdb, "loading"); err != nil {
		t.Fatal(err)
	}
	if code := get(t, app, "/berths/SK", nil); code != http.StatusOK {
		t.Errorf("berths during maintenance %d", code)
	}
}

func TestGetSchedule(t *testing.T) {
	app, _, _ := setup(t)

	var svc ServiceResponse
	if code := get(t, app, "/schedules/w10002/2024-03-04", &svc); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if svc.SignallingId != "2W92" || svc.StpIndicator != "O" {
		t.Errorf("resolved %s %s, want the overlay", svc.SignallingId, svc.StpIndicator)
	}
	if svc.ScheduleStartDate.String() != "2024-01-01" {
		t.Errorf("start date %s", svc.ScheduleStartDate)
	}
	origin := svc.Locations[0]
	if origin.Location.Crs == nil || *origin.Location.Crs != "EUS" || *origin.Location.FullName != "LONDON EUSTON" {
		t.Errorf("origin %+v", origin.Location)
	}

	cases := []struct {
		url  string
		code int
	}{
		{"/schedules/W10002/2025-03-04", http.StatusNotFound},
		{"/schedules/W10002/04-03-2024", http.StatusBadRequest},
		{"/schedules/X99999/2024-03-04", http.StatusNotFound},
	}
	for _, tc := range cases {
		if code := get(t, app, tc.url, nil); code != tc.code {
			t.Errorf("GET %s: status %d, want %d", tc.url, code, tc.code)
		}
	}
}

func TestGetWindowOverMidnight(t *testing.T) {
	app, _, _ := setup(t)

	var w WindowResponse
	code := get(t, app, "/window?from=2024-03-04T23:50&to=2024-03-05T00:20&tiploc=watfdj", &w)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(w.Dates) != 1 || w.Dates[0].RunsOn.String() != "2024-03-04" {
		t.Fatalf("dates %+v", w.Dates)
	}
	if svcs := w.Dates[0].Services; len(svcs) != 1 || svcs[0].TrainUid != "W10001" {
		t.Errorf("services %+v", svcs)
	}

	for _, url := range []string{
		"/window?from=2024-03-05T00:20&to=2024-03-04T23:50",
		"/window?from=yesterday&to=2024-03-04T23:50",
		"/window?from=2024-03-04T23:50&to=2024-03-05T00:20&mode=stops",
	} {
		if code := get(t, app, url, nil); code != http.StatusBadRequest {
			t.Errorf("GET %s: status %d, want 400", url, code)
		}
	}
}

func TestGetDailySchedule(t *testing.T) {
	app, store, _ := setup(t)
	ctx := context.Background()

	schedules, _ := store.SchedulesByUID(ctx, "W10001")
	ds := types.NewDailySchedule(&schedules[0], day("2024-03-04"), "722W014M04")
	departed := time.Date(2024, 3, 4, 23, 51, 0, 0, types.London)
	ds.Locations[0].ActualDeparture = &departed
	ds.DepartedOrigin = true
	ds.LastLocation = 0
	if err := store.InsertDailySchedule(ctx, ds); err != nil {
		t.Fatalf("InsertDailySchedule: %v", err)
	}

	var resp DailyScheduleResponse
	if code := get(t, app, "/daily/W10001/2024-03-04", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.TrainIdentityUnique != "722W014M04" || !resp.DepartedOrigin {
		t.Errorf("daily %+v", resp)
	}
	if resp.LastLocation == nil || *resp.LastLocation != "EUSTON" {
		t.Errorf("last location %v", resp.LastLocation)
	}
	if got := resp.Locations[0].ActualDeparture; got == nil || *got != "2024-03-04T23:51:00Z" {
		t.Errorf("actual departure %v", got)
	}
	if !resp.Locations[1].NextDay {
		t.Error("Watford arrival not marked next day")
	}

	if code := get(t, app, "/daily/W10001/2024-03-05", nil); code != http.StatusNotFound {
		t.Errorf("unactivated run: status %d", code)
	}
}

func TestMaintenanceMode(t *testing.T) {
	app, _, rdb := setup(t)
	ctx := context.Background()

	if err := utils.SetMaintenanceMode(ctx, rdb, "Timetable reload in progress"); err != nil {
		t.Fatalf("SetMaintenanceMode: %v", err)
	}
	if code := get(t, app, "/schedules/W10002/2024-03-04", nil); code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want 503", code)
	}
	if code := get(t, app, "/health", nil); code != http.StatusOK {
		t.Errorf("health during maintenance: %d", code)
	}

	if err := utils.ClearMaintenanceMode(ctx, rdb); err != nil {
		t.Fatalf("ClearMaintenanceMode: %v", err)
	}
	if code := get(t, app, "/schedules/W10002/2024-03-04", nil); code != http.StatusOK {
		t.Errorf("status %d after clearing", code)
	}
}
