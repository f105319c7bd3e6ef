package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/activation"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	activateC43391  = "000120101212161531TRUST               TSIA                                722N53MW12201012121615317241020101212183400C433912016071100000020160711000000CP2N53M000007241020101212183400AN3022214000   "
	activateL95126  = "000120110720160618TRUST               TSIA                                522Y01MW20201107201606175222620110720180600L951262023051100000020091211000000CO2Y01M000005222620110720180600AN3022214000   "
	cancelL95126    = "000220110720181920TRUST               TRUST DA            #QHPA017LMWB    522Y01MW20201107201819005222620110720180600     00000000000000C522Y01MW2022214000M53030C   "
	reinstateL95126 = "000520110720182503TRUST               TRUST DA            #QHPA017LMWB    522Y01MW20201107201825005222620110720180600     00000000000000522Y01MW20222140003030R   "
	originL95126    = "000620110720182519TRUST               TRUST DA                    LMWB    522Y01MW20201107201825007227520110720184730                   522Y01MW2022214000M53030O   "
	originBroxbourn = "000620110723185333TRUST               TRUST DA                    LSHH    512O03MX23201107231853005172220110723185430                   512O03MX2321920000XR2121O   "
	activateL75926  = "000120120204043549TRUST               TSIA                                529C02M504201202040435495205320120204053500L759262026121100000020301211000000CC9C02M000005205320120204053500AN3022215003   "
	activateL06809  = "000120110824230314TRUST               TSIA                                522T52M125201108242303145274120110825010300L068092024051100000020101211000000CO2T52M000005274120110825010300AN2121910000   "
	departL06809    = "000320110825010359TRUST               SMART                               522T52M12520110825010300527412011082501030020110825010300     00000000000000DDA  DS 31522T52M125219100002121000 52739003 Y   52741Y"
	arriveL06809    = "000320110825013326TRUST               SMART                               522T52M12520110825013300527312011082501290020110825012900     00000000000000TAA  D   0522T52M125219100002121004L     000YY   52731Y"
)

func london(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", value, types.London)
	if err != nil {
		panic(err)
	}
	return t
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// movement builds a raw movement record from the Liverpool Street departure.
func movement(trainID, actual, stanox string, event types.EventType, line, platform string, terminated bool) string {
	b := []byte(departL06809)
	copy(b[74:84], trainID)
	copy(b[84:98], actual)
	copy(b[98:103], stanox)
	b[151] = string(event)[0]
	b[156] = ' '
	if line != "" {
		b[156] = line[0]
	}
	copy(b[157:159], fmt.Sprintf("%2s", platform))
	b[194] = ' '
	if terminated {
		b[194] = 'Y'
	}
	return string(b)
}

var everyDay = types.DaysRun{true, true, true, true, true, true, true}

func call(tiploc, arr, dep string) types.Location {
	return types.Location{TiplocCode: tiploc, Arrival: types.NominalTime(arr), Departure: types.NominalTime(dep)}
}

func pass(tiploc, at string) types.Location {
	return types.Location{TiplocCode: tiploc, Pass: types.NominalTime(at)}
}

func schedule(uid, identity, atoc string, stp types.STPIndicator, runsOn time.Time, locs ...types.Location) *types.BasicSchedule {
	for i := range locs {
		locs[i].Seq = i + 1
	}
	return &types.BasicSchedule{
		TrainUID:      uid,
		STPIndicator:  stp,
		RunsFrom:      runsOn,
		RunsTo:        runsOn,
		DaysRun:       everyDay,
		Category:      "OO",
		TrainIdentity: identity,
		ATOCCode:      atoc,
		Source:        types.SourceBulkImport,
		Locations:     locs,
	}
}

var tiplocs = []types.Tiploc{
	{TiplocCode: "EUSTON", Stanox: "72410", Description: "LONDON EUSTON"},
	{TiplocCode: "CMDNSTH", Stanox: "72401", Description: "CAMDEN SOUTH JN"},
	{TiplocCode: "WATFDJ", Stanox: "70101", Description: "WATFORD JUNCTION"},
	{TiplocCode: "TRING", Stanox: "70701", Description: "TRING"},
	{TiplocCode: "STFD", Stanox: "52226", Description: "STRATFORD"},
	{TiplocCode: "HACKNYC", Stanox: "52206"},
	{TiplocCode: "HIGHBYA", Stanox: "52053", Description: "HIGHBURY & ISLINGTON"},
	{TiplocCode: "KENSLGJ", Stanox: "72270"},
	{TiplocCode: "WLSDJHL", Stanox: "72275", Description: "WILLESDEN JUNCTION HIGH LEVEL"},
	{TiplocCode: "RICHMND", Stanox: "87401", Description: "RICHMOND"},
	{TiplocCode: "LIVST", Stanox: "52741", Description: "LONDON LIVERPOOL STREET"},
	{TiplocCode: "BTHNLGR", Stanox: "52739"},
	{TiplocCode: "CLAPTON", Stanox: "52701"},
	{TiplocCode: "CHINGFD", Stanox: "52731", Description: "CHINGFORD"},
	{TiplocCode: "LEEDS", Stanox: "17132", Description: "LEEDS"},
}

func fixtures() []*types.BasicSchedule {
	return []*types.BasicSchedule{
		schedule("C43391", "2N53", "LM", types.Permanent, day(2010, 12, 12),
			call("EUSTON", "", "1834"),
			pass("CMDNSTH", "1837H"),
			call("WATFDJ", "1849", "1850"),
			call("TRING", "1905", ""),
		),
		schedule("L95126", "2Y01", "LO", types.Permanent, day(2011, 7, 20),
			call("STFD", "", "1806"),
			call("HACKNYC", "1812", "1813"),
			call("HIGHBYA", "1819", "1820"),
			call("KENSLGJ", "1838", "1839"),
			call("WLSDJHL", "1847", "1848"),
			call("RICHMND", "1905", ""),
		),
		schedule("L06809", "2T52", "LO", types.Overlay, day(2011, 8, 25),
			call("LIVST", "", "0103"),
			call("BTHNLGR", "0106", "0106H"),
			call("CLAPTON", "0111", "0111H"),
			call("CHINGFD", "0129", ""),
		),
		schedule("L75926", "9C02", "", types.ShortTermCancellation, day(2012, 2, 4)),
		schedule("L75926", "9C02", "", types.Permanent, day(2012, 2, 4),
			call("HIGHBYA", "", "0535"),
			call("STFD", "0550", ""),
		),
	}
}

func newStore(t *testing.T, schedules ...*types.BasicSchedule) *data.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := data.NewMemoryStore()
	for _, tl := range tiplocs {
		if err := store.InsertTiploc(ctx, tl); err != nil {
			t.Fatalf("InsertTiploc: %v", err)
		}
	}
	for _, bs := range schedules {
		if err := store.InsertSchedule(ctx, bs); err != nil {
			t.Fatalf("InsertSchedule: %v", err)
		}
	}
	return store
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *data.MemoryStore) {
	t.Helper()
	store := newStore(t, fixtures()...)
	return New(store, zap.NewNop().Sugar(), opts...), store
}

func expect(t *testing.T, res types.Result, status types.Status, message string) {
	t.Helper()
	if res.Status != status || res.Message != message {
		t.Fatalf("got %s (err %v)\nwant %s: %s", res, res.Err, status, message)
	}
}

func TestJourneyFromEustonToTring(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	expect(t, e.ProcessTrust(ctx, activateC43391), types.StatusOk,
		"TRUST TSIA successfully activated CIF WTT schedule C43391 for TOC LM, departing EUSTON at 2010-12-12 18:34:00 as 2N53 (722N53MW12)")

	steps := []struct {
		record  string
		message string
	}{
		{movement("722N53MW12", "20101212183430", "72410", types.EventDeparture, "", "14", false), "Processed movement type D for train 722N53MW12 at LONDON EUSTON"},
		{movement("722N53MW12", "20101212183800", "72401", types.EventDeparture, "F", "2", false), "Processed movement type D for train 722N53MW12 at CAMDEN SOUTH JN"},
		{movement("722N53MW12", "20101212184900", "70101", types.EventArrival, "", "9", false), "Processed movement type A for train 722N53MW12 at WATFORD JUNCTION"},
		{movement("722N53MW12", "20101212185030", "70101", types.EventDeparture, "", "9", false), "Processed movement type D for train 722N53MW12 at WATFORD JUNCTION"},
		{movement("722N53MW12", "20101212190600", "70701", types.EventArrival, "", "", true), "Processed movement type A for train 722N53MW12 at TRING"},
	}
	for _, s := range steps {
		expect(t, e.ProcessTrust(ctx, s.record), types.StatusOk, s.message)
	}

	ds, ok := e.Journey("722N53MW12")
	if !ok {
		t.Fatal("journey not in index")
	}
	if !ds.DepartedOrigin || !ds.Terminated || ds.LastLocation != 3 {
		t.Errorf("departed %v terminated %v last %d", ds.DepartedOrigin, ds.Terminated, ds.LastLocation)
	}

	euston := ds.Locations[0]
	if euston.ActualDeparture == nil || !euston.ActualDeparture.Equal(london("2010-12-12 18:34:30")) || euston.ActualPlatform != "14" {
		t.Errorf("unexpected origin %+v", euston)
	}

	camden := ds.Locations[1]
	if camden.ActualPass == nil || !camden.ActualPass.Equal(london("2010-12-12 18:38:00")) {
		t.Errorf("pass not recorded: %+v", camden)
	}
	if camden.ActualDeparture != nil || camden.ActualPlatform != "" || camden.ActualLine != "" {
		t.Errorf("passing point took platform or line: %+v", camden)
	}

	watford := ds.Locations[2]
	if watford.ActualArrival == nil || watford.ActualDeparture == nil || watford.ActualPlatform != "9" {
		t.Errorf("unexpected call %+v", watford)
	}
	if watford.EventSource != types.EventSourceAutomatic {
		t.Errorf("event source %q", watford.EventSource)
	}

	stored, err := store.DailyScheduleByUIDAndDate(ctx, "C43391", day(2010, 12, 12))
	if err != nil {
		t.Fatalf("DailyScheduleByUIDAndDate: %v", err)
	}
	if !reflect.DeepEqual(stored, ds) {
		t.Errorf("stored schedule differs from index\nstored %+v\n index %+v", stored, ds)
	}

	// a repeated departure at the origin finds nothing unvisited there and
	// nothing after the destination
	expect(t, e.ProcessTrust(ctx, movement("722N53MW12", "20101212183500", "72410", types.EventDeparture, "", "", false)),
		types.StatusError, "Movement message for train 722N53MW12 at STANOX 72410 does not match any remaining location")
	ds, _ = e.Journey("722N53MW12")
	if ds.LastLocation != 3 || !ds.Locations[0].ActualDeparture.Equal(london("2010-12-12 18:34:30")) {
		t.Errorf("repeated departure changed the journey: last %d origin %+v", ds.LastLocation, ds.Locations[0])
	}
}

func TestPassAtCallingPoint(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	expect(t, e.ProcessTrust(ctx, activateC43391), types.StatusOk,
		"TRUST TSIA successfully activated CIF WTT schedule C43391 for TOC LM, departing EUSTON at 2010-12-12 18:34:00 as 2N53 (722N53MW12)")
	expect(t, e.ProcessTrust(ctx, movement("722N53MW12", "20101212184930", "70101", types.EventPass, "F", "9", false)),
		types.StatusOk, "Processed movement type P for train 722N53MW12 at WATFORD JUNCTION")

	ds, _ := e.Journey("722N53MW12")
	watford := ds.Locations[2]
	if watford.ActualPass == nil || !watford.ActualPass.Equal(london("2010-12-12 18:49:30")) {
		t.Errorf("pass not recorded: %+v", watford)
	}
	if watford.ActualArrival != nil || watford.ActualDeparture != nil {
		t.Errorf("pass set a call time: %+v", watford)
	}
	if watford.ActualPlatform != "" || watford.ActualLine != "" {
		t.Errorf("pass set platform %q line %q", watford.ActualPlatform, watford.ActualLine)
	}
	if ds.LastLocation != 2 || ds.DepartedOrigin {
		t.Errorf("last %d departed %v", ds.LastLocation, ds.DepartedOrigin)
	}

	raw, err := json.Marshal(watford)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "actual_path") {
		t.Errorf("movement without a path serialised one: %s", raw)
	}
}

func TestActivateTwice(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	if res := e.ProcessTrust(ctx, activateC43391); res.Status != types.StatusOk {
		t.Fatalf("first activation: %s", res)
	}
	res := e.ProcessTrust(ctx, activateC43391)
	expect(t, res, types.StatusError, "TRUST TSIA failed to activate CIF schedule C43391: already activated for 20101212")
	if !errors.Is(res.Err, ErrAlreadyActivated) {
		t.Errorf("expected ErrAlreadyActivated, got %v", res.Err)
	}

	runs, err := store.DailySchedulesOn(ctx, day(2010, 12, 12))
	if err != nil {
		t.Fatalf("DailySchedulesOn: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected one daily schedule, got %d", len(runs))
	}
}

func TestActivateUnknownSchedule(t *testing.T) {
	e := New(newStore(t), zap.NewNop().Sugar())
	res := e.ProcessTrust(context.Background(), activateC43391)
	expect(t, res, types.StatusError, "TRUST TSIA failed to activate CIF schedule C43391")
	if !errors.Is(res.Err, ErrUnknownSchedule) {
		t.Errorf("expected ErrUnknownSchedule, got %v", res.Err)
	}
	if _, ok := e.Journey("722N53MW12"); ok {
		t.Error("failed activation left a journey behind")
	}
}

func TestActivateCancellationSchedule(t *testing.T) {
	e, _ := newEngine(t)
	expect(t, e.ProcessTrust(context.Background(), activateL75926), types.StatusOk,
		"TRUST TSIA successfully activated CIF CAN schedule L75926 for an unknown TOC, departing HIGHBYA at 2012-02-04 05:35:00 as 9C02 (529C02M504)")

	ds, _ := e.Journey("529C02M504")
	if !ds.Cancelled || ds.CancellationReason != "PD" {
		t.Errorf("cancelled %v reason %q", ds.Cancelled, ds.CancellationReason)
	}
	if ds.CancellationTimestamp == nil || !ds.CancellationTimestamp.Equal(london("2012-02-04 04:35:49")) {
		t.Errorf("cancellation timestamp %v", ds.CancellationTimestamp)
	}
}

func TestCancelAndReinstate(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	expect(t, e.ProcessTrust(ctx, cancelL95126), types.StatusError, "Cancellation message for unactivated train 522Y01MW20")

	expect(t, e.ProcessTrust(ctx, activateL95126), types.StatusOk,
		"TRUST TSIA successfully activated CIF WTT schedule L95126 for TOC LO, departing STFD at 2011-07-20 18:06:00 as 2Y01 (522Y01MW20)")

	expect(t, e.ProcessTrust(ctx, cancelL95126), types.StatusOk, "Cancelled train 522Y01MW20 due to reason M5")
	ds, _ := e.Journey("522Y01MW20")
	if !ds.Cancelled || ds.CancellationReason != "M5" || !ds.CancellationTimestamp.Equal(london("2011-07-20 18:19:00")) {
		t.Errorf("unexpected cancellation %v %q %v", ds.Cancelled, ds.CancellationReason, ds.CancellationTimestamp)
	}

	expect(t, e.ProcessTrust(ctx, reinstateL95126), types.StatusOk, "Reinstated train 522Y01MW20")
	ds, _ = e.Journey("522Y01MW20")
	if ds.Cancelled || ds.CancellationReason != "" || ds.CancellationTimestamp != nil {
		t.Errorf("reinstatement left cancellation behind: %v %q %v", ds.Cancelled, ds.CancellationReason, ds.CancellationTimestamp)
	}
}

func TestChangeOfOrigin(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	expect(t, e.ProcessTrust(ctx, originBroxbourn), types.StatusError, "COO message for unactivated train 512O03MX23")

	if res := e.ProcessTrust(ctx, activateL95126); res.Status != types.StatusOk {
		t.Fatalf("activation: %s", res)
	}

	expect(t, e.ChangeOfOrigin(ctx, "522Y01MW20", "99999", "XR"), types.StatusError,
		"COO message for train 522Y01MW20 specifies unknown STANOX 99999")
	expect(t, e.ChangeOfOrigin(ctx, "522Y01MW20", "17132", "XR"), types.StatusError,
		"COO message for train 522Y01MW20 changes origin to LEEDS which is not in the schedule")

	expect(t, e.ProcessTrust(ctx, originL95126), types.StatusOk,
		"Changed origin of train 522Y01MW20 to WILLESDEN JUNCTION HIGH LEVEL for reason M5")

	ds, _ := e.Journey("522Y01MW20")
	if ds.Cancelled {
		t.Error("change of origin cancelled the whole train")
	}
	for i, l := range ds.Locations {
		wantCancelled := i < 4
		if l.Cancelled != wantCancelled {
			t.Errorf("%s cancelled = %v, want %v", l.TiplocCode, l.Cancelled, wantCancelled)
		}
		if wantCancelled && l.CancellationReason != "M5" {
			t.Errorf("%s reason %q", l.TiplocCode, l.CancellationReason)
		}
	}
}

func TestUnactivatedMovement(t *testing.T) {
	e, _ := newEngine(t)
	res := e.ProcessTrust(context.Background(), departL06809)
	expect(t, res, types.StatusError, "Movement message for unactivated train 522T52M125")
	if !errors.Is(res.Err, ErrNotActivated) {
		t.Errorf("expected ErrNotActivated, got %v", res.Err)
	}
}

func TestUnsupportedReports(t *testing.T) {
	e, _ := newEngine(t)
	tests := []struct {
		record string
		name   string
	}{
		{"000420060105100109ABCDEFGHIJKLMNOPQMMMABCDEFGHIJKLMNOPQNNNAAAABBCCCCCCDDEE12342007030210152512345AUF12AA  ", "Unidentified Train"},
		{"000720060209060142TRUST               TOPS                        CY99996 121456789020070302152714422X112Q08422P182Q0822320003005", "Change of Identity"},
		{"000820060105100109ABCDEFGHIJKLMNOPQMMMABCDEFGHIJKLMNOPQNNNAAAABBCCCCCCDDEE121456789020070302101525123452007030210152612345200601041015261214567890ABCDEFGHABC", "Change of Location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.ProcessTrust(context.Background(), tt.record)
			expect(t, res, types.StatusWarning, tt.name+" report not processed, pending support")
			if !errors.Is(res.Err, ErrUnsupportedReport) {
				t.Errorf("expected ErrUnsupportedReport, got %v", res.Err)
			}
		})
	}

	res := e.ProcessTrust(context.Background(), "0009"+activateC43391[4:])
	if res.Status != types.StatusError || res.Err == nil {
		t.Errorf("expected a decode failure, got %s", res)
	}
}

func TestLiverpoolStreetToChingford(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	expect(t, e.ProcessTrust(ctx, activateL06809), types.StatusOk,
		"TRUST TSIA successfully activated CIF VAR schedule L06809 for TOC LO, departing LIVST at 2011-08-25 01:03:00 as 2T52 (522T52M125)")
	expect(t, e.ProcessTrust(ctx, departL06809), types.StatusOk,
		"Processed movement type D for train 522T52M125 at LONDON LIVERPOOL STREET")
	expect(t, e.ProcessTrust(ctx, arriveL06809), types.StatusOk,
		"Processed movement type A for train 522T52M125 at CHINGFORD")

	ds, _ := e.Journey("522T52M125")
	origin := ds.Locations[0]
	if origin.ActualPlatform != "3" || origin.ActualLine != "S" || !ds.DepartedOrigin {
		t.Errorf("unexpected origin %+v", origin)
	}
	if !ds.Terminated || ds.LastLocation != 3 {
		t.Errorf("terminated %v last %d", ds.Terminated, ds.LastLocation)
	}
	if ds.Locations[1].Visited() || ds.Locations[2].Visited() {
		t.Error("skipped locations should stay unvisited")
	}
}

func TestProcessTrustJSON(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	act := types.TrustMessage{
		Header: types.TrustHeader{MsgType: types.TrainActivation, SourceSystemID: "TRUST", OriginalDataSource: "TSIA", MsgQueueTimestamp: "1314227000000"},
		Body: types.TrustBody{
			TrainID:            "522T52M125",
			TrainUID:           "L06809",
			SchedOriginStanox:  "52741",
			OriginDepTimestamp: "1314230580000",
			ScheduleSource:     "C",
			ScheduleType:       "O",
		},
	}
	expect(t, e.ProcessTrustJSON(ctx, act), types.StatusOk,
		"TRUST TSIA successfully activated CIF VAR schedule L06809 for TOC LO, departing LIVST at 2011-08-25 01:03:00 as 2T52 (522T52M125)")

	mv := types.TrustMessage{
		Header: types.TrustHeader{MsgType: types.TrainMovement, SourceSystemID: "TRUST", OriginalDataSource: "SMART", MsgQueueTimestamp: "1314230639000"},
		Body: types.TrustBody{
			TrainID:         "522T52M125",
			ActualTimestamp: "1314230580000",
			LocStanox:       "52741",
			EventType:       "DEPARTURE",
			EventSource:     "AUTOMATIC",
			Platform:        " 3",
			LineInd:         "S",
		},
	}
	expect(t, e.ProcessTrustJSON(ctx, mv), types.StatusOk,
		"Processed movement type D for train 522T52M125 at LONDON LIVERPOOL STREET")
}

func TestSelectLocation(t *testing.T) {
	at := time.Date(2011, 8, 25, 1, 0, 0, 0, types.London)

	// BRANCH and BRANCHP share an area, and BRANCH is a passing point
	build := func(last int, visit func(ls []types.DailyScheduleLocation)) *types.DailySchedule {
		ds := types.NewDailySchedule(schedule("X00001", "1X01", "", types.Permanent, day(2011, 8, 25),
			call("ORIGIN", "", "0100"),
			pass("BRANCH", "0105"),
			call("MIDDLE", "0110", "0111"),
			call("BRANCHP", "0120", "0121"),
			call("TERMNUS", "0130", ""),
		), day(2011, 8, 25), "1X01")
		ds.LastLocation = last
		if visit != nil {
			visit(ds.Locations)
		}
		return ds
	}
	branch := map[string]bool{"BRANCH": true, "BRANCHP": true}
	middle := map[string]bool{"MIDDLE": true}
	none := map[string]bool{}

	tests := []struct {
		name  string
		ds    *types.DailySchedule
		area  map[string]bool
		event types.EventType
		want  int
	}{
		{"first candidate in sequence", build(-1, nil), branch, types.EventDeparture, 1},
		{"passed point is skipped", build(1, func(ls []types.DailyScheduleLocation) {
			ls[1].ActualPass = &at
		}), branch, types.EventDeparture, 3},
		{"earlier unvisited candidate after out of order report", build(3, func(ls []types.DailyScheduleLocation) {
			ls[3].ActualDeparture = &at
		}), branch, types.EventDeparture, 1},
		// known heuristic: an unreported candidate behind the last touched
		// location still wins over a closer one ahead of it
		{"first unvisited in sequence order", build(2, func(ls []types.DailyScheduleLocation) {
			ls[0].ActualDeparture = &at
			ls[2].ActualArrival = &at
		}), branch, types.EventArrival, 1},
		{"everything visited falls back to next location", build(3, func(ls []types.DailyScheduleLocation) {
			ls[1].ActualPass = &at
			ls[3].ActualDeparture = &at
		}), branch, types.EventDeparture, 4},
		{"everything visited at the last location", build(4, func(ls []types.DailyScheduleLocation) {
			ls[1].ActualPass = &at
			ls[3].ActualDeparture = &at
		}), branch, types.EventDeparture, -1},
		{"arrival does not count as departure", build(2, func(ls []types.DailyScheduleLocation) {
			ls[2].ActualArrival = &at
		}), middle, types.EventDeparture, 2},
		{"no match falls back to next location", build(0, nil), none, types.EventArrival, 1},
		{"no match after the last location", build(4, nil), none, types.EventArrival, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selectLocation(tt.ds, tt.area, tt.event); got != tt.want {
				t.Errorf("selectLocation = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConcurrentMovementsOnOneJourney(t *testing.T) {
	ctx := context.Background()
	const n = 20

	var locs []types.Location
	var extra []types.Tiploc
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("LOC%02d", i)
		locs = append(locs, call(code, "0100", "0101"))
		extra = append(extra, types.Tiploc{TiplocCode: code, Stanox: fmt.Sprintf("900%02d", i)})
	}
	store := newStore(t, schedule("L06809", "2T52", "LO", types.Overlay, day(2011, 8, 25), locs...))
	for _, tl := range extra {
		if err := store.InsertTiploc(ctx, tl); err != nil {
			t.Fatalf("InsertTiploc: %v", err)
		}
	}
	// the activation names LIVST, which is not on this route
	e := New(store, zap.NewNop().Sugar())
	if res := e.ProcessTrust(ctx, activateL06809); res.Status != types.StatusOk {
		t.Fatalf("activation: %s", res)
	}

	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		record := movement("522T52M125", "20110825011000", fmt.Sprintf("900%02d", i), types.EventArrival, "", "", false)
		wg.Go(func() {
			if res := e.ProcessTrust(ctx, record); res.Status != types.StatusOk {
				t.Errorf("movement: %s", res)
			}
		})
	}
	wg.Wait()

	ds, _ := e.Journey("522T52M125")
	for _, l := range ds.Locations {
		if l.ActualArrival == nil {
			t.Errorf("lost update at %s", l.TiplocCode)
		}
	}
	if ds.LastLocation != n-1 {
		t.Errorf("last location %d", ds.LastLocation)
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestActivationRecordedInCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := activation.NewRedisCache(rdb, 36*time.Hour)
	e, _ := newEngine(t, WithCache(cache))
	ctx := context.Background()

	if res := e.ProcessTrust(ctx, activateC43391); res.Status != types.StatusOk {
		t.Fatalf("activation: %s", res)
	}
	trainID, ok, err := cache.Lookup(ctx, "C43391", day(2010, 12, 12))
	if err != nil || !ok || trainID != "722N53MW12" {
		t.Errorf("Lookup = %q %v %v", trainID, ok, err)
	}

	// the cache is a side channel, losing it does not fail activation
	mr.Close()
	if res := e.ProcessTrust(ctx, activateL95126); res.Status != types.StatusOk {
		t.Errorf("activation with cache down: %s", res)
	}
}

func TestWarm(t *testing.T) {
	first, store := newEngine(t)
	ctx := context.Background()
	for _, record := range []string{activateL06809, departL06809} {
		if res := first.ProcessTrust(ctx, record); res.Status != types.StatusOk {
			t.Fatalf("%s", res)
		}
	}

	restarted := New(store, zap.NewNop().Sugar())
	count, err := restarted.Warm(ctx, day(2011, 8, 26))
	if err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if count != 1 {
		t.Errorf("warmed %d journeys, want 1", count)
	}
	expect(t, restarted.ProcessTrust(ctx, arriveL06809), types.StatusOk,
		"Processed movement type A for train 522T52M125 at CHINGFORD")
	ds, _ := restarted.Journey("522T52M125")
	if ds.Locations[0].ActualDeparture == nil {
		t.Error("warm lost the departure applied before restart")
	}
}

func TestProcessTD(t *testing.T) {
	_, rdb := newTestRedis(t)
	berths := NewBerthMap(rdb)
	e, _ := newEngine(t, WithBerthMap(berths))
	ctx := context.Background()

	tests := []struct {
		record string
		want   string
	}{
		{"<CA_MSG>WYCA034003384L37094248</CA_MSG>", "WY: Moved train 4L37 from berth 0340 to berth 0338"},
		{`<CC_MSG time="074109" area_id="NN" to="A005" descr="2S14"/>`, "NN: Interposed train 2S14 in berth A005"},
		{"<CC_MSG>NNCCA0052S15074110</CC_MSG>", "NN: Interposed train 2S15 in berth A005"},
		{"<CB_MSG>NNCBA0052S15074111</CB_MSG>", "NN: Cancelled train 2S15 in berth A005"},
		{"<CT_MSG>WYCT0942094300</CT_MSG>", "WY: Heartbeat received"},
		{"<SF_MSG>WYSF0A1F094301</SF_MSG>", "WY: Equipment Status (SF) message not yet supported"},
		{"<SG_MSG>WYSG0A1F2E3D4C094302</SG_MSG>", "WY: Equipment Base Scan (SG) message not yet supported"},
		{"<SH_MSG>WYSH0A1F2E3D4C094303</SH_MSG>", "WY: Equipment Base Scan Sequence End message not yet supported"},
	}
	for _, tt := range tests {
		expect(t, e.ProcessTD(ctx, tt.record), types.StatusOk, tt.want)
	}

	wy, err := berths.Occupancy(ctx, "WY")
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if !reflect.DeepEqual(wy, map[string]string{"0338": "4L37"}) {
		t.Errorf("WY berths %v", wy)
	}
	nn, err := berths.Occupancy(ctx, "NN")
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if len(nn) != 0 {
		t.Errorf("NN berths should be empty after the cancel, got %v", nn)
	}

	if res := e.ProcessTD(ctx, "<ZZ_MSG>WYZZ</ZZ_MSG>"); res.Status != types.StatusError {
		t.Errorf("expected failure for unknown type, got %s", res)
	}
}

func TestActivationNamesOperator(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, fixtures()...)
	if err := store.ReplaceOperators(ctx, []types.Operator{{Code: "LM", Name: "London Midland"}}); err != nil {
		t.Fatalf("ReplaceOperators: %v", err)
	}
	e := New(store, zap.NewNop().Sugar(), WithOperators(store))

	expect(t, e.ProcessTrust(ctx, activateC43391), types.StatusOk,
		"TRUST TSIA successfully activated CIF WTT schedule C43391 for London Midland, departing EUSTON at 2010-12-12 18:34:00 as 2N53 (722N53MW12)")
}
