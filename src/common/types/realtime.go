package types

import (
	"time"

	"github.com/google/uuid"
)

type EventSource string

const (
	EventSourceAutomatic EventSource = "A"
	EventSourceManual    EventSource = "M"
)

// DailySchedule is one activated run of a BasicSchedule on a given date.
type DailySchedule struct {
	ID                    uuid.UUID      `json:"id"`
	BasicScheduleID       uuid.UUID      `json:"basic_schedule_id"`
	RunsOn                time.Time      `json:"runs_on"`
	TrainUID              string         `json:"train_uid"`
	STPIndicator          STPIndicator   `json:"stp_indicator"`
	Source                ScheduleSource `json:"source"`
	Status                string         `json:"status"`
	Category              string         `json:"category"`
	TrainIdentity         string         `json:"train_identity"`
	Headcode              string         `json:"headcode"`
	ServiceCode           string         `json:"service_code"`
	PowerType             string         `json:"power_type"`
	TimingLoad            string         `json:"timing_load"`
	Speed                 string         `json:"speed"`
	ATOCCode              string         `json:"atoc_code"`
	TrainIdentityUnique   string         `json:"train_identity_unique"`
	Cancelled             bool           `json:"cancelled"`
	CancellationReason    string         `json:"cancellation_reason"`
	CancellationTimestamp *time.Time     `json:"cancellation_timestamp,omitempty"`
	Terminated            bool           `json:"terminated"`
	DepartedOrigin        bool           `json:"departed_origin"`
	// LastLocation indexes Locations, -1 until a movement is applied.
	LastLocation int                     `json:"last_location"`
	Locations    []DailyScheduleLocation `json:"locations"`
}

type DailyScheduleLocation struct {
	Seq              int         `json:"seq"`
	TiplocCode       string      `json:"tiploc_code"`
	Arrival          NominalTime `json:"arrival"`
	Pass             NominalTime `json:"pass"`
	Departure        NominalTime `json:"departure"`
	PublicArrival    NominalTime `json:"public_arrival"`
	PublicDeparture  NominalTime `json:"public_departure"`
	NextDayArrival   bool        `json:"next_day_arrival"`
	NextDayPass      bool        `json:"next_day_pass"`
	NextDayDeparture bool        `json:"next_day_departure"`
	Platform         string      `json:"platform"`
	Line             string      `json:"line"`
	Path             string      `json:"path"`

	ActualArrival   *time.Time  `json:"actual_arrival,omitempty"`
	ActualPass      *time.Time  `json:"actual_pass,omitempty"`
	ActualDeparture *time.Time  `json:"actual_departure,omitempty"`
	ActualPlatform  string      `json:"actual_platform"`
	ActualLine      string      `json:"actual_line"`
	ActualPath      string      `json:"actual_path,omitempty"` // TRUST reports no path
	EventSource     EventSource `json:"event_source"`

	Cancelled          bool   `json:"cancelled"`
	CancellationReason string `json:"cancellation_reason"`
}

func (l *DailyScheduleLocation) IsPassingPoint() bool {
	return l.Pass.IsSet() && !l.Arrival.IsSet() && !l.Departure.IsSet()
}

func (l *DailyScheduleLocation) Visited() bool {
	return l.ActualArrival != nil || l.ActualPass != nil || l.ActualDeparture != nil
}

// NewDailySchedule copies a BasicSchedule and its locations for a run date.
func NewDailySchedule(bs *BasicSchedule, runsOn time.Time, trainID string) *DailySchedule {
	ds := &DailySchedule{
		ID:                  uuid.New(),
		BasicScheduleID:     bs.ID,
		RunsOn:              Date(runsOn),
		TrainUID:            bs.TrainUID,
		STPIndicator:        bs.STPIndicator,
		Source:              bs.Source,
		Status:              bs.Status,
		Category:            bs.Category,
		TrainIdentity:       bs.TrainIdentity,
		Headcode:            bs.Headcode,
		ServiceCode:         bs.ServiceCode,
		PowerType:           bs.PowerType,
		TimingLoad:          bs.TimingLoad,
		Speed:               bs.Speed,
		ATOCCode:            bs.ATOCCode,
		TrainIdentityUnique: trainID,
		LastLocation:        -1,
		Locations:           make([]DailyScheduleLocation, 0, len(bs.Locations)),
	}
	for _, l := range bs.Locations {
		ds.Locations = append(ds.Locations, DailyScheduleLocation{
			Seq:              l.Seq,
			TiplocCode:       l.TiplocCode,
			Arrival:          l.Arrival,
			Pass:             l.Pass,
			Departure:        l.Departure,
			PublicArrival:    l.PublicArrival,
			PublicDeparture:  l.PublicDeparture,
			NextDayArrival:   l.NextDayArrival,
			NextDayPass:      l.NextDayPass,
			NextDayDeparture: l.NextDayDeparture,
			Platform:         l.Platform,
			Line:             l.Line,
			Path:             l.Path,
		})
	}
	return ds
}

// Clone returns a deep copy, so readers never observe a half-applied update.
func (ds *DailySchedule) Clone() *DailySchedule {
	c := *ds
	if ds.CancellationTimestamp != nil {
		ts := *ds.CancellationTimestamp
		c.CancellationTimestamp = &ts
	}
	c.Locations = make([]DailyScheduleLocation, len(ds.Locations))
	for i, l := range ds.Locations {
		c.Locations[i] = l
		c.Locations[i].ActualArrival = copyTime(l.ActualArrival)
		c.Locations[i].ActualPass = copyTime(l.ActualPass)
		c.Locations[i].ActualDeparture = copyTime(l.ActualDeparture)
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
