package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// STPIndicator is the short-term-plan kind of a schedule variant.
type STPIndicator string

const (
	Permanent             STPIndicator = "P"
	Overlay               STPIndicator = "O"
	ShortTermNew          STPIndicator = "N"
	ShortTermCancellation STPIndicator = "C"
)

// Precedence ranks variants for the same train on the same date. Higher wins.
func (s STPIndicator) Precedence() int {
	switch s {
	case ShortTermCancellation:
		return 4
	case ShortTermNew:
		return 3
	case Overlay:
		return 2
	case Permanent:
		return 1
	}
	return 0
}

// Label is the timetable planning name used in activation reports.
func (s STPIndicator) Label() string {
	switch s {
	case Permanent:
		return "WTT"
	case Overlay:
		return "VAR"
	case ShortTermNew:
		return "STP"
	case ShortTermCancellation:
		return "CAN"
	}
	return "UNK"
}

func ParseSTPIndicator(s string) (STPIndicator, error) {
	stp := STPIndicator(strings.TrimSpace(s))
	if stp.Precedence() == 0 {
		return "", fmt.Errorf("unknown STP indicator %q", s)
	}
	return stp, nil
}

// ScheduleSource records which feed produced a schedule.
type ScheduleSource string

const (
	SourceBulkImport     ScheduleSource = "CIF"
	SourceAdHocAmendment ScheduleSource = "VSTP"
)

// DaysRun holds the day-of-week validity flags, Monday first.
type DaysRun [7]bool

// ParseDaysRun reads the 7 character "1000000" form.
func ParseDaysRun(s string) (DaysRun, error) {
	var d DaysRun
	if len(s) != 7 {
		return d, fmt.Errorf("days run %q must be 7 characters", s)
	}
	for i, c := range s {
		switch c {
		case '1':
			d[i] = true
		case '0':
		default:
			return d, fmt.Errorf("days run %q has invalid flag %q", s, c)
		}
	}
	return d, nil
}

func (d DaysRun) String() string {
	var b strings.Builder
	for _, on := range d {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (d DaysRun) RunsOn(day time.Weekday) bool {
	// time.Weekday starts on Sunday
	return d[(int(day)+6)%7]
}

// NominalTime is a timetable time in "hhmm" form, with an "H" suffix for
// the half minute. The empty value means the time does not apply.
type NominalTime string

func ParseNominalTime(s string) (NominalTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t := NominalTime(s)
	if _, ok := t.Seconds(); !ok {
		return "", fmt.Errorf("invalid nominal time %q", s)
	}
	return t, nil
}

func (t NominalTime) IsSet() bool {
	return t != ""
}

// Seconds returns the number of seconds after midnight the time represents.
func (t NominalTime) Seconds() (int, bool) {
	s := string(t)
	half := false
	if len(s) == 5 && s[4] == 'H' {
		half = true
		s = s[:4]
	}
	if len(s) != 4 {
		return 0, false
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil || hh > 23 {
		return 0, false
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil || mm > 59 {
		return 0, false
	}
	secs := hh*3600 + mm*60
	if half {
		secs += 30
	}
	return secs, true
}

// On places the nominal time on a run date, in feed local time.
func (t NominalTime) On(runDate time.Time, nextDay bool) (time.Time, bool) {
	secs, ok := t.Seconds()
	if !ok {
		return time.Time{}, false
	}
	day := runDate
	if nextDay {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, secs, 0, London), true
}

// BasicSchedule is one timetable variant of a train. The validate tags carry
// the record formats of the bulk timetable extract.
type BasicSchedule struct {
	ID                 uuid.UUID
	TrainUID           string       `validate:"required,train_uid"`
	STPIndicator       STPIndicator `validate:"required,oneof=P O N C"`
	RunsFrom           time.Time
	RunsTo             time.Time
	DaysRun            DaysRun
	BankHolidayRunning string
	Status             string `validate:"omitempty,oneof=B F P S T 1 2 3 4 5"`
	Category           string
	TrainIdentity      string `validate:"omitempty,train_identity"`
	Headcode           string `validate:"omitempty,len=4,numeric"`
	ServiceCode        string `validate:"omitempty,len=8,numeric"`
	PowerType          string
	TimingLoad         string
	Speed              string `validate:"omitempty,numeric"`
	OperatingChars     string
	TrainClass         string
	ATOCCode           string
	Source             ScheduleSource
	Locations          []Location
}

// ValidOn reports whether the schedule's date range and day flags include date.
func (bs *BasicSchedule) ValidOn(date time.Time) bool {
	date = Date(date)
	if date.Before(bs.RunsFrom) || date.After(bs.RunsTo) {
		return false
	}
	return bs.DaysRun.RunsOn(date.Weekday())
}

var passengerCategories = map[string]bool{
	"OL": true, "OU": true, "OO": true, "OW": true,
	"XC": true, "XD": true, "XI": true, "XR": true,
	"XU": true, "XX": true, "XZ": true, "BR": true, "BS": true,
}

func (bs *BasicSchedule) IsPassenger() bool {
	return passengerCategories[bs.Category]
}

func (bs *BasicSchedule) Origin() *Location {
	if len(bs.Locations) == 0 {
		return nil
	}
	return &bs.Locations[0]
}

type Location struct {
	Seq             int
	TiplocCode      string
	TiplocInstance  string
	Arrival         NominalTime
	PublicArrival   NominalTime
	Pass            NominalTime
	Departure       NominalTime
	PublicDeparture NominalTime
	Platform        string
	Line            string
	Path            string
	Activity        string

	Origin      bool
	Destination bool
	Calling     bool
	PickupOnly  bool
	SetdownOnly bool

	NextDayArrival   bool
	NextDayPass      bool
	NextDayDeparture bool
}

func (l *Location) IsPassingPoint() bool {
	return l.Pass.IsSet() && !l.Arrival.IsSet() && !l.Departure.IsSet()
}

func (l *Location) IsPublic() bool {
	return l.PublicArrival.IsSet() || l.PublicDeparture.IsSet()
}

// Activity codes carried by CIF and VSTP locations.
const (
	ActivityOrigin      = "TB"
	ActivityDestination = "TF"
	ActivityCalling     = "T"
	ActivityPickupOnly  = "U"
	ActivitySetdownOnly = "D"
)

// ApplyActivity sets the activity flags from a CIF activity field, which is
// a run of 2 character codes.
func (l *Location) ApplyActivity(activity string) {
	l.Activity = activity
	for i := 0; i < len(activity); i += 2 {
		end := i + 2
		if end > len(activity) {
			end = len(activity)
		}
		switch strings.TrimSpace(activity[i:end]) {
		case ActivityOrigin:
			l.Origin = true
		case ActivityDestination:
			l.Destination = true
		case ActivityCalling:
			l.Calling = true
		case ActivityPickupOnly:
			l.PickupOnly = true
		case ActivitySetdownOnly:
			l.SetdownOnly = true
		}
	}
}

type Tiploc struct {
	TiplocCode     string
	Nalco          string
	Stanox         string
	CRSCode        string
	Description    string
	TPSDescription string
}

// Name is the best human readable description available.
func (t *Tiploc) Name() string {
	if t.Description != "" {
		return t.Description
	}
	if t.TPSDescription != "" {
		return t.TPSDescription
	}
	return t.TiplocCode
}

// MarkNextDay sets the next-day flags of every time that falls after the
// schedule has passed midnight, taken as the first time that goes
// backwards walking arrival, pass then departure at each location in order.
func (bs *BasicSchedule) MarkNextDay() {
	last := -1
	rolled := false
	mark := func(t NominalTime) bool {
		secs, ok := t.Seconds()
		if !ok {
			return false
		}
		if last >= 0 && secs < last {
			rolled = true
		}
		last = secs
		return rolled
	}
	for i := range bs.Locations {
		l := &bs.Locations[i]
		l.NextDayArrival = mark(l.Arrival)
		l.NextDayPass = mark(l.Pass)
		l.NextDayDeparture = mark(l.Departure)
	}
}
