// Package amendment applies ad-hoc (VSTP) schedule documents to the schedule
// store, so a train planned at short notice can be activated like any other.
package amendment

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

var ErrInvalidDocument = errors.New("invalid amendment document")

type Transaction string

const (
	Create Transaction = "CREATE"
	Delete Transaction = "DELETE"
)

// Document is one create or delete instruction from the VSTP feed.
type Document struct {
	Transaction        Transaction `validate:"required,oneof=CREATE DELETE"`
	ScheduleID         string
	TrainUID           string    `validate:"required,max=6"`
	StartDate          time.Time `validate:"required"`
	EndDate            time.Time `validate:"required,gtefield=StartDate"`
	DaysRun            types.DaysRun
	BankHolidayRunning string
	Status             string
	STP                string
	Segment            Segment
	Locations          []Location `validate:"dive"`
}

type Segment struct {
	SignallingID   string `validate:"omitempty,max=4"`
	Category       string `validate:"omitempty,len=2"`
	Headcode       string
	ServiceCode    string
	ATOC           string
	PowerType      string
	TimingLoad     string
	Speed          string
	OperatingChars string
	TrainClass     string
}

// Location holds one calling point with its times still in the feed's
// hhmmss form.
type Location struct {
	Tiploc          string `validate:"required,max=7"`
	Arrival         string `validate:"vstptime"`
	Departure       string `validate:"vstptime"`
	Pass            string `validate:"vstptime"`
	PublicArrival   string `validate:"vstptime"`
	PublicDeparture string `validate:"vstptime"`
	Platform        string
	Line            string
	Path            string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("vstptime", func(fl validator.FieldLevel) bool {
		_, err := NominalTime(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		doc := sl.Current().Interface().(Document)
		if doc.Transaction != Create {
			return
		}
		if len(doc.Locations) < 2 {
			sl.ReportError(doc.Locations, "Locations", "Locations", "origin_and_destination", "")
		}
		if doc.DaysRun == (types.DaysRun{}) {
			sl.ReportError(doc.DaysRun, "DaysRun", "DaysRun", "runs_on_some_day", "")
		}
	}, Document{})
	return v
}

func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// ParseXML reads the attribute style XML form of a VSTP message.
func ParseXML(r io.Reader) (*Document, error) {
	var msg types.VSTPCIFMsgV1
	if err := xml.NewDecoder(r).Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromMessage(&msg)
}

// FromJSON converts a VSTP message as delivered on the message bus.
func FromJSON(msg types.VSTPMessage) (*Document, error) {
	return fromMessage(&msg.VSTPCIFMsgV1)
}

func fromMessage(msg *types.VSTPCIFMsgV1) (*Document, error) {
	s := msg.Schedule

	start, err := parseDate(s.ScheduleStartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(s.ScheduleEndDate)
	if err != nil {
		return nil, err
	}
	var days types.DaysRun
	if v := strings.TrimSpace(s.ScheduleDaysRuns); v != "" {
		if days, err = types.ParseDaysRun(v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}

	doc := &Document{
		Transaction:        Transaction(strings.ToUpper(strings.TrimSpace(s.TransactionType))),
		ScheduleID:         strings.TrimSpace(s.ScheduleId),
		TrainUID:           strings.TrimSpace(s.TrainUID),
		StartDate:          start,
		EndDate:            end,
		DaysRun:            days,
		BankHolidayRunning: strings.TrimSpace(s.BankHolidayRunning),
		Status:             strings.TrimSpace(s.TrainStatus),
		STP:                strings.TrimSpace(s.StpIndicator),
	}

	for i, seg := range s.ScheduleSegment {
		if i == 0 {
			doc.Segment = Segment{
				SignallingID:   strings.TrimSpace(seg.SignallingId),
				Category:       strings.TrimSpace(seg.TrainCategory),
				Headcode:       strings.TrimSpace(seg.Headcode),
				ServiceCode:    strings.TrimSpace(seg.TrainServiceCode),
				ATOC:           strings.TrimSpace(seg.AtocCode),
				PowerType:      strings.TrimSpace(seg.PowerType),
				TimingLoad:     strings.TrimSpace(seg.TimingLoad),
				Speed:          strings.TrimSpace(seg.Speed),
				OperatingChars: strings.TrimSpace(seg.OperatingCharacteristics),
				TrainClass:     strings.TrimSpace(seg.TrainClass),
			}
		}
		for _, l := range seg.ScheduleLocation {
			doc.Locations = append(doc.Locations, Location{
				Tiploc:          strings.TrimSpace(l.Location.Tiploc.TiplocId),
				Arrival:         strings.TrimSpace(l.ScheduledArrivalTime),
				Departure:       strings.TrimSpace(l.ScheduledDepartureTime),
				Pass:            strings.TrimSpace(l.ScheduledPassTime),
				PublicArrival:   strings.TrimSpace(l.PublicArrivalTime),
				PublicDeparture: strings.TrimSpace(l.PublicDepartureTime),
				Platform:        strings.TrimSpace(l.Platform),
				Line:            strings.TrimSpace(l.Line),
				Path:            strings.TrimSpace(l.Path),
			})
		}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidDocument, s)
	}
	return t, nil
}

// NominalTime converts a feed time in hhmmss or hhmm form to the timetable
// form. 30 seconds or more becomes the half minute suffix.
func NominalTime(s string) (types.NominalTime, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 0:
		return "", nil
	case 4:
		return types.ParseNominalTime(s)
	case 6:
		t, err := types.ParseNominalTime(s[:4])
		if err != nil {
			return "", err
		}
		secs, err := strconv.Atoi(s[4:])
		if err != nil || secs < 0 || secs > 59 {
			break
		}
		if secs >= 30 {
			return t + "H", nil
		}
		return t, nil
	}
	return "", fmt.Errorf("invalid VSTP time %q", s)
}
