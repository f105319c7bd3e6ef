package amendment

import (
	"context"
	"errors"
	"io"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/data"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"go.uber.org/zap"
)

var ErrNoMatchingSchedule = errors.New("no matching VSTP schedule")

type Injector struct {
	store  data.Store
	logger *zap.SugaredLogger
}

func NewInjector(store data.Store, logger *zap.SugaredLogger) *Injector {
	return &Injector{store: store, logger: logger}
}

// ApplyXML parses and applies one XML document.
func (in *Injector) ApplyXML(ctx context.Context, r io.Reader) types.Result {
	doc, err := ParseXML(r)
	if err != nil {
		return types.Failure(err, "Failed to parse VSTP message: %v", err)
	}
	return in.Apply(ctx, doc)
}

func (in *Injector) ApplyJSON(ctx context.Context, msg types.VSTPMessage) types.Result {
	doc, err := FromJSON(msg)
	if err != nil {
		return types.Failure(err, "Failed to parse VSTP message: %v", err)
	}
	return in.Apply(ctx, doc)
}

func (in *Injector) Apply(ctx context.Context, doc *Document) types.Result {
	if err := doc.Validate(); err != nil {
		return types.Failure(err, "Failed to apply VSTP message: %v", err)
	}
	from, to := types.RunDateKey(doc.StartDate), types.RunDateKey(doc.EndDate)

	switch doc.Transaction {
	case Create:
		bs := doc.Schedule()
		if err := in.store.InsertSchedule(ctx, bs); err != nil {
			return types.Failure(err, "Failed to create VSTP schedule for train %s: %v", doc.TrainUID, err)
		}
		in.logger.Infow("Created VSTP schedule",
			"train_uid", bs.TrainUID,
			"runs_from", from,
			"runs_to", to,
			"locations", len(bs.Locations),
		)
		return types.Ok("Created VSTP schedule for train %s running from %s to %s as %s", bs.TrainUID, from, to, bs.TrainIdentity)

	case Delete:
		n, err := in.store.DeleteSchedules(ctx, doc.TrainUID, doc.StartDate, doc.EndDate, types.SourceAdHocAmendment)
		if err != nil {
			return types.Failure(err, "Failed to delete VSTP schedule %s: %v", doc.TrainUID, err)
		}
		if n == 0 {
			return types.Failure(ErrNoMatchingSchedule, "No VSTP schedule %s running from %s to %s to delete", doc.TrainUID, from, to)
		}
		in.logger.Infow("Deleted VSTP schedule", "train_uid", doc.TrainUID, "runs_from", from, "runs_to", to, "count", n)
		return types.Ok("Deleted VSTP schedule %s running from %s to %s", doc.TrainUID, from, to)
	}
	return types.Failure(ErrInvalidDocument, "Unknown VSTP transaction type %s", doc.Transaction)
}

// Schedule builds the basic schedule a create document describes. Times that
// go backwards from one point to the next are taken to have passed midnight.
func (d *Document) Schedule() *types.BasicSchedule {
	bs := &types.BasicSchedule{
		TrainUID:           d.TrainUID,
		STPIndicator:       types.ShortTermNew,
		RunsFrom:           types.Date(d.StartDate),
		RunsTo:             types.Date(d.EndDate),
		DaysRun:            d.DaysRun,
		BankHolidayRunning: d.BankHolidayRunning,
		Status:             d.Status,
		Category:           d.Segment.Category,
		TrainIdentity:      d.Segment.SignallingID,
		Headcode:           d.Segment.Headcode,
		ServiceCode:        d.Segment.ServiceCode,
		PowerType:          d.Segment.PowerType,
		TimingLoad:         d.Segment.TimingLoad,
		Speed:              d.Segment.Speed,
		OperatingChars:     d.Segment.OperatingChars,
		TrainClass:         d.Segment.TrainClass,
		ATOCCode:           d.Segment.ATOC,
		Source:             types.SourceAdHocAmendment,
		Locations:          make([]types.Location, 0, len(d.Locations)),
	}

	for i, l := range d.Locations {
		// times were checked by Validate
		loc := types.Location{
			Seq:        i + 1,
			TiplocCode: l.Tiploc,
			Platform:   l.Platform,
			Line:       l.Line,
			Path:       l.Path,
		}
		loc.Arrival, _ = NominalTime(l.Arrival)
		loc.Pass, _ = NominalTime(l.Pass)
		loc.Departure, _ = NominalTime(l.Departure)
		loc.PublicArrival, _ = NominalTime(l.PublicArrival)
		loc.PublicDeparture, _ = NominalTime(l.PublicDeparture)

		switch {
		case i == 0:
			loc.ApplyActivity(types.ActivityOrigin)
		case i == len(d.Locations)-1:
			loc.ApplyActivity(types.ActivityDestination)
		case loc.IsPublic():
			loc.ApplyActivity(types.ActivityCalling)
		}
		bs.Locations = append(bs.Locations, loc)
	}
	bs.MarkNextDay()
	return bs
}
