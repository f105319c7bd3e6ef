package engine

import (
	"context"
	"strings"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/decode"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/redis/go-redis/v9"
)

// BerthMap tracks which train description occupies each berth, as one
// Redis hash per train describer area.
type BerthMap struct {
	rdb *redis.Client
}

func NewBerthMap(rdb *redis.Client) *BerthMap {
	return &BerthMap{rdb: rdb}
}

func berthKey(area string) string {
	return "TD:" + area
}

func (b *BerthMap) Step(ctx context.Context, area, from, to, descr string) error {
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if from != "" {
			p.HDel(ctx, berthKey(area), from)
		}
		if to != "" {
			p.HSet(ctx, berthKey(area), to, descr)
		}
		return nil
	})
	return err
}

// Occupancy returns berth to train description for an area.
func (b *BerthMap) Occupancy(ctx context.Context, area string) (map[string]string, error) {
	return b.rdb.HGetAll(ctx, berthKey(area)).Result()
}

// ProcessTD decodes one train describer record in either its raw or its
// attribute form and applies it.
func (e *Engine) ProcessTD(ctx context.Context, record string) types.Result {
	var f decode.Fields
	var err error
	if isCompactTD(record) {
		f, err = decode.TDCompact(record)
	} else {
		f, err = decode.TDRaw(record)
	}
	if err != nil {
		return types.Failure(err, "Failed to decode TD message: %v", err)
	}
	return e.ProcessTDFields(ctx, f)
}

func isCompactTD(record string) bool {
	s := strings.TrimSpace(record)
	if !strings.HasPrefix(s, "<") {
		return false
	}
	tag, _ := decode.StripTag(s)
	return tag == ""
}

func (e *Engine) ProcessTDFields(ctx context.Context, f decode.Fields) types.Result {
	area := f.String("td_identity")
	from := f.String("from_berth")
	to := f.String("to_berth")
	descr := f.String("train_description")

	var res types.Result
	switch f.String("message_type") {
	case "CA":
		res = types.Ok("%s: Moved train %s from berth %s to berth %s", area, descr, from, to)
	case "CB":
		to = ""
		res = types.Ok("%s: Cancelled train %s in berth %s", area, descr, from)
	case "CC":
		from = ""
		res = types.Ok("%s: Interposed train %s in berth %s", area, descr, to)
	case "CT":
		return types.Ok("%s: Heartbeat received", area)
	case "SF":
		return types.Ok("%s: Equipment Status (SF) message not yet supported", area)
	case "SG":
		return types.Ok("%s: Equipment Base Scan (SG) message not yet supported", area)
	case "SH":
		return types.Ok("%s: Equipment Base Scan Sequence End message not yet supported", area)
	default:
		err := &decode.DecodeError{Family: "train describer", Discriminant: f.String("message_type")}
		return types.Failure(err, "Failed to decode TD message: %v", err)
	}

	if e.berths != nil {
		if err := e.berths.Step(ctx, area, from, to, descr); err != nil {
			return types.Failure(err, "%s: failed to update berths for train %s: %v", area, descr, err)
		}
	}
	return res
}
