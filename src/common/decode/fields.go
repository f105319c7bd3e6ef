// Package decode turns single feed records into named field sets.
//
// Every decoder is pure: the same input always yields the same Fields, and
// a recognised record type never fails however its contents are garbled.
// Blank sub-fields, and timestamps of all zeroes, are left out of the result.
package decode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

var ErrDecode = errors.New("decode error")

// DecodeError names the record type a decoder did not recognise.
type DecodeError struct {
	Family       string
	Discriminant string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unrecognised %s message type %q", e.Family, e.Discriminant)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Fields maps field names to either a trimmed string or a time.Time.
type Fields map[string]any

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f Fields) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

func (f Fields) Time(key string) (time.Time, bool) {
	t, ok := f[key].(time.Time)
	return t, ok
}

type kind int

const (
	text kind = iota
	timestamp
)

type field struct {
	name   string
	start  int
	length int
	kind   kind
}

type layout []field

func (l layout) width() int {
	w := 0
	for _, f := range l {
		if end := f.start + f.length; end > w {
			w = end
		}
	}
	return w
}

// apply copies every field of the layout out of record into out. Records
// shorter than the layout are padded, so a missing tail reads as absent.
func (l layout) apply(record string, out Fields) {
	if w := l.width(); len(record) < w {
		record += strings.Repeat(" ", w-len(record))
	}
	for _, f := range l {
		raw := record[f.start : f.start+f.length]
		switch f.kind {
		case timestamp:
			if t, ok := parseTimestamp(raw); ok {
				out[f.name] = t
			}
		default:
			if v := strings.TrimSpace(raw); v != "" {
				out[f.name] = v
			}
		}
	}
}

// parseTimestamp reads the compact yyyymmddhhmm[ss] forms, which are always
// UK local time.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, "0") == "" {
		return time.Time{}, false
	}
	var layout string
	switch len(raw) {
	case 14:
		layout = "20060102150405"
	case 12:
		layout = "200601021504"
	default:
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(layout, raw, types.London)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseEpochMillis reads the millisecond timestamps used by the JSON feeds.
func parseEpochMillis(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Trim(raw, "0") == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return parseTimestamp(raw)
	}
	return time.UnixMilli(ms).In(types.London), true
}

// parseDate reads the yyyy-mm-dd dates of the JSON feeds.
func parseDate(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), types.London)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func setString(out Fields, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		out[key] = v
	}
}

func setEpoch(out Fields, key, value string) {
	if t, ok := parseEpochMillis(value); ok {
		out[key] = t
	}
}

func setDate(out Fields, key, value string) {
	if t, ok := parseDate(value); ok {
		out[key] = t
	}
}

// StripTag removes an enclosing <XX_MSG>...</XX_MSG> pair if present and
// returns the tag name alongside the body.
func StripTag(record string) (string, string) {
	s := strings.TrimSpace(record)
	if !strings.HasPrefix(s, "<") {
		return "", record
	}
	end := strings.IndexByte(s, '>')
	if end < 0 || strings.HasSuffix(s[:end+1], "/>") {
		return "", record
	}
	tag := s[1:end]
	closing := "</" + tag + ">"
	if !strings.HasSuffix(s, closing) {
		return "", record
	}
	return tag, s[end+1 : len(s)-len(closing)]
}
