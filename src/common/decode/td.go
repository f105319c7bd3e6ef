package decode

import (
	"encoding/xml"
	"strings"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

const familyTD = "train describer"

var tdHeader = layout{
	{"td_identity", 0, 2, text},
	{"message_type", 2, 2, text},
}

var tdLayouts = map[string]layout{
	"CA": {
		{"from_berth", 4, 4, text},
		{"to_berth", 8, 4, text},
		{"train_description", 12, 4, text},
		{"timestamp", 16, 6, text},
	},
	"CB": {
		{"from_berth", 4, 4, text},
		{"train_description", 8, 4, text},
		{"timestamp", 12, 6, text},
	},
	"CC": {
		{"to_berth", 4, 4, text},
		{"train_description", 8, 4, text},
		{"timestamp", 12, 6, text},
	},
	"CT": {
		{"timestamp_four", 4, 4, text},
		{"timestamp", 8, 6, text},
	},
	"SF": {
		{"address", 4, 2, text},
		{"data", 6, 2, text},
		{"timestamp", 8, 6, text},
	},
	"SG": {
		{"address", 4, 2, text},
		{"data", 6, 8, text},
		{"timestamp", 14, 6, text},
	},
	"SH": {
		{"address", 4, 2, text},
		{"data", 6, 8, text},
		{"timestamp", 14, 6, text},
	},
}

// TDRaw decodes a positional train describer record, optionally wrapped in
// its <XX_MSG> tag.
func TDRaw(record string) (Fields, error) {
	_, body := StripTag(record)
	if len(body) < 4 {
		body += strings.Repeat(" ", 4-len(body))
	}
	msgType := body[2:4]
	l, ok := tdLayouts[msgType]
	if !ok {
		return nil, &DecodeError{Family: familyTD, Discriminant: msgType}
	}
	out := Fields{}
	tdHeader.apply(body, out)
	l.apply(body, out)
	return out, nil
}

// compact attribute names mapped onto the raw field names
var tdAttributes = map[string]string{
	"area_id":     "td_identity",
	"from":        "from_berth",
	"to":          "to_berth",
	"descr":       "train_description",
	"report_time": "timestamp_four",
	"address":     "address",
	"data":        "data",
}

// TDCompact decodes the attribute form, e.g.
// <CA_MSG time="1349696911000" area_id="SK" from="3647" to="3649" descr="1F42"/>.
func TDCompact(record string) (Fields, error) {
	dec := xml.NewDecoder(strings.NewReader(record))
	var start xml.StartElement
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, &DecodeError{Family: familyTD, Discriminant: strings.TrimSpace(record)}
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = se
			break
		}
	}

	msgType := strings.TrimSuffix(start.Name.Local, "_MSG")
	for _, a := range start.Attr {
		if a.Name.Local == "msg_type" && a.Value != "" {
			msgType = a.Value
		}
	}
	if _, ok := tdLayouts[msgType]; !ok {
		return nil, &DecodeError{Family: familyTD, Discriminant: msgType}
	}

	out := Fields{"message_type": msgType}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "time":
			setString(out, "timestamp", clockTime(a.Value))
		default:
			if name, ok := tdAttributes[a.Name.Local]; ok {
				setString(out, name, a.Value)
			}
		}
	}
	return out, nil
}

// TDJSON maps a message from the JSON describer feed into the same shape.
func TDJSON(c *types.TDCMsgBody, s *types.TDSMsgBody) (Fields, error) {
	out := Fields{}
	var msgType string
	switch {
	case c != nil:
		msgType = string(c.MsgType)
		setString(out, "td_identity", c.AreaID)
		setString(out, "from_berth", c.From)
		setString(out, "to_berth", c.To)
		setString(out, "train_description", c.Descr)
		setString(out, "timestamp_four", c.ReportTime)
		setString(out, "timestamp", clockTime(c.Time))
	case s != nil:
		msgType = string(s.MsgType)
		setString(out, "td_identity", s.AreaID)
		setString(out, "address", s.Address)
		setString(out, "data", s.Data)
		setString(out, "timestamp", clockTime(s.Time))
	}
	if _, ok := tdLayouts[msgType]; !ok {
		return nil, &DecodeError{Family: familyTD, Discriminant: msgType}
	}
	out["message_type"] = msgType
	return out, nil
}

// clockTime renders an epoch millisecond value as the hhmmss clock time the
// raw form carries. Values that are already clock times pass through.
func clockTime(v string) string {
	v = strings.TrimSpace(v)
	if len(v) <= 6 {
		return v
	}
	t, ok := parseEpochMillis(v)
	if !ok {
		return ""
	}
	return t.Format("150405")
}
