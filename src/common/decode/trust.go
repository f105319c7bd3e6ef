package decode

import (
	"strings"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

const familyTrust = "TRUST"

var trustEnvelope = layout{
	{"message_type", 0, 4, text},
	{"message_queue_timestamp", 4, 14, timestamp},
	{"source_system_id", 18, 20, text},
	{"original_data_source", 38, 20, text},
	{"user_id", 58, 8, text},
	{"source_dev_id", 66, 8, text},
}

var trustLayouts = map[types.MsgType]layout{
	types.TrainActivation: {
		{"train_id", 74, 10, text},
		{"train_creation_timestamp", 84, 14, timestamp},
		{"schedule_origin_stanox", 98, 5, text},
		{"schedule_origin_depart_timestamp", 103, 14, timestamp},
		{"train_uid", 117, 6, text},
		{"schedule_start_date", 123, 14, timestamp},
		{"schedule_end_date", 137, 14, timestamp},
		{"schedule_source", 151, 1, text},
		{"schedule_type", 152, 1, text},
		{"schedule_wtt_id", 153, 5, text},
		{"d1266_record_number", 158, 5, text},
		{"tp_origin_location", 163, 5, text},
		{"tp_origin_timestamp", 168, 14, timestamp},
		{"train_call_type", 182, 1, text},
		{"train_call_mode", 183, 1, text},
		{"toc_id", 184, 2, text},
		{"train_service_code", 186, 8, text},
		{"train_file_address", 194, 3, text},
	},
	types.TrainCancellation: {
		{"train_id", 74, 10, text},
		{"train_cancellation_timestamp", 84, 14, timestamp},
		{"location", 98, 5, text},
		{"departure_timestamp", 103, 14, timestamp},
		{"original_location", 117, 5, text},
		{"original_location_timestamp", 122, 14, timestamp},
		{"cancellation_type", 136, 1, text},
		{"current_train_id", 137, 10, text},
		{"train_service_code", 147, 8, text},
		{"cancellation_reason_code", 155, 2, text},
		{"division_code", 157, 2, text},
		{"toc", 159, 2, text},
		{"variation_status", 161, 1, text},
		{"train_file_address", 162, 3, text},
	},
	types.TrainMovement: {
		{"train_id", 74, 10, text},
		{"actual_timestamp", 84, 14, timestamp},
		{"location_stanox", 98, 5, text},
		{"gbtt_event_timestamp", 103, 14, timestamp},
		{"planned_event_timestamp", 117, 14, timestamp},
		{"original_location", 131, 5, text},
		{"original_location_timestamp", 136, 14, timestamp},
		{"planned_event_type", 150, 1, text},
		{"event_type", 151, 1, text},
		{"event_source", 152, 1, text},
		{"correction_indicator", 153, 1, text},
		{"offroute_indicator", 154, 1, text},
		{"direction_indicator", 155, 1, text},
		{"line_indicator", 156, 1, text},
		{"platform", 157, 2, text},
		{"route", 159, 1, text},
		{"current_train_id", 160, 10, text},
		{"train_service_code", 170, 8, text},
		{"division_code", 178, 2, text},
		{"toc_id", 180, 2, text},
		{"timetable_variation", 182, 3, text},
		{"variation_status", 185, 1, text},
		{"next_report", 186, 5, text},
		{"next_report_run_time", 191, 3, text},
		{"train_terminated", 194, 1, text},
		{"delay_monitoring_point", 195, 1, text},
		{"train_file_address", 196, 3, text},
		{"reporting_stanox", 199, 5, text},
		{"auto_expected", 204, 1, text},
	},
	types.UnidentifiedTrain: {
		{"wtt_id", 74, 4, text},
		{"actual_timestamp", 78, 14, timestamp},
		{"location_stanox", 92, 5, text},
		{"event_type", 97, 1, text},
		{"direction_indicator", 98, 1, text},
		{"line_indicator", 99, 1, text},
		{"platform", 100, 2, text},
		{"route", 102, 1, text},
		{"division_code", 103, 2, text},
		{"variation_status", 105, 1, text},
	},
	types.TrainReinstatement: {
		{"train_id", 74, 10, text},
		{"reinstatement_timestamp", 84, 14, timestamp},
		{"location_stanox", 98, 5, text},
		{"departure_timestamp", 103, 14, timestamp},
		{"original_location", 117, 5, text},
		{"original_location_timestamp", 122, 14, timestamp},
		{"current_train_id", 136, 10, text},
		{"train_service_code", 146, 8, text},
		{"division_code", 154, 2, text},
		{"toc_id", 156, 2, text},
		{"variation_status", 158, 1, text},
		{"train_file_address", 159, 3, text},
	},
	types.ChangeOfOrigin: {
		{"train_id", 74, 10, text},
		{"change_of_origin_timestamp", 84, 14, timestamp},
		{"location_stanox", 98, 5, text},
		{"departure_timestamp", 103, 14, timestamp},
		{"original_location", 117, 5, text},
		{"original_location_timestamp", 122, 14, timestamp},
		{"current_train_id", 136, 10, text},
		{"train_service_code", 146, 8, text},
		{"reason_code", 154, 2, text},
		{"division_code", 156, 2, text},
		{"toc_id", 158, 2, text},
		{"variation_status", 160, 1, text},
		{"train_file_address", 161, 3, text},
	},
	types.ChangeOfIdentity: {
		{"train_id", 74, 10, text},
		{"event_timestamp", 84, 14, timestamp},
		{"revised_train_id", 98, 10, text},
		{"current_train_id", 108, 10, text},
		{"train_service_code", 118, 8, text},
		{"train_file_address", 126, 3, text},
	},
	types.ChangeOfLocation: {
		{"train_id", 74, 10, text},
		{"event_timestamp", 84, 14, timestamp},
		{"revised_location", 98, 5, text},
		{"planned_timestamp", 103, 14, timestamp},
		{"original_location", 117, 5, text},
		{"original_timestamp", 122, 14, timestamp},
		{"current_train_id", 136, 10, text},
		{"train_service_code", 146, 8, text},
		{"train_file_address", 154, 3, text},
	},
}

// TrustRaw decodes a positional train movements record.
func TrustRaw(record string) (Fields, error) {
	_, body := StripTag(record)
	if len(body) < 4 {
		body += strings.Repeat(" ", 4-len(body))
	}
	msgType := types.MsgType(body[:4])
	l, ok := trustLayouts[msgType]
	if !ok {
		return nil, &DecodeError{Family: familyTrust, Discriminant: string(msgType)}
	}
	out := Fields{}
	trustEnvelope.apply(body, out)
	l.apply(body, out)
	return out, nil
}

// TrustJSON maps a message from the JSON train movements feed onto the
// field names the raw form uses.
func TrustJSON(msg types.TrustMessage) (Fields, error) {
	h, b := msg.Header, msg.Body
	if _, ok := trustLayouts[h.MsgType]; !ok {
		return nil, &DecodeError{Family: familyTrust, Discriminant: string(h.MsgType)}
	}

	out := Fields{"message_type": string(h.MsgType)}
	setEpoch(out, "message_queue_timestamp", h.MsgQueueTimestamp)
	setString(out, "source_system_id", h.SourceSystemID)
	setString(out, "original_data_source", h.OriginalDataSource)
	setString(out, "user_id", h.UserID)
	setString(out, "source_dev_id", h.SourceDevID)
	setString(out, "train_id", b.TrainID)
	setString(out, "current_train_id", b.CurrentTrainID)
	setString(out, "train_service_code", b.TrainServiceCode)
	setString(out, "train_file_address", b.TrainFileAddress)
	setString(out, "division_code", b.DivisionCode)
	setString(out, "variation_status", b.VariationStatus)

	switch h.MsgType {
	case types.TrainActivation:
		setString(out, "train_uid", b.TrainUID)
		setEpoch(out, "train_creation_timestamp", b.CreationTimestamp)
		setString(out, "schedule_origin_stanox", b.SchedOriginStanox)
		setEpoch(out, "schedule_origin_depart_timestamp", b.OriginDepTimestamp)
		setDate(out, "schedule_start_date", b.ScheduleStartDate)
		setDate(out, "schedule_end_date", b.ScheduleEndDate)
		setString(out, "schedule_source", b.ScheduleSource)
		setString(out, "schedule_type", b.ScheduleType)
		setString(out, "schedule_wtt_id", b.ScheduleWTTID)
		setString(out, "tp_origin_location", b.TPOriginStanox)
		setDate(out, "tp_origin_timestamp", b.TPOriginTimestamp)
		setString(out, "train_call_type", b.TrainCallType)
		setString(out, "train_call_mode", b.TrainCallMode)
		setString(out, "toc_id", b.TOCID)
	case types.TrainCancellation:
		setEpoch(out, "train_cancellation_timestamp", b.CanxTimestamp)
		setString(out, "location", b.LocStanox)
		setEpoch(out, "departure_timestamp", b.DepTimestamp)
		setString(out, "original_location", b.OrigLocStanox)
		setEpoch(out, "original_location_timestamp", b.OrigLocTimestamp)
		setString(out, "cancellation_type", b.CanxType)
		setString(out, "cancellation_reason_code", b.CanxReasonCode)
		setString(out, "toc", b.TOCID)
	case types.TrainMovement, types.UnidentifiedTrain:
		setEpoch(out, "actual_timestamp", b.ActualTimestamp)
		setString(out, "location_stanox", b.LocStanox)
		setEpoch(out, "gbtt_event_timestamp", b.GBTTTimestamp)
		setEpoch(out, "planned_event_timestamp", b.PlannedTimestamp)
		setString(out, "planned_event_type", initial(b.PlannedEventType))
		setString(out, "event_type", initial(b.EventType))
		setString(out, "event_source", initial(b.EventSource))
		setString(out, "correction_indicator", flag(b.CorrectionInd))
		setString(out, "offroute_indicator", flag(b.OffrouteInd))
		setString(out, "direction_indicator", initial(b.DirectionInd))
		setString(out, "line_indicator", b.LineInd)
		setString(out, "platform", b.Platform)
		setString(out, "route", b.Route)
		setString(out, "toc_id", b.TOCID)
		setString(out, "timetable_variation", b.TimetableVariation)
		setString(out, "next_report", b.NextReportStanox)
		setString(out, "next_report_run_time", b.NextReportRunTime)
		setString(out, "train_terminated", flag(b.TrainTerminated))
		setString(out, "delay_monitoring_point", flag(b.DelayMonitoringPoint))
		setString(out, "reporting_stanox", b.ReportingStanox)
		setString(out, "auto_expected", flag(b.AutoExpected))
	case types.TrainReinstatement:
		setEpoch(out, "reinstatement_timestamp", b.ReinstatementTimestamp)
		setString(out, "location_stanox", b.LocStanox)
		setEpoch(out, "departure_timestamp", b.DepTimestamp)
		setString(out, "original_location", b.OrigLocStanox)
		setEpoch(out, "original_location_timestamp", b.OrigLocTimestamp)
		setString(out, "toc_id", b.TOCID)
	case types.ChangeOfOrigin:
		setEpoch(out, "change_of_origin_timestamp", b.COOTimestamp)
		setString(out, "location_stanox", b.LocStanox)
		setEpoch(out, "departure_timestamp", b.DepTimestamp)
		setString(out, "original_location", b.OrigLocStanox)
		setEpoch(out, "original_location_timestamp", b.OrigLocTimestamp)
		setString(out, "reason_code", b.ReasonCode)
		setString(out, "toc_id", b.TOCID)
	case types.ChangeOfIdentity:
		setEpoch(out, "event_timestamp", b.EventTimestamp)
		setString(out, "revised_train_id", b.RevisedTrainID)
	case types.ChangeOfLocation:
		setEpoch(out, "event_timestamp", b.EventTimestamp)
		setString(out, "revised_location", b.LocStanox)
		setEpoch(out, "planned_timestamp", b.PlannedTimestamp)
		setString(out, "original_location", b.OrigLocStanox)
		setEpoch(out, "original_timestamp", b.OrigLocTimestamp)
	}
	return out, nil
}

// initial reduces the JSON feed's spelled out codes ("ARRIVAL", "MANUAL")
// to the single letter the raw form carries.
func initial(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	return strings.ToUpper(v[:1])
}

func flag(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "y":
		return "Y"
	}
	return ""
}
