package decode

import (
	"time"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
)

func (f Fields) MsgType() types.MsgType {
	return types.MsgType(f.String("message_type"))
}

func (f Fields) envelope() types.TrustEnvelope {
	ts, _ := f.Time("message_queue_timestamp")
	return types.TrustEnvelope{
		MsgType:            f.MsgType(),
		QueueTimestamp:     ts,
		SourceSystemID:     f.String("source_system_id"),
		OriginalDataSource: f.String("original_data_source"),
		UserID:             f.String("user_id"),
		SourceDevID:        f.String("source_dev_id"),
	}
}

func (f Fields) timeOrZero(key string) time.Time {
	t, _ := f.Time(key)
	return t
}

func (f Fields) AsActivation() types.TrustActivation {
	return types.TrustActivation{
		TrustEnvelope:            f.envelope(),
		TrainID:                  f.String("train_id"),
		TrainUID:                 f.String("train_uid"),
		OriginStanox:             f.String("schedule_origin_stanox"),
		OriginDepartureTimestamp: f.timeOrZero("schedule_origin_depart_timestamp"),
		ScheduleStartDate:        f.timeOrZero("schedule_start_date"),
		ScheduleEndDate:          f.timeOrZero("schedule_end_date"),
		ScheduleSource:           f.String("schedule_source"),
		ScheduleType:             f.String("schedule_type"),
		TOCID:                    f.String("toc_id"),
		TrainServiceCode:         f.String("train_service_code"),
	}
}

func (f Fields) AsCancellation() types.TrustCancellation {
	return types.TrustCancellation{
		TrustEnvelope: f.envelope(),
		TrainID:       f.String("train_id"),
		Timestamp:     f.timeOrZero("train_cancellation_timestamp"),
		Stanox:        f.String("location"),
		ReasonCode:    f.String("cancellation_reason_code"),
		Cancellation:  f.String("cancellation_type"),
	}
}

func (f Fields) AsMovement() types.TrustMovement {
	source := types.EventSourceAutomatic
	if f.String("event_source") == string(types.EventSourceManual) {
		source = types.EventSourceManual
	}
	return types.TrustMovement{
		TrustEnvelope:   f.envelope(),
		TrainID:         f.String("train_id"),
		ActualTimestamp: f.timeOrZero("actual_timestamp"),
		Stanox:          f.String("location_stanox"),
		EventType:       types.EventType(f.String("event_type")),
		EventSource:     source,
		Platform:        f.String("platform"),
		Line:            f.String("line_indicator"),
		Offroute:        f.String("offroute_indicator") == "Y",
		Terminated:      f.String("train_terminated") == "Y",
	}
}

func (f Fields) AsReinstatement() types.TrustReinstatement {
	return types.TrustReinstatement{
		TrustEnvelope: f.envelope(),
		TrainID:       f.String("train_id"),
		Timestamp:     f.timeOrZero("reinstatement_timestamp"),
		Stanox:        f.String("location_stanox"),
	}
}

func (f Fields) AsChangeOfOrigin() types.TrustChangeOfOrigin {
	return types.TrustChangeOfOrigin{
		TrustEnvelope: f.envelope(),
		TrainID:       f.String("train_id"),
		Timestamp:     f.timeOrZero("change_of_origin_timestamp"),
		Stanox:        f.String("location_stanox"),
		ReasonCode:    f.String("reason_code"),
	}
}
