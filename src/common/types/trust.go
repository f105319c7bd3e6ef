package types

import "time"

type MsgType string

const (
	TrainActivation    MsgType = "0001"
	TrainCancellation  MsgType = "0002"
	TrainMovement      MsgType = "0003"
	UnidentifiedTrain  MsgType = "0004"
	TrainReinstatement MsgType = "0005"
	ChangeOfOrigin     MsgType = "0006"
	ChangeOfIdentity   MsgType = "0007"
	ChangeOfLocation   MsgType = "0008"
)

func (m MsgType) Name() string {
	switch m {
	case TrainActivation:
		return "Train Activation"
	case TrainCancellation:
		return "Train Cancellation"
	case TrainMovement:
		return "Train Movement"
	case UnidentifiedTrain:
		return "Unidentified Train"
	case TrainReinstatement:
		return "Train Reinstatement"
	case ChangeOfOrigin:
		return "Change of Origin"
	case ChangeOfIdentity:
		return "Change of Identity"
	case ChangeOfLocation:
		return "Change of Location"
	}
	return "Unknown"
}

// TrustMessage is one entry of the JSON train movements feed.
type TrustMessage struct {
	Header TrustHeader `json:"header"`
	Body   TrustBody   `json:"body"`
}

type TrustHeader struct {
	MsgType            MsgType `json:"msg_type"`
	MsgQueueTimestamp  string  `json:"msg_queue_timestamp"`
	SourceSystemID     string  `json:"source_system_id"`
	OriginalDataSource string  `json:"original_data_source"`
	UserID             string  `json:"user_id,omitempty"`
	SourceDevID        string  `json:"source_dev_id,omitempty"`
}

// TrustBody is the union of every JSON message body's fields.
type TrustBody struct {
	TrainID              string `json:"train_id"`
	ActualTimestamp      string `json:"actual_timestamp,omitempty"`
	LocStanox            string `json:"loc_stanox,omitempty"`
	GBTTTimestamp        string `json:"gbtt_timestamp,omitempty"`
	PlannedTimestamp     string `json:"planned_timestamp,omitempty"`
	PlannedEventType     string `json:"planned_event_type,omitempty"`
	EventType            string `json:"event_type,omitempty"`
	EventSource          string `json:"event_source,omitempty"`
	CorrectionInd        string `json:"correction_ind,omitempty"`
	OffrouteInd          string `json:"offroute_ind,omitempty"`
	DirectionInd         string `json:"direction_ind,omitempty"`
	LineInd              string `json:"line_ind,omitempty"`
	Platform             string `json:"platform,omitempty"`
	Route                string `json:"route,omitempty"`
	TrainServiceCode     string `json:"train_service_code,omitempty"`
	DivisionCode         string `json:"division_code,omitempty"`
	TOCID                string `json:"toc_id,omitempty"`
	TimetableVariation   string `json:"timetable_variation,omitempty"`
	VariationStatus      string `json:"variation_status,omitempty"`
	NextReportStanox     string `json:"next_report_stanox,omitempty"`
	NextReportRunTime    string `json:"next_report_run_time,omitempty"`
	TrainTerminated      string `json:"train_terminated,omitempty"`
	DelayMonitoringPoint string `json:"delay_monitoring_point,omitempty"`
	ReportingStanox      string `json:"reporting_stanox,omitempty"`
	AutoExpected         string `json:"auto_expected,omitempty"`
	CurrentTrainID       string `json:"current_train_id,omitempty"`
	TrainFileAddress     string `json:"train_file_address,omitempty"`

	TrainUID           string `json:"train_uid,omitempty"`
	CreationTimestamp  string `json:"creation_timestamp,omitempty"`
	SchedOriginStanox  string `json:"sched_origin_stanox,omitempty"`
	OriginDepTimestamp string `json:"origin_dep_timestamp,omitempty"`
	ScheduleStartDate  string `json:"schedule_start_date,omitempty"`
	ScheduleEndDate    string `json:"schedule_end_date,omitempty"`
	ScheduleSource     string `json:"schedule_source,omitempty"`
	ScheduleType       string `json:"schedule_type,omitempty"`
	ScheduleWTTID      string `json:"schedule_wtt_id,omitempty"`
	TPOriginStanox     string `json:"tp_origin_stanox,omitempty"`
	TPOriginTimestamp  string `json:"tp_origin_timestamp,omitempty"`
	TrainCallType      string `json:"train_call_type,omitempty"`
	TrainCallMode      string `json:"train_call_mode,omitempty"`

	CanxTimestamp          string `json:"canx_timestamp,omitempty"`
	CanxReasonCode         string `json:"canx_reason_code,omitempty"`
	CanxType               string `json:"canx_type,omitempty"`
	DepTimestamp           string `json:"dep_timestamp,omitempty"`
	OrigLocStanox          string `json:"orig_loc_stanox,omitempty"`
	OrigLocTimestamp       string `json:"orig_loc_timestamp,omitempty"`
	ReinstatementTimestamp string `json:"reinstatement_timestamp,omitempty"`
	COOTimestamp           string `json:"coo_timestamp,omitempty"`
	ReasonCode             string `json:"reason_code,omitempty"`
	RevisedTrainID         string `json:"revised_train_id,omitempty"`
	EventTimestamp         string `json:"event_timestamp,omitempty"`
}

// TrustEnvelope is the common leading part of every TRUST record.
type TrustEnvelope struct {
	MsgType            MsgType
	QueueTimestamp     time.Time
	SourceSystemID     string
	OriginalDataSource string
	UserID             string
	SourceDevID        string
}

type TrustActivation struct {
	TrustEnvelope
	TrainID                  string
	TrainUID                 string
	OriginStanox             string
	OriginDepartureTimestamp time.Time
	ScheduleStartDate        time.Time
	ScheduleEndDate          time.Time
	ScheduleSource           string
	ScheduleType             string
	TOCID                    string
	TrainServiceCode         string
}

type TrustCancellation struct {
	TrustEnvelope
	TrainID      string
	Timestamp    time.Time
	Stanox       string
	ReasonCode   string
	Cancellation string
}

type EventType string

const (
	EventArrival   EventType = "A"
	EventDeparture EventType = "D"
	EventPass      EventType = "P"
)

type TrustMovement struct {
	TrustEnvelope
	TrainID         string
	ActualTimestamp time.Time
	Stanox          string
	EventType       EventType
	EventSource     EventSource
	Platform        string
	Line            string
	Offroute        bool
	Terminated      bool
}

type TrustReinstatement struct {
	TrustEnvelope
	TrainID   string
	Timestamp time.Time
	Stanox    string
}

type TrustChangeOfOrigin struct {
	TrustEnvelope
	TrainID    string
	Timestamp  time.Time
	Stanox     string
	ReasonCode string
}
