package types

import "encoding/xml"

// The VSTP feed carries the same document as JSON on the message bus and as
// attribute-style XML in the legacy file form, so each field is tagged for both.

type VSTPCIFMsgV1 struct {
	XMLName        xml.Name     `json:"-" xml:"VSTPCIFMsgV1"`
	SchemaLocation string       `json:"schemaLocation" xml:"schemaLocation,attr"`
	Classification string       `json:"classification" xml:"classification,attr"`
	Timestamp      string       `json:"timestamp" xml:"timestamp,attr"`
	Owner          string       `json:"owner" xml:"owner,attr"`
	OriginMsgId    string       `json:"originMsgId" xml:"originMsgId,attr"`
	Sender         Sender       `json:"Sender" xml:"Sender"`
	Schedule       VSTPSchedule `json:"schedule" xml:"schedule"`
}

type VSTPSchedule struct {
	ScheduleId          string                `json:"schedule_id" xml:"schedule_id,attr"`
	TransactionType     string                `json:"transaction_type" xml:"transaction_type,attr"`
	ScheduleStartDate   string                `json:"schedule_start_date" xml:"schedule_start_date,attr"`
	ScheduleEndDate     string                `json:"schedule_end_date" xml:"schedule_end_date,attr"`
	ScheduleDaysRuns    string                `json:"schedule_days_runs" xml:"schedule_days_runs,attr"`
	ApplicableTimetable string                `json:"applicable_timetable" xml:"applicable_timetable,attr"`
	BankHolidayRunning  string                `json:"CIF_bank_holiday_running" xml:"CIF_bank_holiday_running,attr"`
	TrainUID            string                `json:"CIF_train_uid" xml:"CIF_train_uid,attr"`
	TrainStatus         string                `json:"train_status" xml:"train_status,attr"`
	StpIndicator        string                `json:"CIF_stp_indicator" xml:"CIF_stp_indicator,attr"`
	ScheduleSegment     []VSTPScheduleSegment `json:"schedule_segment" xml:"schedule_segment"`
}

type VSTPScheduleSegment struct {
	SignallingId             string                 `json:"signalling_id" xml:"signalling_id,attr"`
	UicCode                  string                 `json:"uic_code" xml:"uic_code,attr"`
	AtocCode                 string                 `json:"atoc_code" xml:"atoc_code,attr"`
	TrainCategory            string                 `json:"CIF_train_category" xml:"CIF_train_category,attr"`
	Headcode                 string                 `json:"CIF_headcode" xml:"CIF_headcode,attr"`
	CourseIndicator          string                 `json:"CIF_course_indicator" xml:"CIF_course_indicator,attr"`
	TrainServiceCode         string                 `json:"CIF_train_service_code" xml:"CIF_train_service_code,attr"`
	BusinessSector           string                 `json:"CIF_business_sector" xml:"CIF_business_sector,attr"`
	PowerType                string                 `json:"CIF_power_type" xml:"CIF_power_type,attr"`
	TimingLoad               string                 `json:"CIF_timing_load" xml:"CIF_timing_load,attr"`
	Speed                    string                 `json:"CIF_speed" xml:"CIF_speed,attr"`
	OperatingCharacteristics string                 `json:"CIF_operating_characteristics" xml:"CIF_operating_characteristics,attr"`
	TrainClass               string                 `json:"CIF_train_class" xml:"CIF_train_class,attr"`
	Sleepers                 string                 `json:"CIF_sleepers" xml:"CIF_sleepers,attr"`
	Reservations             string                 `json:"CIF_reservations" xml:"CIF_reservations,attr"`
	ConnectionIndicator      string                 `json:"CIF_connection_indicator" xml:"CIF_connection_indicator,attr"`
	CateringCode             string                 `json:"CIF_catering_code" xml:"CIF_catering_code,attr"`
	ServiceBranding          string                 `json:"CIF_service_branding" xml:"CIF_service_branding,attr"`
	TractionClass            string                 `json:"CIF_traction_class" xml:"CIF_traction_class,attr"`
	ScheduleLocation         []VSTPScheduleLocation `json:"schedule_location" xml:"schedule_location"`
}

type VSTPScheduleLocation struct {
	ScheduledArrivalTime   string       `json:"scheduled_arrival_time" xml:"scheduled_arrival_time,attr"`
	ScheduledDepartureTime string       `json:"scheduled_departure_time" xml:"scheduled_departure_time,attr"`
	ScheduledPassTime      string       `json:"scheduled_pass_time" xml:"scheduled_pass_time,attr"`
	PublicArrivalTime      string       `json:"public_arrival_time" xml:"public_arrival_time,attr"`
	PublicDepartureTime    string       `json:"public_departure_time" xml:"public_departure_time,attr"`
	Platform               string       `json:"CIF_platform" xml:"CIF_platform,attr"`
	Line                   string       `json:"CIF_line" xml:"CIF_line,attr"`
	Path                   string       `json:"CIF_path" xml:"CIF_path,attr"`
	Activity               string       `json:"CIF_activity" xml:"CIF_activity,attr"`
	EngineeringAllowance   string       `json:"CIF_engineering_allowance" xml:"CIF_engineering_allowance,attr"`
	PathingAllowance       string       `json:"CIF_pathing_allowance" xml:"CIF_pathing_allowance,attr"`
	PerformanceAllowance   string       `json:"CIF_performance_allowance" xml:"CIF_performance_allowance,attr"`
	Location               VSTPLocation `json:"location" xml:"location"`
}

type VSTPLocation struct {
	Tiploc VSTPTiploc `json:"tiploc" xml:"tiploc"`
}

type VSTPTiploc struct {
	TiplocId string `json:"tiploc_id" xml:"tiploc_id,attr"`
}

type VSTPMessage struct {
	VSTPCIFMsgV1 VSTPCIFMsgV1 `json:"VSTPCIFMsgV1"`
}
