package api

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type HealthResponse struct {
	Status             string              `json:"status"`
	Version            string              `json:"version"`
	LatestScheduleDate *openapi_types.Date `json:"latest_schedule_date,omitempty"`
}

type BerthsResponse struct {
	Area   string            `json:"area"`
	Berths map[string]string `json:"berths"`
}

type ErrorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Stack   *string `json:"stack,omitempty"`
}

type NotFoundResponse struct {
	Error string `json:"error"`
}

type MaintenanceResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Location struct {
	Tiploc   string  `json:"tiploc"`
	Stanox   *string `json:"stanox,omitempty"`
	Crs      *string `json:"crs,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

type ScheduleLocation struct {
	Location        Location `json:"location"`
	LocationOrder   int      `json:"location_order"`
	Arrival         *string  `json:"arrival,omitempty"`
	PublicArrival   *string  `json:"public_arrival,omitempty"`
	Pass            *string  `json:"pass,omitempty"`
	Departure       *string  `json:"departure,omitempty"`
	PublicDeparture *string  `json:"public_departure,omitempty"`
	Platform        *string  `json:"platform,omitempty"`
	Activity        *string  `json:"activity,omitempty"`
	NextDay         bool     `json:"next_day"`
}

type ServiceResponse struct {
	Id                string             `json:"id"`
	TrainUid          string             `json:"train_uid"`
	StpIndicator      string             `json:"stp_indicator"`
	Source            string             `json:"source"`
	SignallingId      string             `json:"signalling_id"`
	TrainCategory     string             `json:"train_category"`
	TrainStatus       string             `json:"train_status"`
	AtocCode          string             `json:"atoc_code"`
	ScheduleStartDate openapi_types.Date `json:"schedule_start_date"`
	ScheduleEndDate   openapi_types.Date `json:"schedule_end_date"`
	ScheduleDaysRuns  string             `json:"schedule_days_runs"`
	Locations         []ScheduleLocation `json:"locations"`
}

type WindowDate struct {
	RunsOn   openapi_types.Date `json:"runs_on"`
	Services []ServiceResponse  `json:"services"`
}

type WindowResponse struct {
	Dates []WindowDate `json:"dates"`
}

type DailyLocation struct {
	ScheduleLocation
	ActualArrival   *string `json:"actual_arrival,omitempty"`
	ActualPass      *string `json:"actual_pass,omitempty"`
	ActualDeparture *string `json:"actual_departure,omitempty"`
	ActualPlatform  *string `json:"actual_platform,omitempty"`
	Cancelled       bool    `json:"cancelled"`
}

type DailyScheduleResponse struct {
	Id                  string             `json:"id"`
	TrainUid            string             `json:"train_uid"`
	RunsOn              openapi_types.Date `json:"runs_on"`
	TrainIdentityUnique string             `json:"train_identity_unique"`
	SignallingId        string             `json:"signalling_id"`
	Cancelled           bool               `json:"cancelled"`
	CancellationReason  *string            `json:"cancellation_reason,omitempty"`
	DepartedOrigin      bool               `json:"departed_origin"`
	Terminated          bool               `json:"terminated"`
	LastLocation        *string            `json:"last_location,omitempty"`
	Locations           []DailyLocation    `json:"locations"`
}
