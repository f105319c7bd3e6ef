package types

import "fmt"

type Status string

const (
	StatusOk      Status = "ok"
	StatusWarning Status = "warn"
	StatusError   Status = "error"
)

// Result is the outcome of applying one message.
type Result struct {
	Status  Status
	Message string
	Err     error
}

func Ok(format string, args ...any) Result {
	return Result{Status: StatusOk, Message: fmt.Sprintf(format, args...)}
}

func Warning(err error, format string, args ...any) Result {
	return Result{Status: StatusWarning, Message: fmt.Sprintf(format, args...), Err: err}
}

func Failure(err error, format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...), Err: err}
}

func (r Result) String() string {
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}
