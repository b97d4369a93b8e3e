package domain

import "fmt"

// Failure describes an unsuccessful call to an external service.
// StatusCode is 0 when no HTTP response was received.
type Failure struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (f *Failure) String() string {
	if f.StatusCode == 0 {
		return "transport: " + f.Message
	}
	return fmt.Sprintf("status %d: %s", f.StatusCode, f.Message)
}

// Result is the outcome of an external service call: either OK with a Value
// or a Failure. Failures are data, not Go errors.
type Result[T any] struct {
	OK      bool
	Value   T
	Failure *Failure
}

// Succeeded wraps a successful value.
func Succeeded[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Failed builds a failed result.
func Failed[T any](statusCode int, message string) Result[T] {
	return Result[T]{Failure: &Failure{StatusCode: statusCode, Message: message}}
}

// Get returns the value and whether the call succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.OK
}
