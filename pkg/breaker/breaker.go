package breaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// New trips after at least 3 requests with a failure ratio of 60% or more.
func New[T any](name string) *gobreaker.CircuitBreaker[T] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.Requests < 3 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return failureRatio >= 0.6
	}

	return gobreaker.NewCircuitBreaker[T](st)
}
