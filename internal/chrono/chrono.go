package chrono

import "time"

// API is what anything stamping scan results reads the time from.
type API interface {
	Now() time.Time
}

type System struct{}

func NewSystem() API {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}
