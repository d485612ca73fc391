package chrono

import "time"

// API is what anything depending on the wall clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the system clock in the timezone EDGAR publishes filings in.
type StandardImpl struct {
	location *time.Location
}

func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, it can be moved forward with Advance.
type FixedImpl struct {
	Time time.Time
}

func (f *FixedImpl) Now() time.Time {
	return f.Time
}

func (f *FixedImpl) Location() *time.Location {
	return f.Time.Location()
}

func (f *FixedImpl) Advance(d time.Duration) {
	f.Time = f.Time.Add(d)
}
