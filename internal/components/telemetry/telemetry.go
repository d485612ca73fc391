package telemetry

import (
	"fmt"
)

// API is how components report what happens to them. Keeping it an
// interface lets tests swap in a Recorder and assert on reports.
//
// Ids name the component that is reporting, not the line of code, for
// example `store.summary` or `session.failure`. They are lowercase, words
// are joined with underscores and a component's methods are separated from
// it with a dot. Details such as the underlying error go into params.
type API interface {
	// ReportBroken reports a component failure that needs attention.
	ReportBroken(id string, params ...any)
	// ReportWarning reports something unexpected that the component recovered from.
	ReportWarning(id string, params ...any)
	// ReportDebug reports information that is only useful while debugging.
	ReportDebug(msg string, params ...any)
	// ReportCount reports the current value of a counter. Successive values
	// are points in time, they must not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with "<namespace>:".
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s:%s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
