package edgar

import "errors"

var (
	// ErrUserInput means the entity could not be resolved from what the user gave.
	ErrUserInput = errors.New("invalid entity")
	// ErrNoMatch means the index has no entity matching the query.
	ErrNoMatch = errors.New("no matching entity")
	// ErrNoReports means the entity was found but has no 13F-HR filings listed.
	ErrNoReports = errors.New("no 13F-HR reports")
	// ErrCorrelation means a depth batch could not pair every report with its filing date.
	ErrCorrelation = errors.New("report correlation failure")
)
