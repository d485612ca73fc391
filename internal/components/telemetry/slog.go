package telemetry

import (
	"fmt"
	"log/slog"
)

// SlogAPI implements API on top of log/slog, it is what the CLI runs with.
type SlogAPI struct {
	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// attrs turns report params into slog key value pairs. The first error is
// logged under "err", everything else by position as "params.N".
func attrs(id string, params []any) []any {
	out := make([]any, 0, len(params)*2+2)
	if id != "" {
		out = append(out, "id", id)
	}
	sawErr := false
	for i, p := range params {
		if err, ok := p.(error); ok && !sawErr {
			sawErr = true
			out = append(out, "err", err.Error())
			continue
		}
		out = append(out, fmt.Sprintf("params.%d", i), p)
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().Error("broken component", attrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().Warn("warning", attrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.logger().Debug(message, attrs("", params)...)
}

// ReportCount is logged at debug level, counts are reported on every event
// and would drown out everything else.
func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Debug("count", "id", id, "n", count)
}
