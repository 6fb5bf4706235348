package spotlight

import (
	"fmt"
	"time"
)

// DiagnosticError is one entry of the collected error log.
type DiagnosticError struct {
	At      time.Time
	Source  string
	Message string
}

func (e DiagnosticError) String() string {
	return fmt.Sprintf("%s [%s] %s", e.At.Format("15:04:05.000"), e.Source, e.Message)
}

// Diagnostics collects runtime failures that were recovered instead of
// propagated, plus a few status flags for the debug overlay.
type Diagnostics struct {
	SurfaceAvailable bool
	ScreenCreated    bool
	ContentRendered  bool
	CurrentScreen    ScreenState
	Renderer         string
	Errors           []DiagnosticError

	clock  Clock
	logger Logger
	limit  int
}

const defaultDiagnosticsLimit = 64

func NewDiagnostics(clock Clock, logger Logger) *Diagnostics {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Diagnostics{
		clock:  clock,
		logger: logger,
		limit:  defaultDiagnosticsLimit,
	}
}

// Report logs err and appends it to the error log. Nil errors are ignored.
func (d *Diagnostics) Report(source string, err error) {
	if d == nil || err == nil {
		return
	}
	d.logger.Errorf("%s: %v", source, err)
	d.Errors = append(d.Errors, DiagnosticError{
		At:      d.clock.Now(),
		Source:  source,
		Message: err.Error(),
	})
	if len(d.Errors) > d.limit {
		d.Errors = d.Errors[len(d.Errors)-d.limit:]
	}
}

// Recovered converts a recovered panic value into a reported error.
func (d *Diagnostics) Recovered(source string, r any) {
	if r == nil {
		return
	}
	if err, ok := r.(error); ok {
		d.Report(source, fmt.Errorf("panic: %w", err))
		return
	}
	d.Report(source, fmt.Errorf("panic: %v", r))
}

func (d *Diagnostics) LastError() (DiagnosticError, bool) {
	if d == nil || len(d.Errors) == 0 {
		return DiagnosticError{}, false
	}
	return d.Errors[len(d.Errors)-1], true
}

func (d *Diagnostics) Summary() string {
	return fmt.Sprintf("renderer=%s surface=%t created=%t rendered=%t screen=%s errors=%d",
		d.Renderer, d.SurfaceAvailable, d.ScreenCreated, d.ContentRendered, d.CurrentScreen, len(d.Errors))
}
