package notify

import "context"

// EventReportReady is sent once a report has been written to disk.
const EventReportReady = "report_ready"

// Event is a notification about a finished run.
type Event struct {
	Type     string // "report_ready"
	Title    string
	Body     string
	Mode     string // "group" | "org"
	Target   string // group or organization id
	Path     string // where the report was written
	Metadata map[string]any
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
