package models

import "strings"

// SeverityLevel is one of the buckets vulnerable lines are summed into.
type SeverityLevel string

const (
	SeverityHigh   SeverityLevel = "high"
	SeverityMedium SeverityLevel = "medium"
	SeverityLow    SeverityLevel = "low"
)

// Severities lists the buckets in display order.
var Severities = []SeverityLevel{SeverityHigh, SeverityMedium, SeverityLow}

func (s SeverityLevel) String() string {
	return string(s)
}

// ParseSeverity normalises a Snyk severity string. The match is
// case-insensitive but not whitespace-tolerant; anything outside
// high/medium/low reports ok=false.
func ParseSeverity(raw string) (SeverityLevel, bool) {
	switch s := SeverityLevel(strings.ToLower(raw)); s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return s, true
	default:
		return s, false
	}
}
