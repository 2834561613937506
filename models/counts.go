package models

// LineCounts holds the vulnerable line totals for one organization.
// Total is only ever changed through Add, so it always equals High+Medium+Low.
type LineCounts struct {
	High   int `json:"high"   yaml:"high"   db:"high"`
	Medium int `json:"medium" yaml:"medium" db:"medium"`
	Low    int `json:"low"    yaml:"low"    db:"low"`
	Total  int `json:"total"  yaml:"total"  db:"total"`
}

// Add adds lines to the bucket for sev and to Total. Unknown severities are
// ignored and report false.
func (c *LineCounts) Add(sev SeverityLevel, lines int) bool {
	switch sev {
	case SeverityHigh:
		c.High += lines
	case SeverityMedium:
		c.Medium += lines
	case SeverityLow:
		c.Low += lines
	default:
		return false
	}
	c.Total += lines
	return true
}

// Get returns the count for a single bucket.
func (c LineCounts) Get(sev SeverityLevel) int {
	switch sev {
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	default:
		return 0
	}
}
