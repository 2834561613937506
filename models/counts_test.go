package models

import "testing"

func TestParseSeverityIsCaseInsensitive(t *testing.T) {
	for raw, want := range map[string]SeverityLevel{
		"High":    SeverityHigh,
		"MEDIUM":  SeverityMedium,
		"LOW":     SeverityLow,
		"high":    SeverityHigh,
		"Medium":  SeverityMedium,
	} {
		got, ok := ParseSeverity(raw)
		if !ok || got != want {
			t.Fatalf("ParseSeverity(%q) = %q, %v; want %q, true", raw, got, ok, want)
		}
	}
	for _, raw := range []string{"critical", "info", "", "unknown", " high ", "low\n"} {
		if _, ok := ParseSeverity(raw); ok {
			t.Fatalf("ParseSeverity(%q) should not be bucketable", raw)
		}
	}
}

func TestLineCountsAddKeepsTotalInSync(t *testing.T) {
	var c LineCounts
	c.Add(SeverityHigh, 3)
	c.Add(SeverityLow, 1)
	c.Add(SeverityMedium, 7)
	if c.Add(SeverityLevel("critical"), 100) {
		t.Fatalf("unknown severity should be rejected")
	}
	want := LineCounts{High: 3, Medium: 7, Low: 1, Total: 11}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}
	if c.Total != c.High+c.Medium+c.Low {
		t.Fatalf("total %d does not match buckets %+v", c.Total, c)
	}
}

func TestOrganizationKey(t *testing.T) {
	o := Organization{ID: "org-123", Slug: "acme"}
	if got := o.Key(); got != "acme (org-123)" {
		t.Fatalf("unexpected key %q", got)
	}
}
