// Package report holds the per-organization vulnerable line report and
// renders it to the console and to disk.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/CosmoTheDev/snyklines/models"
	"go.yaml.in/yaml/v3"
)

// Entry is one organization's row.
type Entry struct {
	Org    models.Organization
	Counts models.LineCounts
}

// Key is the display key "<slug> (<id>)".
func (e Entry) Key() string { return e.Org.Key() }

// Report keeps entries in the order organizations were processed.
type Report struct {
	entries []Entry
	seen    map[string]bool
}

// New returns an empty report.
func New() *Report {
	return &Report{seen: map[string]bool{}}
}

// Add appends an organization's counts. An organization id may appear once.
func (r *Report) Add(org models.Organization, counts models.LineCounts) error {
	if r.seen[org.ID] {
		return fmt.Errorf("organization %s already in report", org.ID)
	}
	r.seen[org.ID] = true
	r.entries = append(r.entries, Entry{Org: org, Counts: counts})
	return nil
}

// Entries returns the rows in processing order.
func (r *Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len is the number of organizations in the report.
func (r *Report) Len() int { return len(r.entries) }

// GrandTotal sums every organization's counts.
func (r *Report) GrandTotal() models.LineCounts {
	var t models.LineCounts
	for _, e := range r.entries {
		for _, sev := range models.Severities {
			t.Add(sev, e.Counts.Get(sev))
		}
	}
	return t
}

// MarshalJSON writes the report as an object keyed by "<slug> (<id>)",
// preserving processing order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key())
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Counts)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML builds an ordered mapping node with the same shape as the JSON.
func (r *Report) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range r.entries {
		var v yaml.Node
		if err := v.Encode(e.Counts); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key()},
			&v,
		)
	}
	return node, nil
}
