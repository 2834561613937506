package models

import "fmt"

// Organization is a Snyk organization targeted by a run.
type Organization struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// Key is the report key for the organization: "<slug> (<id>)".
func (o Organization) Key() string {
	return fmt.Sprintf("%s (%s)", o.Slug, o.ID)
}
