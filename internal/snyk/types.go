package snyk

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMissingIdentifiers marks an issue summary without a project id or
	// problem id. Such issues cannot be resolved and are skipped.
	ErrMissingIdentifiers = errors.New("missing project_id or problem id")
	// ErrMissingLineRange marks an issue detail without a usable primary region.
	ErrMissingLineRange = errors.New("missing line range")
)

// OrgRecord is one entry of GET /rest/groups/{group_id}/orgs.
type OrgRecord struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"attributes"`
}

type orgDocument struct {
	Data OrgRecord `json:"data"`
}

type relationship struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

// IssueSummary is one entry of GET /rest/orgs/{org_id}/issues.
type IssueSummary struct {
	ID         string `json:"id"`
	Attributes struct {
		Key      string `json:"key"`
		Title    string `json:"title"`
		Problems []struct {
			ID     string `json:"id"`
			Source string `json:"source"`
		} `json:"problems"`
	} `json:"attributes"`
	Relationships struct {
		Organization relationship `json:"organization"`
		ScanItem     relationship `json:"scan_item"`
	} `json:"relationships"`
}

// ProjectID is relationships.scan_item.data.id.
func (s IssueSummary) ProjectID() string {
	return s.Relationships.ScanItem.Data.ID
}

// ProblemID is attributes.problems[0].id, the key for the detail endpoint.
func (s IssueSummary) ProblemID() string {
	if len(s.Attributes.Problems) == 0 {
		return ""
	}
	return s.Attributes.Problems[0].ID
}

// Identifiers returns the project and problem ids needed to fetch the detail.
func (s IssueSummary) Identifiers() (projectID, problemID string, err error) {
	projectID, problemID = s.ProjectID(), s.ProblemID()
	if projectID == "" || problemID == "" {
		return projectID, problemID, ErrMissingIdentifiers
	}
	return projectID, problemID, nil
}

// IssueListing is the full, concatenated open code issue listing of one org.
type IssueListing struct {
	Issues []IssueSummary
	// Raw keeps the undecoded items in listing order for debug dumps.
	Raw []json.RawMessage
}

// IssueDetail is the response of the code issue detail endpoint.
type IssueDetail struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Severity      string `json:"severity"`
			PrimaryRegion struct {
				StartLine *int `json:"startLine"`
				EndLine   *int `json:"endLine"`
			} `json:"primaryRegion"`
			PrimaryFilePath string `json:"primaryFilePath"`
		} `json:"attributes"`
	} `json:"data"`
}

// Severity returns the raw severity string.
func (d *IssueDetail) Severity() string {
	return d.Data.Attributes.Severity
}

// LineRange returns the 1-based inclusive start and end lines. Absent or zero
// bounds are unusable.
func (d *IssueDetail) LineRange() (start, end int, err error) {
	r := d.Data.Attributes.PrimaryRegion
	if r.StartLine == nil || r.EndLine == nil || *r.StartLine == 0 || *r.EndLine == 0 {
		return 0, 0, ErrMissingLineRange
	}
	return *r.StartLine, *r.EndLine, nil
}
