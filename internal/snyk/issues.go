package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ListCodeIssues returns every open code issue of an organization.
func (c *Client) ListCodeIssues(ctx context.Context, orgID string) (*IssueListing, error) {
	q := url.Values{}
	q.Set("version", c.apiVersion)
	q.Set("type", "code")
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("status", "open")

	issues, raw, err := listAll[IssueSummary](ctx, c, c.baseURL+"/rest/orgs/"+url.PathEscape(orgID)+"/issues", q)
	if err != nil {
		return nil, fmt.Errorf("listing code issues for org %s: %w", orgID, err)
	}
	return &IssueListing{Issues: issues, Raw: raw}, nil
}

// DetailPath is the request path of the detail endpoint for one problem.
func DetailPath(orgID, problemID string) string {
	return "/rest/orgs/" + url.PathEscape(orgID) + "/issues/detail/code/" + url.PathEscape(problemID)
}

// IssueDetail fetches the enrichment record of one code problem. The caller
// decides whether a failure is fatal; the counter treats it as a skip.
func (c *Client) IssueDetail(ctx context.Context, orgID, projectID, problemID string) (*IssueDetail, error) {
	q := url.Values{}
	q.Set("project_id", projectID)
	q.Set("version", DetailAPIVersion)

	b, err := c.get(ctx, c.baseURL+DetailPath(orgID, problemID), q)
	if err != nil {
		return nil, err
	}
	var d IssueDetail
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("snyk: decode issue detail %s: %w", problemID, err)
	}
	return &d, nil
}
