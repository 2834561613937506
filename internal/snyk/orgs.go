package snyk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const pageLimit = 100

// ListGroupOrgs returns every organization in a group, following pagination.
func (c *Client) ListGroupOrgs(ctx context.Context, groupID string) ([]OrgRecord, error) {
	q := url.Values{}
	q.Set("version", c.apiVersion)
	q.Set("limit", strconv.Itoa(pageLimit))

	orgs, _, err := listAll[OrgRecord](ctx, c, c.baseURL+"/rest/groups/"+url.PathEscape(groupID)+"/orgs", q)
	if err != nil {
		return nil, fmt.Errorf("listing orgs for group %s: %w", groupID, err)
	}
	return orgs, nil
}

// OrgSlug looks up the slug of a single organization. An empty slug is
// returned without error when the organization has none.
func (c *Client) OrgSlug(ctx context.Context, orgID string) (string, error) {
	q := url.Values{}
	q.Set("version", c.apiVersion)

	b, err := c.get(ctx, c.baseURL+"/rest/orgs/"+url.PathEscape(orgID), q)
	if err != nil {
		return "", err
	}
	var doc orgDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", fmt.Errorf("snyk: decode org %s: %w", orgID, err)
	}
	return doc.Data.Attributes.Slug, nil
}
