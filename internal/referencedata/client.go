// Package referencedata serves the location hierarchy and gotra lists the
// wizard selects from: an HTTP client for the reference service, a Redis
// read-through cache and an embedded seed for local runs.
package referencedata

import (
	"context"
	"net/http"
	"net/url"

	"membership/internal/collaborators/rest"
	"membership/internal/registration/models"
)

// Client implements ports.ReferenceData over the reference service API.
type Client struct {
	rest *rest.Client
}

func NewClient(rc *rest.Client) *Client {
	return &Client{rest: rc}
}

type listResponse struct {
	Items []models.ReferenceEntry `json:"items"`
}

// List fetches the entries of level under parentCode.
func (c *Client) List(ctx context.Context, level models.Level, parentCode string) ([]models.ReferenceEntry, error) {
	if needsParent(level) && parentCode == "" {
		return []models.ReferenceEntry{}, nil
	}
	var query url.Values
	if parentCode != "" {
		query = url.Values{"parent": {parentCode}}
	}
	var resp listResponse
	if err := c.rest.Do(ctx, http.MethodGet, "/reference/"+url.PathEscape(string(level)), query, nil, &resp); err != nil {
		return nil, rest.Normalize("reference_"+string(level), err)
	}
	if resp.Items == nil {
		resp.Items = []models.ReferenceEntry{}
	}
	return resp.Items, nil
}

func needsParent(level models.Level) bool {
	return level.Parent() != ""
}
