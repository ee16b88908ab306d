// Package metrics computes pull-request lead-time statistics from the
// GitHub GraphQL API and renders them as a chart, a table and a readme
// section.
package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"spin/internal/logging"
)

const (
	graphqlEndpoint = "https://api.github.com/graphql"
	userAgent       = "cloud-starter-metrics/1.0"

	// Cap on fetched PRs; enough history for a 30-day chart.
	maxPRs   = 200
	pageSize = 100
)

// PullRequest is the subset of PR fields the pipeline consumes.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"createdAt"`
	MergedAt  *time.Time `json:"mergedAt"`
	Author    struct {
		Login string `json:"login"`
	} `json:"author"`
}

// Client is a minimal GitHub GraphQL client with retrying transport.
type Client struct {
	hc       *http.Client
	token    string
	endpoint string
}

// NewClient returns a client authenticated with token.
func NewClient(token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{
		hc:       rc.StandardClient(),
		token:    token,
		endpoint: graphqlEndpoint,
	}
}

type graphqlError struct {
	Message string `json:"message"`
}

// Query executes one GraphQL request and decodes the data field into out.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query GitHub API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode GitHub API response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("GraphQL errors: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}

const mergedPRsQuery = `
query($owner: String!, $repo: String!, $limit: Int!, $cursor: String) {
  repository(owner: $owner, name: $repo) {
    pullRequests(
      states: MERGED,
      first: $limit,
      after: $cursor,
      orderBy: {field: CREATED_AT, direction: DESC}
    ) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        number
        title
        createdAt
        mergedAt
        author {
          login
        }
      }
    }
  }
}`

// FetchMergedPRs pages through the repository's merged pull requests,
// newest first, up to the fetch cap.
func (c *Client) FetchMergedPRs(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var all []PullRequest
	var cursor *string

	for {
		var data struct {
			Repository struct {
				PullRequests struct {
					PageInfo struct {
						HasNextPage bool    `json:"hasNextPage"`
						EndCursor   *string `json:"endCursor"`
					} `json:"pageInfo"`
					Nodes []PullRequest `json:"nodes"`
				} `json:"pullRequests"`
			} `json:"repository"`
		}

		err := c.Query(ctx, mergedPRsQuery, map[string]any{
			"owner":  owner,
			"repo":   repo,
			"limit":  pageSize,
			"cursor": cursor,
		}, &data)
		if err != nil {
			return nil, err
		}

		prs := data.Repository.PullRequests
		all = append(all, prs.Nodes...)

		if !prs.PageInfo.HasNextPage || len(all) >= maxPRs {
			break
		}
		cursor = prs.PageInfo.EndCursor
	}

	logging.Logger().Debug("fetched merged pull requests", zap.Int("count", len(all)))
	return all, nil
}
