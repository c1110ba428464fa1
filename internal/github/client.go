// Package github creates the pull request that packages a run's commits.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mendtool/mend/internal/events"
)

// DefaultBaseURL is the GitHub REST API endpoint.
const DefaultBaseURL = "https://api.github.com"

// PRClient handles GitHub pull request operations for one repository.
type PRClient struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	token      string
	events     *events.Bus
}

// NewPRClient creates a client for owner/repo authenticated with token.
func NewPRClient(owner, repo, token string, bus *events.Bus) *PRClient {
	return &PRClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		owner:      owner,
		repo:       repo,
		token:      token,
		events:     bus,
	}
}

// doRequest issues one API request with auth headers and JSON body.
func (c *PRClient) doRequest(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

// apiError drains the response body into a descriptive error.
func apiError(resp *http.Response) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("github api %s: %s", resp.Status, bytes.TrimSpace(data))
}
