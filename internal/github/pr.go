package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mendtool/mend/internal/events"
)

// PRInfo holds information about a created PR
type PRInfo struct {
	Number       int
	URL          string
	Branch       string
	TargetBranch string
	Title        string
	CreatedAt    time.Time
}

// PRRequest describes the pull request to open.
type PRRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// CreatePR opens exactly one pull request for the pushed branch.
// Callers must never invoke it for a run with zero commits.
func (c *PRClient) CreatePR(ctx context.Context, req PRRequest) (*PRInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls", c.baseURL, c.owner, c.repo)

	payload := map[string]string{
		"title": req.Title,
		"body":  req.Body,
		"head":  req.Head,
		"base":  req.Base,
	}

	resp, err := c.doRequest(ctx, "POST", url, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}
	defer resp.Body.Close()

	var created struct {
		Number    int       `json:"number"`
		HTMLURL   string    `json:"html_url"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode PR response: %w", err)
	}

	info := &PRInfo{
		Number:       created.Number,
		URL:          created.HTMLURL,
		Branch:       req.Head,
		TargetBranch: req.Base,
		Title:        created.Title,
		CreatedAt:    created.CreatedAt,
	}

	if c.events != nil {
		c.events.Emit(events.NewEvent(events.PRCreated, "").WithPayload(map[string]any{
			"number": info.Number,
			"url":    info.URL,
			"branch": info.Branch,
			"target": info.TargetBranch,
		}))
	}

	return info, nil
}
