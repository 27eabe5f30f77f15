// Package githubapi fetches stargazers and user profiles from the GitHub
// REST API for the collect pipeline.
package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"starguard/pkg/models"
)

const userAgent = "starguard-collector"

// Stargazer is one stargazer row with its star timestamp. The timestamp
// requires the star+json media type.
type Stargazer struct {
	StarredAt time.Time `json:"starred_at"`
	User      struct {
		Login string `json:"login"`
		ID    int64  `json:"id"`
	} `json:"user"`
}

// UserProfile is the subset of a GitHub user record the detectors need.
type UserProfile struct {
	Login       string    `json:"login"`
	CreatedAt   time.Time `json:"created_at"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
}

// Client wraps the GitHub REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a GitHub API client. An empty token sends
// unauthenticated requests with the much lower rate limit.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: "https://api.github.com",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining == "0" {
			resetTime := resp.Header.Get("X-RateLimit-Reset")
			resp.Body.Close()
			return nil, fmt.Errorf("rate limit exceeded, resets at: %s", resetTime)
		}
	}

	return resp, nil
}

// readAndClose reads the body and closes it. Used in paginated loops
// instead of defer resp.Body.Close() to avoid leaking connections.
func readAndClose(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

func readErrorAndClose(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("github API error %d: %s", resp.StatusCode, string(body))
}

// GetStargazers fetches every stargazer with its star timestamp.
func (c *Client) GetStargazers(ctx context.Context, owner, repo string) ([]Stargazer, error) {
	allStargazers := []Stargazer{}
	page := 1
	perPage := 100

	for {
		url := fmt.Sprintf("%s/repos/%s/%s/stargazers?per_page=%d&page=%d",
			c.baseURL, owner, repo, perPage, page)

		// The star+json media type adds starred_at to each row.
		resp, err := c.doRequest(ctx, url, "application/vnd.github.star+json")
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, readErrorAndClose(resp)
		}

		var stargazers []Stargazer
		if err := readAndClose(resp, &stargazers); err != nil {
			return nil, fmt.Errorf("decode stargazers page %d: %w", page, err)
		}

		if len(stargazers) == 0 {
			break
		}

		allStargazers = append(allStargazers, stargazers...)

		if len(stargazers) < perPage {
			break
		}

		page++
	}

	return allStargazers, nil
}

// GetUser fetches one user profile. A 404 means the account no longer
// exists; the second return value reports existence.
func (c *Client) GetUser(ctx context.Context, login string) (*UserProfile, bool, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, login)

	resp, err := c.doRequest(ctx, url, "application/vnd.github.v3+json")
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, readErrorAndClose(resp)
	}

	var profile UserProfile
	if err := readAndClose(resp, &profile); err != nil {
		return nil, false, fmt.Errorf("decode user %s: %w", login, err)
	}
	return &profile, true, nil
}

// EnrichEvent fetches login's profile and builds the full star event.
// Deleted accounts yield an event with deleted status and no profile
// fields.
func (c *Client) EnrichEvent(ctx context.Context, sg Stargazer) (*models.StarEvent, error) {
	ev := &models.StarEvent{
		Username:  sg.User.Login,
		StarredAt: sg.StarredAt.UTC(),
		Status:    models.StatusActive,
	}

	profile, exists, err := c.GetUser(ctx, sg.User.Login)
	if err != nil {
		return nil, err
	}
	if !exists {
		ev.Status = models.StatusDeleted
		return ev, nil
	}

	ev.AccountCreated = profile.CreatedAt.UTC()
	ev.PublicRepos = profile.PublicRepos
	ev.Followers = profile.Followers
	ev.Following = profile.Following
	return ev, nil
}
