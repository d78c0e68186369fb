// Package identity resolves opaque bearer tokens to stable external identity
// strings. The only oracle at this time is the GitHub API.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kachery/gateway/internal/common"
)

// Oracle maps a bearer token to an identity string such as "github|login".
type Oracle interface {
	ResolveToken(ctx context.Context, token string) (string, error)
}

// GitHubOracle resolves GitHub access tokens via the /user endpoint. The
// token→identity mapping is cached in-process indefinitely (tokens are
// treated as immutable once issued) and never persisted.
type GitHubOracle struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]string
}

// NewGitHubOracle creates an oracle against the given API base URL
// (https://api.github.com in production, an httptest server in tests).
func NewGitHubOracle(baseURL string) *GitHubOracle {
	return &GitHubOracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   make(map[string]string),
	}
}

func (o *GitHubOracle) ResolveToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty access token", common.ErrUnauthorized)
	}

	o.mu.Lock()
	id, ok := o.cache[token]
	o.mu.Unlock()
	if ok {
		return id, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "token "+token)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: identity lookup failed with status %d", common.ErrUnauthorized, resp.StatusCode)
	}

	var body struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Login == "" {
		return "", fmt.Errorf("%w: identity lookup returned no login", common.ErrUnauthorized)
	}

	id = "github|" + body.Login
	o.mu.Lock()
	o.cache[token] = id
	o.mu.Unlock()
	return id, nil
}
