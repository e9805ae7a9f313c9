package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubBackend implements a read-only storage backend over the GitHub
// contents API, for artifacts committed to a repository.
type GitHubBackend struct {
	apiBase     string
	owner       string
	repo        string
	dir         string
	ref         string
	token       string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// gitHubContent is the subset of the contents API response we use.
type gitHubContent struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
}

// NewGitHubBackend creates a backend reading keys below dir of owner/repo at ref.
// An empty ref selects the default branch.
func NewGitHubBackend(owner, repo, dir, ref, token string, log *slog.Logger) *GitHubBackend {
	dir = strings.Trim(dir, "/")
	uri := fmt.Sprintf("github://%s/%s", owner, repo)
	if dir != "" {
		uri += "/" + dir
	}
	if ref != "" {
		uri += "?ref=" + url.QueryEscape(ref)
	}

	return &GitHubBackend{
		apiBase:     defaultGitHubAPI,
		owner:       owner,
		repo:        repo,
		dir:         dir,
		ref:         ref,
		token:       token,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: uri,
	}
}

// WithAPIBase points the backend at a GitHub Enterprise (or test) API.
func (b *GitHubBackend) WithAPIBase(apiBase string) *GitHubBackend {
	b.apiBase = strings.TrimSuffix(apiBase, "/")
	return b
}

// Fetch retrieves a file from the repository.
func (b *GitHubBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	cleaned, err := interfaces.CleanKey(key)
	if err != nil {
		return nil, err
	}
	filePath := path.Join(b.dir, cleaned)

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", b.apiBase, b.owner, b.repo, filePath)
	if b.ref != "" {
		endpoint += "?ref=" + url.QueryEscape(b.ref)
	}

	var content gitHubContent
	if err := b.get(ctx, endpoint, &content); err != nil {
		return nil, err
	}

	if content.Type != "file" {
		return nil, fmt.Errorf("%w: %s is a %s", interfaces.ErrContentNotFound, filePath, content.Type)
	}
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding: %s", content.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	b.log.Debug("Fetched content from GitHub",
		slog.String("path", filePath),
		slog.String("blobSHA", content.SHA),
		slog.Int("size", len(data)))

	return data, nil
}

// Store is not supported by this read-only backend.
func (b *GitHubBackend) Store(ctx context.Context, key string, data []byte) error {
	return interfaces.ErrReadOnlyBackend
}

// Available checks if the repository is accessible.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", b.apiBase, b.owner, b.repo)
	if err := b.get(ctx, endpoint, nil); err != nil {
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}

func (b *GitHubBackend) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
