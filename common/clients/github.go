package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger interface for client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

const userAgent = "svm/1.0"

// GitHubClient fetches release metadata and assets of the upstream project
type GitHubClient struct {
	baseURL string
	client  *http.Client
	logger  Logger
}

// NewGitHubClient creates a new GitHub API client
func NewGitHubClient(baseURL string, logger Logger) *GitHubClient {
	return &GitHubClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Release is a GitHub release with its downloadable assets
type Release struct {
	TagName         string    `json:"tag_name"`
	TargetCommitish string    `json:"target_commitish"`
	Name            string    `json:"name"`
	Draft           bool      `json:"draft"`
	Prerelease      bool      `json:"prerelease"`
	CreatedAt       time.Time `json:"created_at"`
	Assets          []Asset   `json:"assets"`
}

// Asset is a single downloadable release file
type Asset struct {
	Name               string    `json:"name"`
	Size               int64     `json:"size"`
	CreatedAt          time.Time `json:"created_at"`
	BrowserDownloadURL string    `json:"browser_download_url"`
}

// RefTag resolves an annotated tag to its commit
type RefTag struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"object"`
}

// GetReleases fetches all releases of a repository
func (c *GitHubClient) GetReleases(ctx context.Context, repo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases", c.baseURL, repo)

	var releases []Release
	if err := c.getJSON(ctx, url, &releases); err != nil {
		return nil, fmt.Errorf("failed to fetch releases: %w", err)
	}

	c.logger.Info("fetched releases", "repo", repo, "count", len(releases))
	return releases, nil
}

// GetRefTag fetches the git ref of a tag to resolve its commit hash
func (c *GitHubClient) GetRefTag(ctx context.Context, repo, tag string) (*RefTag, error) {
	url := fmt.Sprintf("%s/repos/%s/git/ref/tags/%s", c.baseURL, repo, tag)

	refTag := &RefTag{}
	if err := c.getJSON(ctx, url, refTag); err != nil {
		return nil, fmt.Errorf("failed to fetch ref tag %s: %w", tag, err)
	}

	return refTag, nil
}

// DownloadAsset downloads a release asset and returns its bytes
func (c *GitHubClient) DownloadAsset(ctx context.Context, asset Asset) ([]byte, error) {
	c.logger.Debug("downloading asset", "name", asset.Name, "size", asset.Size)

	resp, err := c.do(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download asset %s: %w", asset.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", asset.Name, err)
	}

	return data, nil
}

func (c *GitHubClient) getJSON(ctx context.Context, url string, dest any) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

func (c *GitHubClient) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("request failed: url=%s status=%d body=%s", url, resp.StatusCode, string(body))
	}

	return resp, nil
}
