// Package content is the HTTP client for the portfolio site's content API,
// the source of the admin-edited home/about/contact/projects/blog data the
// response banks interpolate.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"portfolio-chatbot/internal/domain"
)

// Getter is the paramstore surface needed to resolve the API key.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware
// context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("content: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client fetches content payloads from the portfolio API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	getter      Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given base URL. The API key is fetched
// from SSM under paramPrefix on the first request and reused for the lifetime
// of the process.
func NewClient(ps Getter, paramPrefix, baseURL string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("content: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("content: parameter prefix must not be empty")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("content: base URL must not be empty")
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetHomeContent fetches the hero section content.
func (c *Client) GetHomeContent(ctx context.Context) (domain.HomeContent, error) {
	var out domain.HomeContent
	if err := c.getJSON(ctx, "/api/content/home", nil, &out); err != nil {
		return domain.HomeContent{}, err
	}
	return out, nil
}

// GetAboutContent fetches skills, experience and education.
func (c *Client) GetAboutContent(ctx context.Context) (domain.AboutContent, error) {
	var out domain.AboutContent
	if err := c.getJSON(ctx, "/api/content/about", nil, &out); err != nil {
		return domain.AboutContent{}, err
	}
	return out, nil
}

// GetContactInfo fetches contact channels and social links.
func (c *Client) GetContactInfo(ctx context.Context) (domain.ContactInfo, error) {
	var out domain.ContactInfo
	if err := c.getJSON(ctx, "/api/content/contact", nil, &out); err != nil {
		return domain.ContactInfo{}, err
	}
	return out, nil
}

// ListRecentProjects fetches the newest projects, newest first.
func (c *Client) ListRecentProjects(ctx context.Context, limit int) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.getJSON(ctx, "/api/projects", limitQuery(limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentPublishedPosts fetches the newest published blog posts.
func (c *Client) ListRecentPublishedPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	q := limitQuery(limit)
	q.Set("published", "true")
	var out []domain.Post
	if err := c.getJSON(ctx, "/api/posts", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// resolveAPIKey fetches the key from SSM on the first call and caches the
// result, error included, for the process lifetime.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = c.getter.GetParameter(ctx, c.paramPrefix+"/content-api-key")
	})
	return c.apiKey, c.keyErr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("content: resolve api key: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("content: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("content: request %s: %w", path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: u, Body: string(buf)}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("content: read response body: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("content: decode %s response: %w", path, err)
	}
	return nil
}

// resolvedHTTPClient returns the configured HTTP client, or a default with a
// 5s timeout if none was set.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 5 * time.Second}
}
