// Package prtimes is a client for the PR TIMES content API.
package prtimes

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
	"time"

	"golang.org/x/time/rate"

	"hookscope/internal/core"
)

const (
	// DefaultBaseURL is the hackathon staging endpoint.
	DefaultBaseURL = "https://hackathon.stg-prtimes.net/api"
	// DefaultTimeout bounds each request.
	DefaultTimeout = 30 * time.Second
	// DefaultMinInterval spaces consecutive requests.
	DefaultMinInterval = 100 * time.Millisecond

	maxBodyBytes = 8 << 20
)

var (
	// ErrAuth marks 401 and 403 responses. They usually mean the caller is
	// outside the allowed network rather than holding a bad token.
	ErrAuth = errors.New("upstream authorization failed")
	// ErrUnavailable marks 5xx responses, timeouts and transport failures.
	ErrUnavailable = errors.New("upstream unavailable")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       []byte
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prtimes API %s returned status %d", e.Path, e.StatusCode)
}

// Is lets errors.Is match the sentinel errors by status class.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// Payload decodes the response body as JSON, falling back to a message object.
func (e *StatusError) Payload() any {
	var v any
	if err := json.Unmarshal(e.Body, &v); err == nil {
		return v
	}
	return map[string]string{"message": string(e.Body)}
}

// transportError wraps failures that never produced a response.
type transportError struct{ err error }

func (e *transportError) Error() string        { return fmt.Sprintf("prtimes API request failed: %v", e.err) }
func (e *transportError) Unwrap() error        { return e.err }
func (e *transportError) Is(target error) bool { return target == ErrUnavailable }

// IsTimeout reports whether err came from a deadline or a 504 response.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusGatewayTimeout {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	MinInterval time.Duration // Minimum spacing between requests; 0 uses DefaultMinInterval
	HTTPClient  *http.Client
}

// Client calls the content API.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client with defaults applied.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Configured reports whether a bearer token is set.
func (c *Client) Configured() bool {
	return c.token != ""
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ReleaseQuery filters a release listing.
type ReleaseQuery struct {
	PerPage  int
	Page     int
	FromDate string // YYYY-MM-DD
	ToDate   string // YYYY-MM-DD
}

func (q ReleaseQuery) values() url.Values {
	v := url.Values{}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	v.Set("page", strconv.Itoa(q.Page))
	if q.FromDate != "" {
		v.Set("from_date", q.FromDate)
	}
	if q.ToDate != "" {
		v.Set("to_date", q.ToDate)
	}
	return v
}

// Companies returns one page of the company directory.
func (c *Client) Companies(ctx context.Context, perPage, page int) ([]core.Company, error) {
	v := url.Values{}
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))

	var companies []core.Company
	if err := c.get(ctx, "/companies", v, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// CategoryReleases returns one page of releases in a category.
func (c *Client) CategoryReleases(ctx context.Context, categoryID int, q ReleaseQuery) ([]core.Release, error) {
	var releases []core.Release
	path := fmt.Sprintf("/categories/%d/releases", categoryID)
	if err := c.get(ctx, path, q.values(), &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// CompanyReleases returns one page of releases issued by a company.
func (c *Client) CompanyReleases(ctx context.Context, companyID int64, q ReleaseQuery) ([]core.Release, error) {
	var releases []core.Release
	path := fmt.Sprintf("/companies/%d/releases", companyID)
	if err := c.get(ctx, path, q.values(), &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// ReleaseStatistics returns the statistics of one release.
func (c *Client) ReleaseStatistics(ctx context.Context, companyID, releaseID int64) (core.ReleaseStatistics, error) {
	var stats core.ReleaseStatistics
	path := fmt.Sprintf("/companies/%d/releases/%d/statistics", companyID, releaseID)
	if err := c.get(ctx, path, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &transportError{err: fmt.Errorf("rate limiter: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: body, Path: path}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}
