package iconapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/zauberjournal/journal-api/pkg/errors"
)

const (
	IconMappingsPath = "/api/v1/icon-mappings"

	defaultTimeout             = 10 * time.Second
	errorBodyReadLimit   int64 = 1024
	successBodyReadLimit int64 = 4 << 20
)

var errBaseURLRequired = errors.New("icon api base url is required")

// Icon is one keyword to emoji pair as served by the mapping endpoint.
type Icon struct {
	Keyword string `json:"keyword"`
	Emoji   string `json:"emoji"`
}

// IconsResponse is the wire envelope of the mapping endpoint.
type IconsResponse struct {
	Icons []Icon `json:"icons"`
}

// StatusError reports a non-200 response from the mapping endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("icon api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("icon api returned status %d: %s", e.StatusCode, e.Body)
}

// DecodeError reports a response body that is not a valid mapping table.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode icon mappings: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client fetches the ingredient icon table over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

// NewClient builds a client against baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "zauberjournal-icons/1",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FetchIcons retrieves the complete mapping table in server order.
func (c *Client) FetchIcons(ctx context.Context) ([]Icon, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "icon api client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+IconMappingsPath, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build icon mappings request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute icon mappings request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}, "icon mappings request failed")
	}

	var payload IconsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, successBodyReadLimit)).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &DecodeError{Err: err}, "decode icon mappings response")
	}
	if payload.Icons == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &DecodeError{Err: errors.New(`missing "icons" field`)}, "decode icon mappings response")
	}

	return payload.Icons, nil
}
