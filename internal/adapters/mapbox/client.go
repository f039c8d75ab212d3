package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"technician-route-service/internal/domain"
)

const providerName = "mapbox"

// Observer receives one call per outbound request.
type Observer interface {
	ObserveProviderCall(provider, operation, outcome string, d time.Duration)
}

// Client implements DirectionsProvider and Geocoder on top of the Mapbox
// Directions v5 and Geocoding v5 APIs.
//
// Every call performs exactly one HTTP request; nothing is cached or retried.
// A missing access token is reported per call as a ConfigurationError so the
// UI can show a configuration banner instead of an empty map.
//
// The client is safe for concurrent use.
type Client struct {
	session  *http.Client
	token    string
	baseURL  string
	profile  string
	observer Observer
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(m *Client) { m.session = c } }
func WithBaseURL(u string) Option          { return func(m *Client) { m.baseURL = strings.TrimRight(u, "/") } }
func WithProfile(p string) Option          { return func(m *Client) { m.profile = p } }
func WithObserver(o Observer) Option       { return func(m *Client) { m.observer = o } }

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		session: &http.Client{Timeout: 10 * time.Second},
		token:   strings.TrimSpace(token),
		baseURL: "https://api.mapbox.com",
		profile: "driving",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an access token is present.
func (c *Client) Configured() bool { return c.token != "" }

func (c *Client) requireToken() error {
	if c.token == "" {
		return &domain.ConfigurationError{
			Setting: "MAPBOX_ACCESS_TOKEN",
			Message: "Mapbox access token is not configured; add it to your .env file",
		}
	}
	return nil
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, endpoint string, query url.Values) (*http.Request, error) {
	query.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// getJSON performs the request and decodes a 2xx body into out.
// Every failure is returned as a *domain.ProviderError.
func (c *Client) getJSON(req *http.Request, operation string, out any) (err error) {
	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.observer.ObserveProviderCall(providerName, operation, outcome, time.Since(start))
	}()

	resp, err := c.session.Do(req)
	if err != nil {
		return &domain.ProviderError{Provider: providerName, Err: redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var p errorPayload
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &p) == nil && p.Message != "" {
			msg = p.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &domain.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	return nil
}

// redact strips the query string (which carries the access token) from
// transport errors before they reach logs or API responses.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		u := ue.URL
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		return &url.Error{Op: ue.Op, URL: u, Err: ue.Err}
	}
	return err
}
