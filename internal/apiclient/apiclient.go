// Package apiclient talks to the climate-economic backend over JSON/HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/climdash/internal/auth"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// clientName is the subject of signed requests.
const clientName = "climdash-cli"

var _ contract.Backend = &Client{} // Compile-time check

// Client is the HTTP implementation of contract.Backend.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	auth    *auth.Service
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSecret signs every request with an HS256 bearer token.
func WithSecret(secret string) Option {
	return func(c *Client) { c.auth = auth.NewService(secret) }
}

// WithIndicator shows indicator while requests are in flight.
// It decorates the client transport and leaves http.DefaultTransport alone.
func WithIndicator(indicator contract.LoadingIndicator) Option {
	return func(c *Client) {
		if indicator == nil {
			return
		}
		hc := *c.http
		hc.Transport = &indicatorTransport{next: hc.Transport, indicator: indicator}
		c.http = &hc
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: contract.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the validated config.
func NewFromConfig(cfg *contract.Config, indicator contract.LoadingIndicator) *Client {
	return New(cfg.APIURL,
		WithTimeout(cfg.Timeout),
		WithSecret(cfg.APISecret),
		WithIndicator(indicator),
	)
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// DefaultData fetches the default dataset bundle.
func (c *Client) DefaultData(ctx context.Context) (*schema.RawBundle, error) {
	var out schema.RawBundle
	if err := c.do(ctx, http.MethodGet, schema.DefaultDataPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process sends raw data for processing. Non-2xx and malformed responses
// are reported as ErrProcessingFailed.
func (c *Client) Process(ctx context.Context, raw any) (*schema.RawBundle, error) {
	var out schema.RawBundle
	if err := c.do(ctx, http.MethodPost, schema.ProcessPath, raw, &out); err != nil {
		var httpErr *schema.HTTPError
		if errors.As(err, &httpErr) || errors.Is(err, schema.ErrParse) {
			return nil, fmt.Errorf("%w: %w", schema.ErrProcessingFailed, err)
		}
		return nil, err
	}
	return &out, nil
}

// Export asks the backend to serialize a bundle.
func (c *Client) Export(ctx context.Context, bundle *schema.DatasetBundle, format string) (string, error) {
	var out schema.ExportResponse
	req := schema.ExportRequest{Data: bundle, Format: format}
	if err := c.do(ctx, http.MethodPost, schema.ExportPath, req, &out); err != nil {
		return "", err
	}
	return out.ExportedData, nil
}

// UpdateScenario returns the recomputed scenario set as the scenario section of a bundle.
func (c *Client) UpdateScenario(ctx context.Context, req schema.ScenarioRequest) (*schema.RawBundle, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, schema.UpdateScenarioPath, req, &out); err != nil {
		return nil, err
	}
	return &schema.RawBundle{ScenarioData: out}, nil
}

// UpdateSensitivity returns the recomputed factors as the sensitivity section of a bundle.
func (c *Client) UpdateSensitivity(ctx context.Context, req schema.SensitivityRequest) (*schema.RawBundle, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, schema.UpdateSensitivityPath, req, &out); err != nil {
		return nil, err
	}
	return &schema.RawBundle{SensitivityData: out}, nil
}

// SaveSession stores a bundle remotely.
func (c *Client) SaveSession(ctx context.Context, bundle *schema.DatasetBundle) (string, error) {
	var out schema.SessionResponse
	if err := c.do(ctx, http.MethodPost, schema.SaveSessionPath, bundle, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("%w: %s: empty session id", schema.ErrParse, schema.SaveSessionPath)
	}
	return out.SessionID, nil
}

// LoadSession fetches a saved bundle.
func (c *Client) LoadSession(ctx context.Context, id string) (*schema.RawBundle, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/?#") {
		return nil, fmt.Errorf("invalid session id %q", id)
	}
	var out schema.RawBundle
	if err := c.do(ctx, http.MethodGet, schema.LoadSessionPath+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport returns the report HTML.
func (c *Client) GenerateReport(ctx context.Context, req schema.ReportRequest) (string, error) {
	var out string
	if err := c.do(ctx, http.MethodPost, schema.ReportPath, req, &out); err != nil {
		return "", err
	}
	return out, nil
}

// AdvancedAnalytics recomputes a bundle from temperature and economic data.
func (c *Client) AdvancedAnalytics(ctx context.Context, req schema.AnalyticsRequest) (*schema.RawBundle, error) {
	var out schema.RawBundle
	if err := c.do(ctx, http.MethodPost, schema.AnalyticsPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query sends a free-text question.
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	var out schema.QueryResponse
	if err := c.do(ctx, http.MethodPost, schema.QueryPath, schema.QueryRequest{Query: query}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Summary narrates a bundle.
func (c *Client) Summary(ctx context.Context, bundle *schema.DatasetBundle) (string, error) {
	var out schema.SummaryResponse
	if err := c.do(ctx, http.MethodPost, schema.SummaryPath, bundle, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

// CompareScenarios tabulates scenarios year by year.
func (c *Client) CompareScenarios(ctx context.Context, set *schema.ScenarioSet) ([]schema.ComparisonRow, error) {
	var out schema.CompareResponse
	if err := c.do(ctx, http.MethodPost, schema.ComparePath, schema.CompareRequest{Scenarios: set}, &out); err != nil {
		return nil, err
	}
	return out.Comparison, nil
}

// do sends one request and decodes the response into out. A *string out
// receives the raw body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.auth.Authorize(req, clientName); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr schema.APIError
		_ = json.Unmarshal(data, &apiErr)
		return &schema.HTTPError{Endpoint: path, Status: resp.StatusCode, Message: apiErr.Error}
	}

	if s, ok := out.(*string); ok {
		*s = string(data)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s response: %w", schema.ErrParse, path, err)
	}
	return nil
}

// classify maps transport failures to timeout, cancellation or network errors.
func classify(ctx context.Context, path string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", schema.ErrTimeout, path)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%s: %w", path, ctx.Err())
	}
	return fmt.Errorf("%w: %s: %w", schema.ErrNetwork, path, err)
}

// indicatorTransport shows a loading indicator from request start until the
// response body is closed.
type indicatorTransport struct {
	next      http.RoundTripper
	indicator contract.LoadingIndicator
}

func (t *indicatorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	t.indicator.Show()
	resp, err := next.RoundTrip(req)
	if err != nil {
		t.indicator.Hide()
		return nil, err
	}
	resp.Body = &hideOnClose{ReadCloser: resp.Body, hide: t.indicator.Hide}
	return resp, nil
}

type hideOnClose struct {
	io.ReadCloser
	once sync.Once
	hide func()
}

func (h *hideOnClose) Close() error {
	err := h.ReadCloser.Close()
	h.once.Do(h.hide)
	return err
}
