package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/config"
	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/metrics"
	"github.com/fieldtrace/evidence-cli/internal/tracing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxRawBody bounds how much of a raw response body is carried in a Result.
const maxRawBody = 1000

// Options configures a single gateway call.
type Options struct {
	Method      string // defaults to GET
	Body        interface{}
	RawBody     io.Reader // pre-encoded body (e.g. multipart); overrides Body
	ContentType string    // required with RawBody
	Headers     map[string]string
	SkipAuth    bool
}

// Client is the single choke point for every network call. It injects auth
// headers from the credential store, resolves endpoints against the base URL
// and maps every outcome, including transport failures, to a Result. Fetch
// never returns a Go error.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      credstore.Store
	logger     *logrus.Logger
}

// New creates a gateway client.
func New(cfg *config.Config, store credstore.Store, logger *logrus.Logger) (*Client, error) {
	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.API.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		store:      store,
		logger:     logger,
	}, nil
}

// Fetch executes a request against the configured API. requiresAuth defaults
// to true; set Options.SkipAuth for the unauthenticated auth workflows.
func (c *Client) Fetch(ctx context.Context, endpoint string, opts Options) Result {
	start := time.Now()

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := tracing.StartSpan(ctx, "gateway.fetch",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("endpoint", endpoint),
		))
	defer span.End()

	target := c.resolveURL(endpoint)

	var bodyReader io.Reader
	if opts.RawBody != nil {
		bodyReader = opts.RawBody
	} else if opts.Body != nil {
		bodyBytes, err := json.Marshal(opts.Body)
		if err != nil {
			return c.fail(endpoint, method, start, Result{
				Error: fmt.Sprintf("failed to marshal request body: %v", err),
			})
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return c.fail(endpoint, method, start, Result{
			Error: fmt.Sprintf("failed to create request: %v", err),
		})
	}

	// Default JSON content type; caller-supplied headers win (multipart
	// uploads override via ContentType).
	req.Header.Set("Content-Type", "application/json")
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// Attach auth headers if required. A missing token is not a hard failure
	// here: the request proceeds headerless and the server's 401 surfaces
	// the problem instead.
	if !opts.SkipAuth {
		creds := c.store.Load(ctx)
		if creds.HasToken() {
			req.Header.Set("Authorization", "Bearer "+creds.Token)
			if creds.SessionID != "" {
				req.Header.Set("Session-ID", creds.SessionID)
			}
		} else {
			c.logger.WithField("endpoint", endpoint).Warn("Authentication required but no token found")
		}
	}

	// Inject tracing headers
	for k, v := range tracing.InjectHeaders(ctx) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.WithError(err).WithField("endpoint", endpoint).Error("API request failed")
		return c.fail(endpoint, method, start, Result{
			Error:          err.Error(),
			IsNetworkError: true,
		})
	}
	defer resp.Body.Close()

	metrics.RecordAPICall(metricLabel(endpoint), method, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	// No content: nothing to parse
	if resp.StatusCode == http.StatusNoContent {
		return Result{Success: true, StatusCode: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{
			Success:    false,
			Error:      fmt.Sprintf("failed to read response: %v", err),
			StatusCode: resp.StatusCode,
		}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !isJSONContentType(resp.Header.Get("Content-Type")) {
		result := Result{
			Success:        ok,
			StatusCode:     resp.StatusCode,
			RawResponse:    truncate(string(respBody), maxRawBody),
			IsTextResponse: true,
		}
		if !ok {
			result.Error = fmt.Sprintf("Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return result
	}

	if !json.Valid(respBody) {
		return Result{
			Success:     false,
			Error:       "failed to parse JSON response",
			StatusCode:  resp.StatusCode,
			RawResponse: truncate(string(respBody), maxRawBody),
		}
	}

	if !ok {
		return Result{
			Success:    false,
			Error:      serverErrorMessage(respBody, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Data:       json.RawMessage(respBody),
		}
	}

	return Result{
		Success:    true,
		StatusCode: resp.StatusCode,
		Data:       json.RawMessage(respBody),
	}
}

// resolveURL joins the configured base URL with an endpoint. Endpoints with
// and without a leading slash resolve identically. Each leading parent
// segment ("../") pops one path segment off the base URL, never walking
// below the scheme and host.
func (c *Client) resolveURL(endpoint string) string {
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	ep := strings.TrimPrefix(endpoint, "/")

	for strings.HasPrefix(ep, "../") {
		if idx := strings.LastIndex(basePath, "/"); idx >= 0 {
			basePath = basePath[:idx]
		}
		ep = strings.TrimPrefix(ep, "../")
	}

	return c.baseURL.Scheme + "://" + c.baseURL.Host + basePath + "/" + ep
}

func (c *Client) fail(endpoint, method string, start time.Time, result Result) Result {
	result.Success = false
	metrics.RecordAPICall(metricLabel(endpoint), method, 0, time.Since(start))
	return result
}

// serverErrorMessage prefers a server-supplied message field over the
// generic status line.
func serverErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("Error: %d %s", statusCode, http.StatusText(statusCode))
}

func isJSONContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// metricLabel strips the query string to keep label cardinality bounded.
func metricLabel(endpoint string) string {
	if idx := strings.Index(endpoint, "?"); idx >= 0 {
		return endpoint[:idx]
	}
	return endpoint
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
