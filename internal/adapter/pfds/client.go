package pfds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
	"golang.org/x/time/rate"
)

const (
	// maxBodyBytes bounds how much of a response is read. PFDS pages are a few KB.
	maxBodyBytes = 4 << 20
	// maxErrorBody bounds the body kept on an HTTPStatusError.
	maxErrorBody = 512
)

// Client implements domain.Fetcher against the NOAA PFDS CGI endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a PFDS client. ratePerSecond <= 0 disables rate limiting.
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: limiter,
		metrics: metrics,
		logger:  logger,
	}
}

// BuildURL returns the PFDS request URL for q.
func (c *Client) BuildURL(q domain.Query) string {
	params := url.Values{
		"lat":    {strconv.FormatFloat(q.Lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(q.Lon, 'f', -1, 64)},
		"type":   {domain.DataType},
		"data":   {domain.DataKind},
		"units":  {string(q.Units)},
		"series": {domain.Series},
	}
	return c.baseURL + "?" + params.Encode()
}

// Fetch issues one GET for q and returns the embedded quantiles table.
func (c *Client) Fetch(ctx context.Context, q domain.Query) (domain.Table, error) {
	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}

	table, err := ParseQuantiles(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("malformed").Inc()
		return nil, err
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return table, nil
}

// FetchRaw issues one GET for q and returns the unparsed response body.
func (c *Client) FetchRaw(ctx context.Context, q domain.Query) ([]byte, error) {
	body, err := c.get(ctx, q)
	if err != nil {
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return body, nil
}

// get waits on the rate limiter and performs the request, counting failures.
func (c *Client) get(ctx context.Context, q domain.Query) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.FetchRequests.WithLabelValues("network_error").Inc()
			return nil, &domain.NetworkError{Op: "pfds rate limit wait", Err: err}
		}
	}

	start := time.Now()
	body, status, err := c.doRequest(ctx, c.BuildURL(q))
	elapsed := time.Since(start)
	c.metrics.FetchDuration.Observe(elapsed.Seconds())

	c.logger.Debug("pfds request",
		"lat", q.Lat,
		"lon", q.Lon,
		"units", q.Units,
		"status", status,
		"duration", elapsed,
	)

	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &domain.NetworkError{Op: "pfds request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, resp.StatusCode, &domain.HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &domain.NetworkError{Op: "read pfds response", Err: err}
	}
	return body, resp.StatusCode, nil
}

func outcome(err error) string {
	switch err.(type) {
	case *domain.NetworkError:
		return "network_error"
	case *domain.HTTPStatusError:
		return "http_error"
	default:
		return "error"
	}
}
