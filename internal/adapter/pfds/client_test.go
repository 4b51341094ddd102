package pfds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// pfdsBody renders a table the way PFDS does: quoted strings inside a JS document.
func pfdsBody(table domain.Table) string {
	rows := make([]string, len(table))
	for i, row := range table {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("'%.3f'", v)
		}
		rows[i] = "[" + strings.Join(cells, ", ") + "]"
	}
	return "result = 'values';\nquantiles = [" + strings.Join(rows, ", ") + "];\nupper = [];\n"
}

func goldenQuery() domain.Query {
	return domain.Query{Lat: 39.7205, Lon: -105.1193, Units: domain.English}
}

func TestClient_BuildURL(t *testing.T) {
	c := testClient("https://hdsc.example.gov/cgi_readH5.py", time.Second)

	got := c.BuildURL(goldenQuery())
	assert.Equal(t,
		"https://hdsc.example.gov/cgi_readH5.py?data=depth&lat=39.7205&lon=-105.1193&series=pds&type=pf&units=english",
		got)
}

func TestClient_Fetch_Success(t *testing.T) {
	want := domain.Table{{0.303, 0.366}, {3.450, 4.125}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "39.7205", q.Get("lat"))
		assert.Equal(t, "-105.1193", q.Get("lon"))
		assert.Equal(t, "pf", q.Get("type"))
		assert.Equal(t, "depth", q.Get("data"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "pds", q.Get("series"))

		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, pfdsBody(want))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	q := goldenQuery()
	q.Units = domain.Metric

	table, err := c.Fetch(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, want, table)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("success")))
}

func TestClient_Fetch_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("server busy"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.Fetch(context.Background(), goldenQuery())
	require.Error(t, err)

	var statusErr *domain.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "server busy", statusErr.Body)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("http_error")))
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>Error: point outside project area</html>")
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.Fetch(context.Background(), goldenQuery())

	var malformed *domain.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("malformed")))
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), goldenQuery())
	require.Error(t, err)

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := testClient(addr, time.Second)
	_, err := c.Fetch(context.Background(), goldenQuery())

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("network_error")))
}

func TestClient_Fetch_SingleRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), goldenQuery())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "failures are not retried")
}

func TestClient_Fetch_RateLimitWaitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "quantiles = [[1]];")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 0.001, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	// First call spends the single burst token.
	_, err := c.Fetch(context.Background(), goldenQuery())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, goldenQuery())

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Contains(t, err.Error(), "rate limit")
}

func TestClient_FetchRaw_ReturnsBodyUnparsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "no table here")
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	body, err := c.FetchRaw(context.Background(), goldenQuery())
	require.NoError(t, err)
	assert.Equal(t, "no table here", string(body))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("success")))
}
