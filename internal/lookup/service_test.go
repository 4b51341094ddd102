package lookup_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/lookup"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockFetcher struct {
	table   domain.Table
	err     error
	calls   int
	queries []domain.Query
}

func (m *mockFetcher) Fetch(_ context.Context, q domain.Query) (domain.Table, error) {
	m.calls++
	m.queries = append(m.queries, q)
	return m.table, m.err
}

type mockPublisher struct {
	events []domain.DesignStormEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event domain.DesignStormEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func goldenTable() domain.Table {
	table := make(domain.Table, 19)
	for r := range table {
		table[r] = make([]float64, 10)
	}
	table[9][4] = 3.45
	return table
}

func goldenRequest() domain.Request {
	return domain.Request{
		Lat:      39.7205,
		Lon:      -105.1193,
		Duration: "1-day",
		ARI:      "25-yr",
		Unit:     domain.Inch,
	}
}

// --- tests ---

func TestService_Lookup_EndToEnd(t *testing.T) {
	now := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	fetcher := &mockFetcher{table: goldenTable()}
	metrics := observability.NewMetricsForTesting()
	svc := lookup.New(fetcher, nil, slog.Default(), metrics)

	event, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)

	assert.Equal(t, 3.45, event.Depth)
	assert.Equal(t, domain.Inch, event.Unit)
	assert.Equal(t, "3.45 inch", event.String())
	assert.Equal(t, now, event.RetrievedAt)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, domain.Query{Lat: 39.7205, Lon: -105.1193, Units: domain.English}, fetcher.queries[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LookupsServed))
}

func TestService_Lookup_MetricQuery(t *testing.T) {
	fetcher := &mockFetcher{table: goldenTable()}
	svc := lookup.New(fetcher, nil, slog.Default(), observability.NewMetricsForTesting())

	req := goldenRequest()
	req.Unit = domain.Millimeter
	event, err := svc.Lookup(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.Metric, fetcher.queries[0].Units)
	assert.Equal(t, domain.Millimeter, event.Unit)
}

func TestService_Lookup_InputErrorsSkipNetwork(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*domain.Request)
		kind string
	}{
		{name: "latitude below bound", mod: func(r *domain.Request) { r.Lat = 24.49 }, kind: "input_range"},
		{name: "longitude east of bound", mod: func(r *domain.Request) { r.Lon = -66.91 }, kind: "input_range"},
		{name: "unknown duration", mod: func(r *domain.Request) { r.Duration = "90-day" }, kind: "unknown_label"},
		{name: "unknown ari", mod: func(r *domain.Request) { r.ARI = "3-yr" }, kind: "unknown_label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &mockFetcher{table: goldenTable()}
			metrics := observability.NewMetricsForTesting()
			svc := lookup.New(fetcher, nil, slog.Default(), metrics)

			req := goldenRequest()
			tt.mod(&req)
			_, err := svc.Lookup(context.Background(), req)
			require.Error(t, err)

			assert.Equal(t, 0, fetcher.calls, "no network call for invalid input")
			assert.Equal(t, tt.kind, lookup.ErrorKind(err))
			assert.True(t, lookup.IsInputError(err))
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LookupErrors.WithLabelValues(tt.kind)))
		})
	}
}

func TestService_Lookup_BoundaryAccepted(t *testing.T) {
	fetcher := &mockFetcher{table: goldenTable()}
	svc := lookup.New(fetcher, nil, slog.Default(), observability.NewMetricsForTesting())

	req := goldenRequest()
	req.Lat = 24.5
	req.Lon = -66.9
	_, err := svc.Lookup(context.Background(), req)
	require.NoError(t, err)
}

func TestService_Lookup_FetchErrorsPropagate(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{err: &domain.NetworkError{Op: "pfds request", Err: errors.New("dial tcp: refused")}, kind: "network"},
		{err: &domain.HTTPStatusError{StatusCode: 500}, kind: "http_status"},
		{err: &domain.MalformedResponseError{Reason: "quantiles assignment not found"}, kind: "malformed"},
		{err: fmt.Errorf("wrapped: %w", &domain.HTTPStatusError{StatusCode: 404}), kind: "http_status"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			pub := &mockPublisher{}
			svc := lookup.New(&mockFetcher{err: tt.err}, pub, slog.Default(), observability.NewMetricsForTesting())

			event, err := svc.Lookup(context.Background(), goldenRequest())
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.kind, lookup.ErrorKind(err))
			assert.False(t, lookup.IsInputError(err))
			assert.Zero(t, event, "no partial result on failure")
			assert.Empty(t, pub.events)
		})
	}
}

func TestService_Lookup_TableShapeError(t *testing.T) {
	svc := lookup.New(&mockFetcher{table: domain.Table{{1, 2}, {3, 4}}}, nil, slog.Default(), observability.NewMetricsForTesting())

	_, err := svc.Lookup(context.Background(), goldenRequest())
	var shapeErr *domain.TableShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "table_shape", lookup.ErrorKind(err))
}

func TestService_Lookup_Publishes(t *testing.T) {
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()
	svc := lookup.New(&mockFetcher{table: goldenTable()}, pub, slog.Default(), metrics)

	event, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event, pub.events[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.EventsPublished))
}

func TestService_Lookup_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()
	svc := lookup.New(&mockFetcher{table: goldenTable()}, pub, slog.Default(), metrics)

	event, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)
	assert.Equal(t, 3.45, event.Depth)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PublishErrors))
}

func TestService_Lookup_Idempotent(t *testing.T) {
	svc := lookup.New(&mockFetcher{table: goldenTable()}, nil, slog.Default(), observability.NewMetricsForTesting())

	first, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)
	second, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)

	assert.Equal(t, first.Depth, second.Depth)
}

func TestService_CheckReadiness(t *testing.T) {
	fetcher := &mockFetcher{table: goldenTable()}
	svc := lookup.New(fetcher, nil, slog.Default(), observability.NewMetricsForTesting())

	require.NoError(t, svc.CheckReadiness(context.Background()), "ready before the first request")

	fetcher.err = &domain.NetworkError{Op: "pfds request", Err: context.DeadlineExceeded}
	_, _ = svc.Lookup(context.Background(), goldenRequest())
	require.Error(t, svc.CheckReadiness(context.Background()))

	fetcher.err = &domain.HTTPStatusError{StatusCode: 500}
	_, _ = svc.Lookup(context.Background(), goldenRequest())
	require.Error(t, svc.CheckReadiness(context.Background()), "only a successful fetch restores readiness")

	fetcher.err = nil
	_, err := svc.Lookup(context.Background(), goldenRequest())
	require.NoError(t, err)
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}
