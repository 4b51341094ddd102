package lookup

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/storm-freeboard/internal/domain"
	"github.com/couchcryptid/storm-freeboard/internal/observability"
)

// Publisher forwards resolved events downstream.
type Publisher interface {
	Publish(ctx context.Context, event domain.DesignStormEvent) error
}

// Service resolves design storm events: validate, fetch, select.
type Service struct {
	fetcher   domain.Fetcher
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	upstream  atomic.Bool // false after a network failure, until the next successful fetch
}

// New creates a Service. Pass a nil publisher to disable publishing.
func New(fetcher domain.Fetcher, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
	s.upstream.Store(true)
	return s
}

// Lookup validates req, fetches the PFDS table once and selects the depth.
// Input errors are returned before any network call.
func (s *Service) Lookup(ctx context.Context, req domain.Request) (domain.DesignStormEvent, error) {
	q, err := req.Validate()
	if err != nil {
		s.metrics.LookupErrors.WithLabelValues(ErrorKind(err)).Inc()
		return domain.DesignStormEvent{}, err
	}

	table, err := s.fetcher.Fetch(ctx, q)
	if err != nil {
		var netErr *domain.NetworkError
		if errors.As(err, &netErr) {
			s.upstream.Store(false)
		}
		s.metrics.LookupErrors.WithLabelValues(ErrorKind(err)).Inc()
		return domain.DesignStormEvent{}, err
	}
	s.upstream.Store(true)

	event, err := domain.NewDesignStormEvent(q, table, req.Duration, req.ARI)
	if err != nil {
		s.metrics.LookupErrors.WithLabelValues(ErrorKind(err)).Inc()
		return domain.DesignStormEvent{}, err
	}
	s.metrics.LookupsServed.Inc()

	s.publish(ctx, event)
	return event, nil
}

// CheckReadiness reports not ready while the last PFDS call failed at the network level.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.upstream.Load() {
		return errors.New("pfds unreachable on last request")
	}
	return nil
}

// publish degrades gracefully: the depth is already correct, so a Kafka
// failure is logged and counted but not returned.
func (s *Service) publish(ctx context.Context, event domain.DesignStormEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish design storm event failed",
			"lat", event.Lat,
			"lon", event.Lon,
			"duration", event.Duration,
			"ari", event.ARI,
			"error", err,
		)
		s.metrics.PublishErrors.Inc()
		return
	}
	s.metrics.EventsPublished.Inc()
}

// ErrorKind classifies err for metrics and exit codes.
func ErrorKind(err error) string {
	var (
		rangeErr     *domain.InputRangeError
		labelErr     *domain.UnknownLabelError
		netErr       *domain.NetworkError
		statusErr    *domain.HTTPStatusError
		malformedErr *domain.MalformedResponseError
		shapeErr     *domain.TableShapeError
	)
	switch {
	case errors.As(err, &rangeErr):
		return "input_range"
	case errors.As(err, &labelErr):
		return "unknown_label"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.As(err, &malformedErr):
		return "malformed"
	case errors.As(err, &shapeErr):
		return "table_shape"
	default:
		return "other"
	}
}

// IsInputError reports whether err was caused by the caller's arguments.
func IsInputError(err error) bool {
	switch ErrorKind(err) {
	case "input_range", "unknown_label":
		return true
	default:
		return false
	}
}
