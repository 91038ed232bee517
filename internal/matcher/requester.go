package matcher

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	"attribune/pkg/requestcontext"
)

var tracer = otel.Tracer("attribune/matcher")

// Requester fans a fingerprint out to every configured backend concurrently.
// One slow or failed auditor never blocks the others past the per-backend
// timeout.
type Requester struct {
	backends []MatchBackend
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRequester builds a Requester over the given backends.
func NewRequester(backends []MatchBackend, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Requester {
	return &Requester{
		backends: backends,
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
	}
}

// Backends returns the configured backends in fan-out order.
func (r *Requester) Backends() []MatchBackend {
	return r.backends
}

// Collect queries every backend and returns one result per backend, in
// configuration order. Failures are carried in the result, not returned:
// deciding what a partial answer means is the caller's job.
func (r *Requester) Collect(ctx context.Context, fingerprint id.Fingerprint) []BackendResult {
	start := time.Now()
	defer r.metrics.ObserveMatchFanout(start)

	ctx, span := tracer.Start(ctx, "matcher.Collect", trace.WithAttributes(
		attribute.Int("backend_count", len(r.backends)),
	))
	defer span.End()

	results := make([]BackendResult, len(r.backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, backend := range r.backends {
		g.Go(func() error {
			bctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()

			matches, err := backend.Match(bctx, fingerprint)
			results[i] = BackendResult{
				AuditorID:   backend.ID(),
				Reliability: backend.Reliability(),
				Matches:     matches,
				Err:         err,
			}
			if err != nil {
				r.metrics.IncrementBackendFailure(backend.ID().String())
				r.logger.WarnContext(gctx, "auditor backend failed",
					"auditor_id", backend.ID().String(),
					"request_id", requestcontext.RequestID(gctx),
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	responded := 0
	for _, res := range results {
		if res.Responded() {
			responded++
		}
	}
	span.SetAttributes(attribute.Int("backends_responded", responded))
	return results
}
