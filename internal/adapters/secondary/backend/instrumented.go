package backend

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

const tracerName = "github.com/jupiterclapton/ephemera/backend"

// Instrumented décore un FileBackend : un span et deux métriques par appel.
type Instrumented struct {
	next     ports.FileBackend
	driver   string
	tracer   trace.Tracer
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ ports.FileBackend = (*Instrumented)(nil)

func NewInstrumented(next ports.FileBackend, driver string, reg prometheus.Registerer) *Instrumented {
	factory := promauto.With(reg)
	return &Instrumented{
		next:   next,
		driver: driver,
		tracer: otel.Tracer(tracerName),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ephemera_backend_requests_total",
			Help: "Backend calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ephemera_backend_request_duration_seconds",
			Help:    "Backend call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (i *Instrumented) ListDirectory(ctx context.Context, dir string) (entries []domain.DirEntry, err error) {
	ctx, done := i.start(ctx, "list_directory", dir)
	defer func() { done(err) }()
	return i.next.ListDirectory(ctx, dir)
}

func (i *Instrumented) GetFile(ctx context.Context, path string) (f *domain.File, err error) {
	ctx, done := i.start(ctx, "get_file", path)
	defer func() { done(err) }()
	return i.next.GetFile(ctx, path)
}

func (i *Instrumented) PutFile(ctx context.Context, path string, content []byte, version, message string) (v string, err error) {
	ctx, done := i.start(ctx, "put_file", path)
	defer func() { done(err) }()
	return i.next.PutFile(ctx, path, content, version, message)
}

func (i *Instrumented) DeleteFile(ctx context.Context, path, version, message string) (removed bool, err error) {
	ctx, done := i.start(ctx, "delete_file", path)
	defer func() { done(err) }()
	return i.next.DeleteFile(ctx, path, version, message)
}

func (i *Instrumented) start(ctx context.Context, op, path string) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := i.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("backend.driver", i.driver),
			attribute.String("backend.path", path),
		),
	)

	return ctx, func(err error) {
		outcome := Outcome(err)
		i.requests.WithLabelValues(op, outcome).Inc()
		i.duration.WithLabelValues(op).Observe(time.Since(begin).Seconds())
		if err != nil && outcome != "conflict" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("backend.outcome", outcome))
		span.End()
	}
}

// Outcome classe une erreur du backend pour les labels de métriques.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
