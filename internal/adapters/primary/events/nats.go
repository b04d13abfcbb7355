package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// SubjectCleanupRequested déclenche un balayage depuis un autre service (cron externe...).
const SubjectCleanupRequested = "ephemera.cleanup.requested"

type EventHandler struct {
	cleanup ports.CleanupService
	timeout time.Duration
}

func NewEventHandler(cleanup ports.CleanupService, timeout time.Duration) *EventHandler {
	return &EventHandler{cleanup: cleanup, timeout: timeout}
}

type cleanupReply struct {
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// HandleCleanupRequested lance un balayage. Si le message attend une réponse
// (request/reply), le nombre supprimé est renvoyé.
func (h *EventHandler) HandleCleanupRequested(msg *nats.Msg) {
	// 1. Extraction du contexte de trace de l'émetteur
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))

	ctx, span := otel.Tracer("ephemera").Start(ctx, "process_cleanup_requested", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	slog.Info("📨 Cleanup requested", "subject", msg.Subject)

	// 2. Balayage
	deleted, err := h.cleanup.Sweep(ctx)
	reply := cleanupReply{Deleted: deleted}
	if err != nil {
		span.RecordError(err)
		slog.Error("❌ Requested cleanup failed", "deleted", deleted, "error", err)
		reply.Error = err.Error()
	}

	// 3. Réponse si request/reply
	if msg.Reply == "" {
		return
	}
	data, _ := json.Marshal(reply)
	if err := msg.Respond(data); err != nil {
		slog.Warn("⚠️ Failed to reply to cleanup request", "error", err)
	}
}
