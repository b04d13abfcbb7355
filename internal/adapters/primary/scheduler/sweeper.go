package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// Sweeper déclenche le nettoyage à intervalle fixe.
type Sweeper struct {
	cleanup  ports.CleanupService
	interval time.Duration
	timeout  time.Duration

	runs  *prometheus.CounterVec
	swept prometheus.Counter
}

func NewSweeper(cleanup ports.CleanupService, interval, timeout time.Duration, reg prometheus.Registerer) *Sweeper {
	factory := promauto.With(reg)
	return &Sweeper{
		cleanup:  cleanup,
		interval: interval,
		timeout:  timeout,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ephemera_sweep_runs_total",
			Help: "Scheduled sweeps by outcome.",
		}, []string{"outcome"}),
		swept: factory.NewCounter(prometheus.CounterOpts{
			Name: "ephemera_swept_documents_total",
			Help: "Expired documents deleted by scheduled sweeps.",
		}),
	}
}

// Run bloque jusqu'à l'annulation du contexte. Un intervalle <= 0 désactive la boucle.
//
//	go sweeper.Run(ctx)
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		slog.Info("Scheduled cleanup disabled")
		return
	}
	slog.Info("⏰ Scheduled cleanup started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	deleted, err := s.cleanup.Sweep(ctx)
	s.swept.Add(float64(deleted))
	if err != nil {
		s.runs.WithLabelValues("error").Inc()
		slog.Error("Scheduled cleanup failed", "deleted", deleted, "error", err)
		return
	}
	s.runs.WithLabelValues("ok").Inc()
}
