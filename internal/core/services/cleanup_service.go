package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

type cleanupService struct {
	cols      ports.Collections
	publisher ports.EventPublisher
	clock     Clock
}

func NewCleanupService(cols ports.Collections, pub ports.EventPublisher, opts ...Option) ports.CleanupService {
	o := buildOptions(opts)
	return &cleanupService{cols: cols, publisher: pub, clock: o.clock}
}

// Sweep supprime tout document expiré par rapport à l'instant de départ.
// En cas d'erreur, le nombre déjà supprimé est renvoyé avec l'erreur.
func (s *cleanupService) Sweep(ctx context.Context) (int, error) {
	now := s.clock()
	start := time.Now()
	total := 0

	steps := []func() (int, error){
		func() (int, error) { return sweepCollection(ctx, s.cols.Posts, now) },
		func() (int, error) { return sweepCollection(ctx, s.cols.Comments, now) },
		func() (int, error) { return sweepCollection(ctx, s.cols.Likes, now) },
	}
	for _, step := range steps {
		n, err := step()
		total += n
		if err != nil {
			slog.Error("❌ Sweep aborted", "deleted", total, "error", err)
			return total, err
		}
	}

	slog.Info("🧹 Sweep completed", "deleted", total, "duration", time.Since(start))
	if err := s.publisher.PublishSweepCompleted(ctx, total); err != nil {
		slog.Warn("⚠️ Failed to publish sweep.completed", "error", err)
	}
	return total, nil
}

func sweepCollection[T domain.Entity](ctx context.Context, col ports.Collection[T], now time.Time) (int, error) {
	expired, err := col.ListWhere(ctx, func(e T) bool { return domain.IsExpired(e.Timestamp(), now) })
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range expired {
		removed, err := col.DeleteByID(ctx, e.EntityID())
		if err != nil {
			return deleted, err
		}
		// Déjà supprimé par un balayage concurrent : non compté
		if removed {
			deleted++
		}
	}
	if deleted > 0 {
		slog.Debug("Expired documents removed", "collection", col.Name(), "count", deleted)
	}
	return deleted, nil
}
