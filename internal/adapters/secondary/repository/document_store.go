package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// DocumentStore offre get/put/delete typés au-dessus du backend distant.
// Aucun état n'est gardé entre deux appels : chaque lecture retourne au backend.
type DocumentStore struct {
	backend ports.FileBackend
	timeout time.Duration // 0 = pas de timeout imposé par l'appelant
}

func NewDocumentStore(backend ports.FileBackend, timeout time.Duration) *DocumentStore {
	return &DocumentStore{backend: backend, timeout: timeout}
}

// Get renvoie nil (sans erreur) si le document est absent.
func (s *DocumentStore) Get(ctx context.Context, path string) (*domain.Document, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := s.backend.GetFile(ctx, path)
	if err != nil {
		return nil, s.handleError("get", path, err)
	}
	if f == nil {
		return nil, nil
	}
	return &domain.Document{Path: path, Content: f.Content, Version: f.Version}, nil
}

// Put fait un read-modify-write : lecture de la version courante puis écriture
// conditionnée par cette version. Un écrivain concurrent gagnant produit ErrConflict.
// Pas de retry automatique.
func (s *DocumentStore) Put(ctx context.Context, path string, content []byte, message string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.backend.GetFile(ctx, path)
	if err != nil {
		return "", s.handleError("put", path, err)
	}
	version := ""
	if current != nil {
		version = current.Version
	}

	committed, err := s.backend.PutFile(ctx, path, content, version, message)
	if err != nil {
		return "", s.handleError("put", path, err)
	}
	return committed, nil
}

// Delete ne fait rien si le document est déjà absent. removed indique si
// cet appel a effectivement supprimé le document.
func (s *DocumentStore) Delete(ctx context.Context, path, message string) (removed bool, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.backend.GetFile(ctx, path)
	if err != nil {
		return false, s.handleError("delete", path, err)
	}
	if current == nil {
		return false, nil
	}

	removed, err = s.backend.DeleteFile(ctx, path, current.Version, message)
	if err != nil {
		return false, s.handleError("delete", path, err)
	}
	return removed, nil
}

// List renvoie les entrées d'un répertoire (vide s'il n'existe pas).
func (s *DocumentStore) List(ctx context.Context, dir string) ([]domain.DirEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entries, err := s.backend.ListDirectory(ctx, dir)
	if err != nil {
		return nil, s.handleError("list", dir, err)
	}
	return entries, nil
}

// --- HELPERS ---

func (s *DocumentStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// handleError garde les erreurs du domaine telles quelles et traduit le reste
// en ErrBackendUnavailable.
func (s *DocumentStore) handleError(op, path string, err error) error {
	switch {
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrBackendUnavailable):
		return fmt.Errorf("%s %s: %w", op, path, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%s %s: %w: %v", op, path, domain.ErrBackendUnavailable, err)
	}
}
