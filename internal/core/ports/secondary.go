package ports

import (
	"context"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
)

// --- BACKEND DISTANT (fichiers versionnés) ---

// FileBackend est le service de fichiers distant, seule source de vérité.
// Absent n'est jamais une erreur : GetFile renvoie nil, DeleteFile ne fait rien
// et renvoie removed = false.
type FileBackend interface {
	// ListDirectory renvoie une liste vide si le répertoire n'existe pas.
	ListDirectory(ctx context.Context, dir string) ([]domain.DirEntry, error)

	GetFile(ctx context.Context, path string) (*domain.File, error)

	// PutFile échoue avec domain.ErrConflict si version ne correspond pas
	// à la version courante ("" = le fichier ne doit pas exister).
	PutFile(ctx context.Context, path string, content []byte, version, message string) (string, error)

	DeleteFile(ctx context.Context, path, version, message string) (removed bool, err error)
}

// --- COLLECTIONS ---

// Collection regroupe les documents d'un même type d'entité.
// L'ordre de ListAll est celui du backend (non spécifié).
type Collection[T domain.Entity] interface {
	Name() string
	Create(ctx context.Context, entity T) (T, error)
	ListAll(ctx context.Context) ([]T, error)
	ListWhere(ctx context.Context, keep func(T) bool) ([]T, error)
	CountWhere(ctx context.Context, keep func(T) bool) (int, error)
	// DeleteByID renvoie false si le document était déjà absent.
	DeleteByID(ctx context.Context, id string) (bool, error)
}

type Collections struct {
	Posts    Collection[domain.Post]
	Comments Collection[domain.Comment]
	Likes    Collection[domain.Like]
}

// --- MESSAGERIE (BROKER) ---

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
	PublishCommentCreated(ctx context.Context, comment *domain.Comment) error
	PublishLikeCreated(ctx context.Context, like *domain.Like) error
	PublishSweepCompleted(ctx context.Context, deleted int) error
}
