package ports

import (
	"context"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---

type CreatePostCmd struct {
	Author   string
	Text     string
	ImageURL string
}

type CreateCommentCmd struct {
	PostID string
	User   string
	Text   string
}

type CreateLikeCmd struct {
	PostID string
	User   string
}

// --- PORTS PRIMAIRES (Driving) ---

// ContentService crée les entités et construit le feed.
type ContentService interface {
	CreatePost(ctx context.Context, cmd CreatePostCmd) (*domain.Post, error)
	CreateComment(ctx context.Context, cmd CreateCommentCmd) (*domain.Comment, error)
	CreateLike(ctx context.Context, cmd CreateLikeCmd) (*domain.LikeResult, error)
	GetFeed(ctx context.Context) ([]domain.FeedPost, error)
}

// CleanupService supprime les documents expirés. Idempotent.
type CleanupService interface {
	Sweep(ctx context.Context) (int, error)
}
