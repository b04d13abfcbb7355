package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

type contentService struct {
	cols      ports.Collections
	publisher ports.EventPublisher
	clock     Clock
	likeLocks *keyedMutex
}

func NewContentService(cols ports.Collections, pub ports.EventPublisher, opts ...Option) ports.ContentService {
	o := buildOptions(opts)
	return &contentService{
		cols:      cols,
		publisher: pub,
		clock:     o.clock,
		likeLocks: newKeyedMutex(),
	}
}

func (s *contentService) CreatePost(ctx context.Context, cmd ports.CreatePostCmd) (*domain.Post, error) {
	post, err := domain.NewPost(cmd.Author, cmd.Text, cmd.ImageURL, s.clock())
	if err != nil {
		return nil, err
	}

	// 1. Sauvegarde (source de vérité)
	if _, err := s.cols.Posts.Create(ctx, *post); err != nil {
		return nil, err
	}

	// 2. Publication best effort : la donnée est déjà sauvée
	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		slog.Warn("⚠️ Failed to publish post.created", "post_id", post.ID, "error", err)
	}
	return post, nil
}

// CreateComment ne vérifie pas que le post existe.
func (s *contentService) CreateComment(ctx context.Context, cmd ports.CreateCommentCmd) (*domain.Comment, error) {
	comment, err := domain.NewComment(cmd.PostID, cmd.User, cmd.Text, s.clock())
	if err != nil {
		return nil, err
	}

	if _, err := s.cols.Comments.Create(ctx, *comment); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishCommentCreated(ctx, comment); err != nil {
		slog.Warn("⚠️ Failed to publish comment.created", "comment_id", comment.ID, "error", err)
	}
	return comment, nil
}

// CreateLike est idempotent pour un couple (post, user) tant que le like est visible.
// Le verrou ne couvre que ce processus : deux instances peuvent encore écrire deux likes.
func (s *contentService) CreateLike(ctx context.Context, cmd ports.CreateLikeCmd) (*domain.LikeResult, error) {
	now := s.clock()
	like, err := domain.NewLike(cmd.PostID, cmd.User, now)
	if err != nil {
		return nil, err
	}

	unlock := s.likeLocks.Lock(cmd.PostID + "\x00" + cmd.User)
	defer unlock()

	// 1. Recherche d'un like visible du même utilisateur
	existing, err := s.cols.Likes.CountWhere(ctx, func(l domain.Like) bool {
		return l.PostID == cmd.PostID && l.User == cmd.User && domain.IsVisible(l.CreatedAt, now)
	})
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		slog.Debug("Duplicate like ignored", "post_id", cmd.PostID, "user", cmd.User)
		return &domain.LikeResult{Duplicate: true}, nil
	}

	// 2. Écriture
	if _, err := s.cols.Likes.Create(ctx, *like); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishLikeCreated(ctx, like); err != nil {
		slog.Warn("⚠️ Failed to publish like.created", "like_id", like.ID, "error", err)
	}
	return &domain.LikeResult{Like: like}, nil
}

// GetFeed renvoie les posts visibles, du plus récent au plus ancien.
// Chaque post relit les likes et commentaires : coût linéaire en posts × collection.
func (s *contentService) GetFeed(ctx context.Context) ([]domain.FeedPost, error) {
	now := s.clock()
	visible := func(e domain.Entity) bool { return domain.IsVisible(e.Timestamp(), now) }

	posts, err := s.cols.Posts.ListWhere(ctx, func(p domain.Post) bool { return visible(p) })
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	feed := make([]domain.FeedPost, 0, len(posts))
	for _, p := range posts {
		likeCount, err := s.cols.Likes.CountWhere(ctx, func(l domain.Like) bool {
			return l.PostID == p.ID && visible(l)
		})
		if err != nil {
			return nil, err
		}

		comments, err := s.cols.Comments.ListWhere(ctx, func(c domain.Comment) bool {
			return c.PostID == p.ID && visible(c)
		})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(comments, func(i, j int) bool {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		})

		feed = append(feed, domain.FeedPost{
			Post:         p,
			LikeCount:    likeCount,
			CommentCount: len(comments),
			Comments:     comments,
		})
	}
	return feed, nil
}
