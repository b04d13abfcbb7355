package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// Subjects NATS publiés par le service.
const (
	SubjectPostCreated    = "ephemera.post.created"
	SubjectCommentCreated = "ephemera.comment.created"
	SubjectLikeCreated    = "ephemera.like.created"
	SubjectSweepCompleted = "ephemera.sweep.completed"
)

type NatsPublisher struct {
	nc *nats.Conn
}

var _ ports.EventPublisher = (*NatsPublisher)(nil)

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// --- Contrats des events ---

type PostCreatedEvent struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentCreatedEvent struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type LikeCreatedEvent struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

type SweepCompletedEvent struct {
	Deleted     int       `json:"deleted"`
	CompletedAt time.Time `json:"completed_at"`
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	return p.publish(ctx, SubjectPostCreated, PostCreatedEvent{
		ID:        post.ID,
		Author:    post.Author,
		Text:      post.Text,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishCommentCreated(ctx context.Context, c *domain.Comment) error {
	return p.publish(ctx, SubjectCommentCreated, CommentCreatedEvent{
		ID:        c.ID,
		PostID:    c.PostID,
		User:      c.User,
		CreatedAt: c.CreatedAt,
	})
}

func (p *NatsPublisher) PublishLikeCreated(ctx context.Context, l *domain.Like) error {
	return p.publish(ctx, SubjectLikeCreated, LikeCreatedEvent{
		ID:        l.ID,
		PostID:    l.PostID,
		User:      l.User,
		CreatedAt: l.CreatedAt,
	})
}

func (p *NatsPublisher) PublishSweepCompleted(ctx context.Context, deleted int) error {
	return p.publish(ctx, SubjectSweepCompleted, SweepCompletedEvent{
		Deleted:     deleted,
		CompletedAt: time.Now().UTC(),
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// 👇 Le trace ID de la requête HTTP voyage dans les headers NATS
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("📢 Publishing event", "subject", subject)
	return p.nc.PublishMsg(msg)
}

// NopPublisher est utilisé quand NATS n'est pas configuré.
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) PublishPostCreated(context.Context, *domain.Post) error       { return nil }
func (NopPublisher) PublishCommentCreated(context.Context, *domain.Comment) error { return nil }
func (NopPublisher) PublishLikeCreated(context.Context, *domain.Like) error       { return nil }
func (NopPublisher) PublishSweepCompleted(context.Context, int) error             { return nil }
