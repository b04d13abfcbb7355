package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/memory"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

var baseTime = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu       sync.Mutex
	posts    []string
	comments []string
	likes    []string
	sweeps   []int
	err      error
}

func (p *recordingPublisher) PublishPostCreated(_ context.Context, post *domain.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, post.ID)
	return p.err
}

func (p *recordingPublisher) PublishCommentCreated(_ context.Context, c *domain.Comment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comments = append(p.comments, c.ID)
	return p.err
}

func (p *recordingPublisher) PublishLikeCreated(_ context.Context, l *domain.Like) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.likes = append(p.likes, l.ID)
	return p.err
}

func (p *recordingPublisher) PublishSweepCompleted(_ context.Context, deleted int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweeps = append(p.sweeps, deleted)
	return p.err
}

type harness struct {
	backend *memory.Backend
	cols    ports.Collections
	clock   *fakeClock
	pub     *recordingPublisher
	content ports.ContentService
	cleanup ports.CleanupService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := memory.New()
	cols := repository.NewCollections(repository.NewDocumentStore(b, time.Second), "data")
	clock := &fakeClock{now: baseTime}
	pub := &recordingPublisher{}
	return &harness{
		backend: b,
		cols:    cols,
		clock:   clock,
		pub:     pub,
		content: NewContentService(cols, pub, WithClock(clock.Now)),
		cleanup: NewCleanupService(cols, pub, WithClock(clock.Now)),
	}
}

// at exécute fn avec l'horloge positionnée à t, puis restaure baseTime.
func (h *harness) at(t time.Time, fn func()) {
	h.clock.Set(t)
	defer h.clock.Set(baseTime)
	fn()
}

func mustPost(t *testing.T, h *harness, author, text string) *domain.Post {
	t.Helper()
	p, err := h.content.CreatePost(context.Background(), ports.CreatePostCmd{Author: author, Text: text})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

func mustComment(t *testing.T, h *harness, postID, user, text string) *domain.Comment {
	t.Helper()
	c, err := h.content.CreateComment(context.Background(), ports.CreateCommentCmd{PostID: postID, User: user, Text: text})
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	return c
}

func mustLike(t *testing.T, h *harness, postID, user string) *domain.LikeResult {
	t.Helper()
	r, err := h.content.CreateLike(context.Background(), ports.CreateLikeCmd{PostID: postID, User: user})
	if err != nil {
		t.Fatalf("CreateLike: %v", err)
	}
	return r
}

// failingCollection renvoie err sur chaque appel.
type failingCollection[T domain.Entity] struct {
	name string
	err  error
}

func (f failingCollection[T]) Name() string { return f.name }
func (f failingCollection[T]) Create(context.Context, T) (T, error) {
	var zero T
	return zero, f.err
}
func (f failingCollection[T]) ListAll(context.Context) ([]T, error) { return nil, f.err }
func (f failingCollection[T]) ListWhere(context.Context, func(T) bool) ([]T, error) {
	return nil, f.err
}
func (f failingCollection[T]) CountWhere(context.Context, func(T) bool) (int, error) {
	return 0, f.err
}
func (f failingCollection[T]) DeleteByID(context.Context, string) (bool, error) {
	return false, f.err
}

var errBoom = errors.New("boom")
