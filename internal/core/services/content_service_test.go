package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

func TestCreatePostValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		cmd   ports.CreatePostCmd
		field string
	}{
		{"missing author", ports.CreatePostCmd{Text: "hi"}, "author"},
		{"blank author", ports.CreatePostCmd{Author: "   ", Text: "hi"}, "author"},
		{"missing text", ports.CreatePostCmd{Author: "alice"}, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.content.CreatePost(ctx, tt.cmd)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want ValidationError on %q", err, tt.field)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("errors.Is(err, ErrValidation) = false")
			}
		})
	}
	if n := h.backend.Len(); n != 0 {
		t.Errorf("backend holds %d files after rejected writes, want 0", n)
	}
}

func TestCreatePostRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p, err := h.content.CreatePost(ctx, ports.CreatePostCmd{Author: "alice", Text: "hi", ImageURL: "https://img/x.png"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == "" {
		t.Fatal("ID not assigned")
	}
	if !p.CreatedAt.Equal(baseTime) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, baseTime)
	}

	all, err := h.cols.Posts.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("ListAll len = %d, want 1", len(all))
	}
	got := all[0]
	if got.ID != p.ID || got.Author != "alice" || got.Text != "hi" || got.ImageURL != "https://img/x.png" || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("stored = %+v, want %+v", got, *p)
	}
	if msg, _ := h.backend.Message("data/posts/" + p.ID + ".json"); msg != "create post "+p.ID {
		t.Errorf("change description = %q", msg)
	}
	if len(h.pub.posts) != 1 || h.pub.posts[0] != p.ID {
		t.Errorf("published posts = %v, want [%s]", h.pub.posts, p.ID)
	}
}

func TestCreateCommentAcceptsDanglingPost(t *testing.T) {
	h := newHarness(t)

	c := mustComment(t, h, "no-such-post", "bob", "hey")
	if c.PostID != "no-such-post" {
		t.Errorf("PostID = %q", c.PostID)
	}

	_, err := h.content.CreateComment(context.Background(), ports.CreateCommentCmd{PostID: "p", User: "bob"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing text: err = %v, want ErrValidation", err)
	}
}

func TestCreateLikeDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := mustPost(t, h, "alice", "hi")

	first := mustLike(t, h, p.ID, "bob")
	if first.Duplicate || first.Like == nil {
		t.Fatalf("first like = %+v, want created", first)
	}

	second := mustLike(t, h, p.ID, "bob")
	if !second.Duplicate || second.Like != nil {
		t.Fatalf("second like = %+v, want duplicate", second)
	}

	n, err := h.cols.Likes.CountWhere(ctx, func(l domain.Like) bool { return l.PostID == p.ID })
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("like count = %d, want 1", n)
	}
	if len(h.pub.likes) != 1 {
		t.Errorf("published likes = %d, want 1", len(h.pub.likes))
	}

	// Un autre utilisateur peut liker le même post
	if r := mustLike(t, h, p.ID, "carol"); r.Duplicate {
		t.Error("carol's like flagged as duplicate")
	}
}

func TestCreateLikeAfterExpiryIsNotDuplicate(t *testing.T) {
	h := newHarness(t)

	h.at(baseTime.Add(-25*time.Hour), func() {
		mustLike(t, h, "p1", "bob")
	})

	r := mustLike(t, h, "p1", "bob")
	if r.Duplicate {
		t.Fatal("expired like should not block a new one")
	}
}

func TestCreateLikeValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.content.CreateLike(context.Background(), ports.CreateLikeCmd{PostID: "p1"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "user" {
		t.Fatalf("err = %v, want ValidationError on user", err)
	}
}

func TestCreateLikeConcurrentSameProcess(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.content.CreateLike(context.Background(), ports.CreateLikeCmd{PostID: "p1", User: "bob"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	n, err := h.cols.Likes.CountWhere(context.Background(), func(domain.Like) bool { return true })
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("likes written = %d, want 1", n)
	}
}

func TestGetFeedOrdering(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var p1, p2, p3 *domain.Post
	h.at(baseTime.Add(-3*time.Hour), func() { p1 = mustPost(t, h, "a", "one") })
	h.at(baseTime.Add(-2*time.Hour), func() { p2 = mustPost(t, h, "a", "two") })
	h.at(baseTime.Add(-1*time.Hour), func() { p3 = mustPost(t, h, "a", "three") })
	h.at(baseTime.Add(-25*time.Hour), func() { mustPost(t, h, "a", "old") })

	feed, err := h.content.GetFeed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{p3.ID, p2.ID, p1.ID}
	if len(feed) != len(want) {
		t.Fatalf("feed len = %d, want %d", len(feed), len(want))
	}
	for i, id := range want {
		if feed[i].Post.ID != id {
			t.Errorf("feed[%d] = %s, want %s", i, feed[i].Post.ID, id)
		}
	}
}

func TestGetFeedCommentOrdering(t *testing.T) {
	h := newHarness(t)
	p := mustPost(t, h, "alice", "hi")

	var c1, c2 *domain.Comment
	// Créés dans le désordre pour ne pas dépendre de l'ordre du backend
	h.at(baseTime.Add(5*time.Minute), func() { c2 = mustComment(t, h, p.ID, "bob", "second") })
	h.at(baseTime, func() { c1 = mustComment(t, h, p.ID, "bob", "first") })
	h.clock.Set(baseTime.Add(10 * time.Minute))

	feed, err := h.content.GetFeed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed len = %d, want 1", len(feed))
	}
	got := feed[0].Comments
	if len(got) != 2 || got[0].ID != c1.ID || got[1].ID != c2.ID {
		t.Errorf("comments = %+v, want [%s %s]", got, c1.ID, c2.ID)
	}
	if feed[0].CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", feed[0].CommentCount)
	}
}

func TestGetFeedScenario(t *testing.T) {
	h := newHarness(t)

	p := mustPost(t, h, "alice", "hi")
	c := mustComment(t, h, p.ID, "bob", "hey")
	mustLike(t, h, p.ID, "bob")

	feed, err := h.content.GetFeed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed len = %d, want 1", len(feed))
	}
	fp := feed[0]
	if fp.LikeCount != 1 || fp.CommentCount != 1 {
		t.Errorf("likes = %d, comments = %d, want 1, 1", fp.LikeCount, fp.CommentCount)
	}
	if len(fp.Comments) != 1 || fp.Comments[0].ID != c.ID || fp.Comments[0].Text != "hey" {
		t.Errorf("comments = %+v", fp.Comments)
	}
}

func TestGetFeedExcludesExpiredLikesAndComments(t *testing.T) {
	h := newHarness(t)
	p := mustPost(t, h, "alice", "hi")

	h.at(baseTime.Add(-25*time.Hour), func() {
		mustLike(t, h, p.ID, "old")
		mustComment(t, h, p.ID, "old", "stale")
	})

	feed, err := h.content.GetFeed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if feed[0].LikeCount != 0 || feed[0].CommentCount != 0 {
		t.Errorf("got likes = %d, comments = %d, want 0, 0", feed[0].LikeCount, feed[0].CommentCount)
	}
	if feed[0].Comments == nil {
		t.Error("Comments should be empty, not nil")
	}
}

func TestGetFeedEmpty(t *testing.T) {
	h := newHarness(t)
	feed, err := h.content.GetFeed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if feed == nil || len(feed) != 0 {
		t.Errorf("feed = %v, want empty slice", feed)
	}
}

func TestGetFeedPropagatesBackendErrors(t *testing.T) {
	h := newHarness(t)
	mustPost(t, h, "alice", "hi")

	cols := h.cols
	cols.Likes = failingCollection[domain.Like]{name: "likes", err: errBoom}
	svc := NewContentService(cols, h.pub, WithClock(h.clock.Now))

	if _, err := svc.GetFeed(context.Background()); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	h := newHarness(t)
	h.pub.err = errBoom

	p := mustPost(t, h, "alice", "hi")
	all, err := h.cols.Posts.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != p.ID {
		t.Errorf("post not persisted: %+v", all)
	}
}
