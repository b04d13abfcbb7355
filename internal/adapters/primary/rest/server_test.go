package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/backend/memory"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/ephemera/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
	"github.com/jupiterclapton/ephemera/internal/core/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cols := repository.NewCollections(repository.NewDocumentStore(memory.New(), time.Second), "data")
	pub := eventbroker.NopPublisher{}
	srv := NewServer(
		services.NewContentService(cols, pub),
		services.NewCleanupService(cols, pub),
		nil,
		prometheus.NewRegistry(),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return resp, out
}

func TestCreateAndReadFeed(t *testing.T) {
	ts := newTestServer(t)

	resp, p := post(t, ts, "/api/posts", `{"author":"alice","text":"hi"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post status = %d, want 201", resp.StatusCode)
	}
	postID, _ := p["id"].(string)
	if postID == "" {
		t.Fatal("post id missing")
	}

	resp, _ = post(t, ts, "/api/comments", fmt.Sprintf(`{"postId":%q,"user":"bob","text":"hey"}`, postID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create comment status = %d, want 201", resp.StatusCode)
	}

	resp, _ = post(t, ts, "/api/likes", fmt.Sprintf(`{"postId":%q,"user":"bob"}`, postID))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create like status = %d, want 201", resp.StatusCode)
	}

	resp, dup := post(t, ts, "/api/likes", fmt.Sprintf(`{"postId":%q,"user":"bob"}`, postID))
	if resp.StatusCode != http.StatusOK || dup["duplicate"] != true {
		t.Fatalf("duplicate like = (%d, %v), want (200, duplicate)", resp.StatusCode, dup)
	}

	feedResp, err := http.Get(ts.URL + "/api/feed")
	if err != nil {
		t.Fatal(err)
	}
	defer feedResp.Body.Close()

	var feed []feedPostResponse
	if err := json.NewDecoder(feedResp.Body).Decode(&feed); err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed len = %d, want 1", len(feed))
	}
	if feed[0].ID != postID || feed[0].LikeCount != 1 || feed[0].CommentCount != 1 {
		t.Errorf("feed[0] = %+v", feed[0])
	}
	if len(feed[0].Comments) != 1 || feed[0].Comments[0].Text != "hey" {
		t.Errorf("comments = %+v", feed[0].Comments)
	}
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path, body, reason string
	}{
		{"/api/posts", `{"text":"hi"}`, "missing_author"},
		{"/api/comments", `{"postId":"p","user":"bob"}`, "missing_text"},
		{"/api/likes", `{"user":"bob"}`, "missing_postId"},
		{"/api/posts", `{not json`, "malformed_body"},
		{"/api/posts", `{"author":"a","text":"t","extra":1}`, "malformed_body"},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.reason, func(t *testing.T) {
			resp, body := post(t, ts, tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if body["reason"] != tt.reason {
				t.Errorf("reason = %v, want %s", body["reason"], tt.reason)
			}
		})
	}
}

func TestCleanupEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts, "/api/cleanup", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["deleted"] != float64(0) {
		t.Errorf("deleted = %v, want 0", body["deleted"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

type failingContent struct {
	ports.ContentService
	err error
}

func (f failingContent) GetFeed(context.Context) ([]domain.FeedPost, error) { return nil, f.err }

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get: %w", domain.ErrBackendUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: data/posts/x.json", domain.ErrCorruptDocument), http.StatusInternalServerError},
		{domain.ErrConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		srv := NewServer(failingContent{err: tt.err}, nil, nil, prometheus.NewRegistry())
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		var apiErr APIError
		if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
			t.Fatal(err)
		}
		if tt.status >= 500 && strings.Contains(apiErr.Error, "data/posts") {
			t.Errorf("internal details leaked: %q", apiErr.Error)
		}
	}
}
