package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

type Server struct {
	content        ports.ContentService
	cleanup        ports.CleanupService
	allowedOrigins []string
	gatherer       prometheus.Gatherer
}

func NewServer(content ports.ContentService, cleanup ports.CleanupService, allowedOrigins []string, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		content:        content,
		cleanup:        cleanup,
		allowedOrigins: allowedOrigins,
		gatherer:       gatherer,
	}
}

// Handler construit la chaîne : routes -> CORS -> OTEL HTTP.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.Handle("POST /api/posts", Wrap(s.createPost))
	api.Handle("POST /api/comments", Wrap(s.createComment))
	api.Handle("POST /api/likes", Wrap(s.createLike))
	api.Handle("GET /api/feed", Wrap(s.getFeed))
	api.Handle("POST /api/cleanup", Wrap(s.runCleanup))

	var h http.Handler = api

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "traceparent", "baggage"},
	})
	h = c.Handler(h)

	h = otelhttp.NewHandler(h, "ephemera-http", otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))

	mux := http.NewServeMux()
	mux.Handle("/api/", h)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) error {
	req, err := Decode[createPostRequest](r)
	if err != nil {
		return err
	}

	post, err := s.content.CreatePost(r.Context(), ports.CreatePostCmd{
		Author:   req.Author,
		Text:     req.Text,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	WriteJSON(w, mapPost(post), http.StatusCreated)
	return nil
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) error {
	req, err := Decode[createCommentRequest](r)
	if err != nil {
		return err
	}

	comment, err := s.content.CreateComment(r.Context(), ports.CreateCommentCmd{
		PostID: req.PostID,
		User:   req.User,
		Text:   req.Text,
	})
	if err != nil {
		return err
	}
	WriteJSON(w, mapComment(comment), http.StatusCreated)
	return nil
}

func (s *Server) createLike(w http.ResponseWriter, r *http.Request) error {
	req, err := Decode[createLikeRequest](r)
	if err != nil {
		return err
	}

	res, err := s.content.CreateLike(r.Context(), ports.CreateLikeCmd{
		PostID: req.PostID,
		User:   req.User,
	})
	if err != nil {
		return err
	}
	if res.Duplicate {
		WriteJSON(w, duplicateResponse{Duplicate: true}, http.StatusOK)
		return nil
	}
	WriteJSON(w, mapLike(res.Like), http.StatusCreated)
	return nil
}

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	feed, err := s.content.GetFeed(r.Context())
	if err != nil {
		return err
	}
	WriteJSON(w, mapFeed(feed), http.StatusOK)
	return nil
}

func (s *Server) runCleanup(w http.ResponseWriter, r *http.Request) error {
	deleted, err := s.cleanup.Sweep(r.Context())
	if err != nil {
		return err
	}
	WriteJSON(w, cleanupResponse{Deleted: deleted}, http.StatusOK)
	return nil
}

// mapDomainError traduit les erreurs métier en statut HTTP et raison courte.
func mapDomainError(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "missing_" + verr.Field
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "malformed_body"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, domain.ErrBackendUnavailable):
		slog.Error("❌ Backend unavailable", "error", err)
		return http.StatusServiceUnavailable, "backend_unavailable"
	default:
		// Corruption, bug... -> ne pas fuiter les détails techniques
		slog.Error("❌ Internal error", "error", err)
		return http.StatusInternalServerError, "internal"
	}
}
