package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
)

// Codec convertit une entité en document plat (JSON) et inversement.
type Codec[T domain.Entity] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

var errMissingIdentity = errors.New("missing id or timestamp")

// --- DTOs (le domaine ne porte pas de tags JSON) ---

type postDocument struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type commentDocument struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type likeDocument struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

var PostCodec = Codec[domain.Post]{
	Encode: func(p domain.Post) ([]byte, error) {
		return json.Marshal(postDocument{
			ID:        p.ID,
			Author:    p.Author,
			Text:      p.Text,
			ImageURL:  p.ImageURL,
			Timestamp: p.CreatedAt,
		})
	},
	Decode: func(data []byte) (domain.Post, error) {
		var d postDocument
		if err := json.Unmarshal(data, &d); err != nil {
			return domain.Post{}, err
		}
		if d.ID == "" || d.Timestamp.IsZero() {
			return domain.Post{}, errMissingIdentity
		}
		return domain.Post{
			ID:        d.ID,
			Author:    d.Author,
			Text:      d.Text,
			ImageURL:  d.ImageURL,
			CreatedAt: d.Timestamp.UTC(),
		}, nil
	},
}

var CommentCodec = Codec[domain.Comment]{
	Encode: func(c domain.Comment) ([]byte, error) {
		return json.Marshal(commentDocument{
			ID:        c.ID,
			PostID:    c.PostID,
			User:      c.User,
			Text:      c.Text,
			Timestamp: c.CreatedAt,
		})
	},
	Decode: func(data []byte) (domain.Comment, error) {
		var d commentDocument
		if err := json.Unmarshal(data, &d); err != nil {
			return domain.Comment{}, err
		}
		if d.ID == "" || d.Timestamp.IsZero() {
			return domain.Comment{}, errMissingIdentity
		}
		return domain.Comment{
			ID:        d.ID,
			PostID:    d.PostID,
			User:      d.User,
			Text:      d.Text,
			CreatedAt: d.Timestamp.UTC(),
		}, nil
	},
}

var LikeCodec = Codec[domain.Like]{
	Encode: func(l domain.Like) ([]byte, error) {
		return json.Marshal(likeDocument{
			ID:        l.ID,
			PostID:    l.PostID,
			User:      l.User,
			Timestamp: l.CreatedAt,
		})
	},
	Decode: func(data []byte) (domain.Like, error) {
		var d likeDocument
		if err := json.Unmarshal(data, &d); err != nil {
			return domain.Like{}, err
		}
		if d.ID == "" || d.Timestamp.IsZero() {
			return domain.Like{}, errMissingIdentity
		}
		return domain.Like{
			ID:        d.ID,
			PostID:    d.PostID,
			User:      d.User,
			CreatedAt: d.Timestamp.UTC(),
		}, nil
	},
}
