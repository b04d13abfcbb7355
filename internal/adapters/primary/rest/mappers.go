package rest

import (
	"time"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
)

// --- REQUÊTES ---

type createPostRequest struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type createCommentRequest struct {
	PostID string `json:"postId"`
	User   string `json:"user"`
	Text   string `json:"text"`
}

type createLikeRequest struct {
	PostID string `json:"postId"`
	User   string `json:"user"`
}

// --- RÉPONSES ---

type postResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type likeResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

type duplicateResponse struct {
	Duplicate bool `json:"duplicate"`
}

type feedPostResponse struct {
	postResponse
	LikeCount    int               `json:"likeCount"`
	CommentCount int               `json:"commentCount"`
	Comments     []commentResponse `json:"comments"`
}

type cleanupResponse struct {
	Deleted int `json:"deleted"`
}

func mapPost(p *domain.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Author:    p.Author,
		Text:      p.Text,
		ImageURL:  p.ImageURL,
		Timestamp: p.CreatedAt,
	}
}

func mapComment(c *domain.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		User:      c.User,
		Text:      c.Text,
		Timestamp: c.CreatedAt,
	}
}

func mapLike(l *domain.Like) likeResponse {
	return likeResponse{
		ID:        l.ID,
		PostID:    l.PostID,
		User:      l.User,
		Timestamp: l.CreatedAt,
	}
}

func mapFeed(feed []domain.FeedPost) []feedPostResponse {
	res := make([]feedPostResponse, len(feed))
	for i, fp := range feed {
		comments := make([]commentResponse, len(fp.Comments))
		for j := range fp.Comments {
			comments[j] = mapComment(&fp.Comments[j])
		}
		res[i] = feedPostResponse{
			postResponse: mapPost(&fp.Post),
			LikeCount:    fp.LikeCount,
			CommentCount: fp.CommentCount,
			Comments:     comments,
		}
	}
	return res
}
