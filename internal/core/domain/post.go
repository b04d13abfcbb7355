package domain

import "time"

type Post struct {
	ID        string
	Author    string
	Text      string
	ImageURL  string // optionnel
	CreatedAt time.Time
}

// NewPost est le SEUL moyen de créer un post valide (ID + horodatage assignés ici).
func NewPost(author, text, imageURL string, now time.Time) (*Post, error) {
	if err := required("author", author); err != nil {
		return nil, err
	}
	if err := required("text", text); err != nil {
		return nil, err
	}

	id, ts := newIdentity(now)
	return &Post{
		ID:        id,
		Author:    author,
		Text:      text,
		ImageURL:  imageURL,
		CreatedAt: ts,
	}, nil
}

func (p Post) EntityID() string     { return p.ID }
func (p Post) Timestamp() time.Time { return p.CreatedAt }
