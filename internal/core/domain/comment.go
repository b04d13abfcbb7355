package domain

import "time"

// Comment référence un Post par PostID sans contrainte d'intégrité :
// une référence pendante est tolérée.
type Comment struct {
	ID        string
	PostID    string
	User      string
	Text      string
	CreatedAt time.Time
}

func NewComment(postID, user, text string, now time.Time) (*Comment, error) {
	if err := required("postId", postID); err != nil {
		return nil, err
	}
	if err := required("user", user); err != nil {
		return nil, err
	}
	if err := required("text", text); err != nil {
		return nil, err
	}

	id, ts := newIdentity(now)
	return &Comment{
		ID:        id,
		PostID:    postID,
		User:      user,
		Text:      text,
		CreatedAt: ts,
	}, nil
}

func (c Comment) EntityID() string     { return c.ID }
func (c Comment) Timestamp() time.Time { return c.CreatedAt }
