package domain

import "time"

// Like : au plus un par couple (PostID, User) parmi les likes visibles.
// L'unicité est vérifiée à la création, pas par le stockage.
type Like struct {
	ID        string
	PostID    string
	User      string
	CreatedAt time.Time
}

func NewLike(postID, user string, now time.Time) (*Like, error) {
	if err := required("postId", postID); err != nil {
		return nil, err
	}
	if err := required("user", user); err != nil {
		return nil, err
	}

	id, ts := newIdentity(now)
	return &Like{
		ID:        id,
		PostID:    postID,
		User:      user,
		CreatedAt: ts,
	}, nil
}

func (l Like) EntityID() string     { return l.ID }
func (l Like) Timestamp() time.Time { return l.CreatedAt }

// LikeResult vaut soit un Like créé, soit le marqueur Duplicate (rien n'a été écrit).
type LikeResult struct {
	Like      *Like
	Duplicate bool
}
