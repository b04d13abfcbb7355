package domain

// FeedPost est la vue dénormalisée d'un post visible.
// Comments est trié du plus ancien au plus récent.
type FeedPost struct {
	Post         Post
	LikeCount    int
	CommentCount int
	Comments     []Comment
}
