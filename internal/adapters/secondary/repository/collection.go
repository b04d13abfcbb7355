package repository

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

const documentExt = ".json"

// Noms des répertoires de collection sous le chemin de base.
const (
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	LikesCollection    = "likes"
)

// Collection stocke chaque entité dans <base>/<name>/<id>.json.
type Collection[T domain.Entity] struct {
	store *DocumentStore
	base  string
	name  string
	kind  string // nom singulier utilisé dans les descriptions de changement
	codec Codec[T]
}

var _ ports.Collection[domain.Post] = (*Collection[domain.Post])(nil)

func NewCollection[T domain.Entity](store *DocumentStore, base, name string, codec Codec[T]) *Collection[T] {
	return &Collection[T]{
		store: store,
		base:  base,
		name:  name,
		kind:  strings.TrimSuffix(name, "s"),
		codec: codec,
	}
}

// NewCollections câble les trois collections sur un même DocumentStore.
func NewCollections(store *DocumentStore, base string) ports.Collections {
	return ports.Collections{
		Posts:    NewCollection(store, base, PostsCollection, PostCodec),
		Comments: NewCollection(store, base, CommentsCollection, CommentCodec),
		Likes:    NewCollection(store, base, LikesCollection, LikeCodec),
	}
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	data, err := c.codec.Encode(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", c.kind, err)
	}

	msg := fmt.Sprintf("create %s %s", c.kind, entity.EntityID())
	if _, err := c.store.Put(ctx, c.pathFor(entity.EntityID()), data, msg); err != nil {
		return zero, err
	}
	return entity, nil
}

// ListAll lit tous les documents du répertoire. Un contenu illisible est une
// corruption du backend : toute la lecture échoue avec ErrCorruptDocument.
func (c *Collection[T]) ListAll(ctx context.Context) ([]T, error) {
	entries, err := c.store.List(ctx, c.dir())
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if e.Type != domain.EntryFile || !strings.HasSuffix(e.Name, documentExt) {
			continue
		}
		p := path.Join(c.dir(), e.Name)

		doc, err := c.store.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// Supprimé entre le listing et la lecture (balayage concurrent)
			continue
		}

		entity, err := c.codec.Decode(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptDocument, p, err)
		}
		out = append(out, entity)
	}
	return out, nil
}

func (c *Collection[T]) ListWhere(ctx context.Context, keep func(T) bool) ([]T, error) {
	all, err := c.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(all))
	for _, e := range all {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Collection[T]) CountWhere(ctx context.Context, keep func(T) bool) (int, error) {
	matches, err := c.ListWhere(ctx, keep)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	msg := fmt.Sprintf("delete %s %s", c.kind, id)
	return c.store.Delete(ctx, c.pathFor(id), msg)
}

func (c *Collection[T]) dir() string {
	return path.Join(c.base, c.name)
}

func (c *Collection[T]) pathFor(id string) string {
	return path.Join(c.dir(), id+documentExt)
}
