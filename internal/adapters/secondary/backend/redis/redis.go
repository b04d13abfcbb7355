package redis

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// Schéma des clés :
//   ephemera:doc:<path>  HASH {content, version, message}
//   ephemera:dir:<dir>   SET  des noms ("x.json" ou "sub/" pour un sous-répertoire)
//   ephemera:seq         compteur global des versions
const (
	keyPrefix = "ephemera:"
	seqKey    = keyPrefix + "seq"
)

// Backend est un FileBackend adossé à Redis. L'optimistic locking passe par WATCH/MULTI.
type Backend struct {
	client redis.UniversalClient
}

var _ ports.FileBackend = (*Backend)(nil)

func New(client redis.UniversalClient) *Backend {
	return &Backend{client: client}
}

func (b *Backend) ListDirectory(ctx context.Context, dir string) ([]domain.DirEntry, error) {
	members, err := b.client.SMembers(ctx, dirKey(dir)).Result()
	if err != nil {
		return nil, handleError(err)
	}

	out := make([]domain.DirEntry, 0, len(members))
	for _, m := range members {
		if name, ok := strings.CutSuffix(m, "/"); ok {
			out = append(out, domain.DirEntry{Name: name, Type: domain.EntryDir})
			continue
		}
		out = append(out, domain.DirEntry{Name: m, Type: domain.EntryFile})
	}
	return out, nil
}

func (b *Backend) GetFile(ctx context.Context, p string) (*domain.File, error) {
	vals, err := b.client.HMGet(ctx, docKey(p), "content", "version").Result()
	if err != nil {
		return nil, handleError(err)
	}
	content, ok1 := vals[0].(string)
	version, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, nil
	}
	return &domain.File{Content: []byte(content), Version: version}, nil
}

func (b *Backend) PutFile(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	key := docKey(p)
	var committed string

	// 1. WATCH sur le document : toute écriture concurrente fait échouer EXEC
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "version").Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		exists := err == nil

		// 2. Vérification de la version attendue
		if (version == "" && exists) || (version != "" && current != version) {
			return domain.ErrConflict
		}

		next, err := tx.Incr(ctx, seqKey).Result()
		if err != nil {
			return err
		}
		committed = strconv.FormatInt(next, 10)

		// 3. Écriture atomique du document et de son entrée de répertoire
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "content", content, "version", committed, "message", message)
			registerPath(ctx, pipe, p)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return "", handleError(err)
	}
	return committed, nil
}

func (b *Backend) DeleteFile(ctx context.Context, p, version, message string) (bool, error) {
	key := docKey(p)
	removed := false

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "version").Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != version {
			return domain.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, dirKey(path.Dir(p)), path.Base(p))
			return nil
		})
		removed = err == nil
		return err
	}, key)

	if err != nil {
		return false, handleError(err)
	}
	return removed, nil
}

// --- HELPERS ---

func docKey(p string) string { return keyPrefix + "doc:" + strings.Trim(p, "/") }
func dirKey(d string) string { return keyPrefix + "dir:" + strings.Trim(d, "/") }

// registerPath ajoute le fichier à son répertoire, puis chaque ancêtre au sien.
func registerPath(ctx context.Context, pipe redis.Pipeliner, p string) {
	dir, name := path.Dir(p), path.Base(p)
	pipe.SAdd(ctx, dirKey(dir), name)
	for dir != "." && dir != "/" {
		parent := path.Dir(dir)
		pipe.SAdd(ctx, dirKey(parent), path.Base(dir)+"/")
		dir = parent
	}
}

func handleError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, redis.TxFailedErr):
		return domain.ErrConflict
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: redis: %v", domain.ErrBackendUnavailable, err)
	}
}
