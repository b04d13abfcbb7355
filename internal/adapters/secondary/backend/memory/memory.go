package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

type entry struct {
	content []byte
	version string
	message string
}

// Backend est un FileBackend en mémoire (dev local et tests).
// Les versions sont tirées d'un compteur monotone.
type Backend struct {
	mu    sync.RWMutex
	files map[string]entry
	seq   uint64
}

var _ ports.FileBackend = (*Backend)(nil)

func New() *Backend {
	return &Backend{files: make(map[string]entry)}
}

func (b *Backend) ListDirectory(ctx context.Context, dir string) ([]domain.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := strings.Trim(dir, "/") + "/"

	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[string]domain.EntryType)
	for p := range b.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		name, _, nested := strings.Cut(rest, "/")
		if nested {
			seen[name] = domain.EntryDir
		} else if _, dup := seen[name]; !dup {
			seen[name] = domain.EntryFile
		}
	}

	out := make([]domain.DirEntry, 0, len(seen))
	for name, typ := range seen {
		out = append(out, domain.DirEntry{Name: name, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Backend) GetFile(ctx context.Context, path string) (*domain.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.files[path]
	if !ok {
		return nil, nil
	}
	content := make([]byte, len(e.content))
	copy(content, e.content)
	return &domain.File{Content: content, Version: e.version}, nil
}

func (b *Backend) PutFile(ctx context.Context, path string, content []byte, version, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, exists := b.files[path]
	switch {
	case version == "" && exists:
		return "", domain.ErrConflict
	case version != "" && (!exists || current.version != version):
		return "", domain.ErrConflict
	}

	b.seq++
	next := strconv.FormatUint(b.seq, 10)
	stored := make([]byte, len(content))
	copy(stored, content)
	b.files[path] = entry{content: stored, version: next, message: message}
	return next, nil
}

func (b *Backend) DeleteFile(ctx context.Context, path, version, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current, exists := b.files[path]
	if !exists {
		return false, nil
	}
	if current.version != version {
		return false, domain.ErrConflict
	}
	delete(b.files, path)
	return true, nil
}

// Message renvoie la description du dernier changement appliqué à path.
func (b *Backend) Message(path string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.files[path]
	return e.message, ok
}

// Len renvoie le nombre de fichiers stockés.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.files)
}
