package postgres

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS document_versions;

CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	dir        TEXT NOT NULL,
	name       TEXT NOT NULL,
	content    BYTEA NOT NULL,
	version    BIGINT NOT NULL DEFAULT nextval('document_versions'),
	message    TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS documents_dir_idx ON documents (dir);
`

// Backend stocke les fichiers dans une table ; la colonne version est le jeton.
type Backend struct {
	db *pgxpool.Pool
}

var _ ports.FileBackend = (*Backend)(nil)

func New(db *pgxpool.Pool) *Backend {
	return &Backend{db: db}
}

// Migrate crée la table et la séquence si besoin.
func (b *Backend) Migrate(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, schema); err != nil {
		return handleError(err)
	}
	return nil
}

// ListDirectory : les fichiers directs via l'index sur dir, plus les
// sous-répertoires déduits des chemins plus profonds.
func (b *Backend) ListDirectory(ctx context.Context, dir string) ([]domain.DirEntry, error) {
	dir = strings.Trim(dir, "/")
	q := `
		SELECT name, false AS is_dir
		FROM documents
		WHERE dir = @dir
		UNION
		SELECT DISTINCT split_part(substr(path, length(@prefix) + 1), '/', 1), true
		FROM documents
		WHERE path LIKE @nested
		ORDER BY 1
	`
	args := listArgs(dir)

	rows, err := b.db.Query(ctx, q, args)
	if err != nil {
		return nil, handleError(err)
	}
	defer rows.Close()

	var out []domain.DirEntry
	for rows.Next() {
		var name string
		var isDir bool
		if err := rows.Scan(&name, &isDir); err != nil {
			return nil, handleError(err)
		}
		typ := domain.EntryFile
		if isDir {
			typ = domain.EntryDir
		}
		out = append(out, domain.DirEntry{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, handleError(err)
	}
	return out, nil
}

func (b *Backend) GetFile(ctx context.Context, p string) (*domain.File, error) {
	var content []byte
	var version int64
	err := b.db.QueryRow(ctx, `SELECT content, version FROM documents WHERE path = $1`, p).Scan(&content, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, handleError(err)
	}
	return &domain.File{Content: content, Version: strconv.FormatInt(version, 10)}, nil
}

// PutFile : INSERT si version vide, UPDATE conditionnel sinon.
// Aucune ligne retournée = la version attendue n'était pas la bonne.
func (b *Backend) PutFile(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	var next int64
	var err error

	if version == "" {
		q := `
			INSERT INTO documents (path, dir, name, content, message)
			VALUES (@path, @dir, @name, @content, @message)
			ON CONFLICT (path) DO NOTHING
			RETURNING version
		`
		err = b.db.QueryRow(ctx, q, pgx.NamedArgs{
			"path":    p,
			"dir":     path.Dir(p),
			"name":    path.Base(p),
			"content": content,
			"message": message,
		}).Scan(&next)
	} else {
		current, perr := strconv.ParseInt(version, 10, 64)
		if perr != nil {
			return "", domain.ErrConflict
		}
		q := `
			UPDATE documents
			SET content = @content, message = @message,
			    version = nextval('document_versions'), updated_at = now()
			WHERE path = @path AND version = @version
			RETURNING version
		`
		err = b.db.QueryRow(ctx, q, pgx.NamedArgs{
			"path":    p,
			"content": content,
			"message": message,
			"version": current,
		}).Scan(&next)
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrConflict
		}
		return "", handleError(err)
	}
	return strconv.FormatInt(next, 10), nil
}

func (b *Backend) DeleteFile(ctx context.Context, p, version, message string) (bool, error) {
	current, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return false, domain.ErrConflict
	}

	tag, err := b.db.Exec(ctx, `DELETE FROM documents WHERE path = $1 AND version = $2`, p, current)
	if err != nil {
		return false, handleError(err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Rien supprimé : absent (ok) ou version différente (conflit)
	var exists bool
	if err := b.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE path = $1)`, p).Scan(&exists); err != nil {
		return false, handleError(err)
	}
	if exists {
		return false, domain.ErrConflict
	}
	return false, nil
}

// --- HELPERS ---

// listArgs : dir est comparé tel que stocké par PutFile (path.Dir), nested ne
// retient que les chemins ayant au moins un niveau sous dir.
func listArgs(dir string) pgx.NamedArgs {
	prefix := dir + "/"
	return pgx.NamedArgs{
		"dir":    dir,
		"prefix": prefix,
		"nested": escapeLike(prefix) + "%/%",
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func handleError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: postgres: %v", domain.ErrBackendUnavailable, err)
}
