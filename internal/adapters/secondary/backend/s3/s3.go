package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
	"github.com/jupiterclapton/ephemera/internal/core/ports"
)

// Métadonnée portant la description du changement.
const messageMetaKey = "Change-Description"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Backend stocke chaque fichier comme un objet ; l'ETag sert de jeton de version.
type Backend struct {
	cfg    Config
	client *minio.Client
}

var _ ports.FileBackend = (*Backend)(nil)

func New(cfg Config) (*Backend, error) {
	cl, err := minio.New(strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://"), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{cfg: cfg, client: cl}, nil
}

func (b *Backend) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.cfg.Bucket)
	if err != nil {
		return handleError(err)
	}
	if !exists {
		return handleError(b.client.MakeBucket(ctx, b.cfg.Bucket, minio.MakeBucketOptions{}))
	}
	return nil
}

// ListDirectory liste un seul niveau : les préfixes communs deviennent des "dir".
func (b *Backend) ListDirectory(ctx context.Context, dir string) ([]domain.DirEntry, error) {
	prefix := strings.Trim(dir, "/") + "/"

	var out []domain.DirEntry
	for obj := range b.client.ListObjects(ctx, b.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, handleError(obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			out = append(out, domain.DirEntry{Name: strings.TrimSuffix(name, "/"), Type: domain.EntryDir})
			continue
		}
		out = append(out, domain.DirEntry{Name: name, Type: domain.EntryFile})
	}
	return out, nil
}

func (b *Backend) GetFile(ctx context.Context, path string) (*domain.File, error) {
	obj, err := b.client.GetObject(ctx, b.cfg.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleError(err)
	}

	content, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, handleError(err)
	}
	return &domain.File{Content: content, Version: info.ETag}, nil
}

// PutFile s'appuie sur les écritures conditionnelles S3 (If-Match / If-None-Match).
func (b *Backend) PutFile(ctx context.Context, path string, content []byte, version, message string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{messageMetaKey: message},
	}
	if version == "" {
		opts.SetMatchETagExcept("*")
	} else {
		opts.SetMatchETag(version)
	}

	info, err := b.client.PutObject(ctx, b.cfg.Bucket, path, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		return "", handleError(err)
	}
	return info.ETag, nil
}

// DeleteFile compare l'ETag courant avant la suppression. S3 n'offre pas de
// suppression conditionnelle : la fenêtre entre Stat et Remove reste ouverte.
func (b *Backend) DeleteFile(ctx context.Context, path, version, message string) (bool, error) {
	info, err := b.client.StatObject(ctx, b.cfg.Bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, handleError(err)
	}
	if info.ETag != version {
		return false, domain.ErrConflict
	}
	if err := b.client.RemoveObject(ctx, b.cfg.Bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return false, handleError(err)
	}
	return true, nil
}

// --- HELPERS ---

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

// handleError traduit les erreurs S3 en erreurs du domaine.
func handleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "PreconditionFailed",
		resp.Code == "ConditionalRequestConflict",
		resp.StatusCode == http.StatusPreconditionFailed:
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: s3: %v", domain.ErrBackendUnavailable, err)
	}
}
