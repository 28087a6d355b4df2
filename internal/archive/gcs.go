// Package archive stores raw classifier replies that failed JSON extraction
// in a GCS bucket, so malformed model output can be inspected offline.
// Archiving is strictly best-effort; callers log and ignore its errors.
package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSArchive writes replies under replies/<yyyy>/<mm>/<dd>/<messageID>.txt.
// It assumes Application Default Credentials are configured.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive creates an archive writing into the given bucket.
func NewGCSArchive(ctx context.Context, bucket string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchive: create storage client: %w", err)
	}
	return &GCSArchive{
		client: client,
		bucket: bucket,
	}, nil
}

// Close closes the underlying storage client.
func (a *GCSArchive) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// ArchiveReply uploads one raw model reply. The object name embeds the date
// and the source message id so replies sort naturally in the bucket.
func (a *GCSArchive) ArchiveReply(ctx context.Context, messageID, raw string) error {
	objectName := fmt.Sprintf("replies/%s/%s.txt", time.Now().Format("2006/01/02"), messageID)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(w, strings.NewReader(raw)); err != nil {
		_ = w.Close()
		return fmt.Errorf("ArchiveReply: writing object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("ArchiveReply: finalizing upload %s: %w", objectName, err)
	}
	return nil
}
