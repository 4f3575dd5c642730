// Package archive writes raw provider delta payloads to Cloud Storage.
// Archival is best-effort: callers log failures and move on, the sync result
// never depends on it.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const writeTimeout = 2 * time.Minute

// Writer archives raw payloads under
// deltas/<userID>/<YYYY/MM/DD>/<uuid>.json.
type Writer struct {
	client *storage.Client
	bucket string
}

// NewWriter creates a Writer for the given bucket. Assumes Application
// Default Credentials are configured.
func NewWriter(ctx context.Context, bucket string) (*Writer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive: create storage client: %w", err)
	}
	return &Writer{client: client, bucket: bucket}, nil
}

// Close releases the underlying storage client.
func (w *Writer) Close() error {
	if w.client != nil {
		return w.client.Close()
	}
	return nil
}

// WriteDelta stores one raw delta page for the user and returns the object
// name it was written to.
func (w *Writer) WriteDelta(ctx context.Context, userID string, payload []byte) (string, error) {
	objectName := fmt.Sprintf("deltas/%s/%s/%s.json", userID, time.Now().Format("2006/01/02"), uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	wc := w.client.Bucket(w.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(payload); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("archive: writing %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("archive: finalizing %s: %w", objectName, err)
	}
	return objectName, nil
}
