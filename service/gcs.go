package service

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/alqadi/procuredocs"
)

// GCSArchive writes documents to a Cloud Storage bucket as
// <prefix>/<category>/<document id>.pdf.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchive connects to Cloud Storage. Credentials come from the
// environment unless passed in opts, e.g. option.WithCredentialsJSON.
func NewGCSArchive(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSArchive, error) {
	if bucket == "" {
		return nil, fmt.Errorf("service: gcs bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("service: gcs client: %w", err)
	}
	return &GCSArchive{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName returns the object a document is archived under.
func (a *GCSArchive) ObjectName(doc *procuredocs.Document) string {
	return path.Join(a.prefix, string(doc.Meta.Category), doc.Meta.ID+".pdf")
}

func (a *GCSArchive) Put(ctx context.Context, doc *procuredocs.Document) error {
	w := a.client.Bucket(a.bucket).Object(a.ObjectName(doc)).NewWriter(ctx)
	w.ContentType = "application/pdf"
	w.Metadata = map[string]string{
		"template-id":      doc.Meta.TemplateID,
		"template-version": strconv.Itoa(doc.Meta.TemplateVersion),
		"language":         string(doc.Meta.Language),
		"pages":            strconv.Itoa(doc.Meta.PageCount),
		"sha256":           doc.Meta.Checksum,
	}
	if _, err := w.Write(doc.Bytes); err != nil {
		w.Close()
		return fmt.Errorf("service: gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("service: gcs close: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (a *GCSArchive) Close() error { return a.client.Close() }
