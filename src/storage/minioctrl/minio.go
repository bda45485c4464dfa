package minioctrl

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentArchive keeps the raw bytes of every uploaded document so a failed
// ingestion can be replayed from the bucket and orphaned vector records
// traced back to their source. Objects are keyed <documentID>/<filename>.
type DocumentArchive struct {
	client *minio.Client
	bucket string
}

func NewDocumentArchive(endpoint, accessKeyID, secretAccessKey, bucket string, useSSL bool) (*DocumentArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %v", err)
	}

	return &DocumentArchive{
		client: client,
		bucket: bucket,
	}, nil
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *DocumentArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
	}
	return nil
}

// Store archives one document's raw bytes.
func (a *DocumentArchive) Store(ctx context.Context, documentID, filename string, data []byte) error {
	objectName := path.Join(documentID, filename)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %v", err)
	}
	return nil
}

