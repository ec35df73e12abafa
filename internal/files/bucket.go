package files

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Bucket serves files from an S3-compatible bucket
type Bucket struct {
	Endpoint string
	Bucket   string
	Client   *minio.Client
}

// NewBucket creates a MinIO client for the bucket
func NewBucket(endpoint, accessKeyID, secretKey, bucket string, secure bool) (*Bucket, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &Bucket{
		Endpoint: endpoint,
		Bucket:   bucket,
		Client:   client,
	}, nil
}

// Open fetches the named object
func (b *Bucket) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := b.Client.GetObject(ctx, b.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("s3 stat object: %w", err)
	}
	return obj, nil
}

// Put uploads data as the named object
func (b *Bucket) Put(ctx context.Context, name string, data []byte) error {
	_, err := b.Client.PutObject(
		ctx,
		b.Bucket,
		name,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType(name),
		},
	)
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist
func (b *Bucket) EnsureBucket(ctx context.Context) error {
	exists, err := b.Client.BucketExists(ctx, b.Bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.Client.MakeBucket(ctx, b.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("s3 make bucket %s: %w", b.Bucket, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
