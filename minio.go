package main

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient talks to S3-compatible endpoints such as a self-hosted MinIO.
type MinioClient struct {
	Client       *minio.Client
	storageClass string
}

func NewMinioBucketClient(pc ProviderConfig, storageClass string) (BucketClient, error) {
	var bucketClient BucketClient

	if pc.Endpoint == "" {
		return bucketClient, fmt.Errorf("minio provider requires an endpoint")
	}
	client, err := minio.New(pc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(pc.AccessKey, pc.SecretKey, ""),
		Secure: !pc.Insecure,
		Region: pc.Region,
	})
	if err != nil {
		return bucketClient, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}
	if storageClass == "" {
		storageClass = "GLACIER"
	}
	bucketClient = &MinioClient{Client: client, storageClass: storageClass}

	return bucketClient, nil
}

func (m *MinioClient) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := m.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}

	return ObjectInfo{Size: info.Size, ModTime: info.LastModified}, nil
}

func (m *MinioClient) UploadFile(ctx context.Context, bucket, key string, body UploadBody, size int64, opts UploadOptions) error {
	putOpts := minio.PutObjectOptions{DisableMultipart: true}
	if opts.Archival {
		putOpts.StorageClass = m.storageClass
	}
	_, err := m.Client.PutObject(ctx, bucket, key, body, size, putOpts)

	return err
}

func (m *MinioClient) SummarizePrefix(ctx context.Context, bucket, prefix string) (PrefixSummary, error) {
	var summary PrefixSummary
	// cancelling stops the lister goroutine when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	objects := m.Client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    directoryPrefix(prefix),
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return summary, fmt.Errorf("listing %s/%s: %w", bucket, prefix, object.Err)
		}
		summary.Add(object.Size)
	}

	return summary, nil
}
