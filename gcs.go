package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSClient struct {
	Client       *storage.Client
	storageClass string
}

func NewGCSBucketClient(ctx context.Context, pc ProviderConfig, storageClass string) (BucketClient, error) {
	var bucketClient BucketClient

	options := []option.ClientOption{}
	if pc.Endpoint != "" {
		options = append(options, option.WithEndpoint(pc.Endpoint))
	}
	if pc.CredentialsFile != "" {
		options = append(options, option.WithCredentialsFile(pc.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, options...)
	if err != nil {
		return bucketClient, fmt.Errorf("Error creating gcs client: %w", err)
	}
	if storageClass == "" {
		storageClass = "ARCHIVE"
	}
	bucketClient = &GCSClient{Client: client, storageClass: storageClass}

	return bucketClient, nil
}

func (s *GCSClient) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := s.Client.Bucket(bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{Size: attrs.Size, ModTime: attrs.Updated}, nil
}

func (s *GCSClient) UploadFile(ctx context.Context, bucket, key string, body UploadBody, size int64, opts UploadOptions) error {
	objWriter := s.Client.Bucket(bucket).Object(key).NewWriter(ctx)
	// a zero chunk size sends the object in a single request
	objWriter.ChunkSize = 0
	if opts.Archival {
		objWriter.StorageClass = s.storageClass
	}
	if _, uploadErr := io.Copy(objWriter, body); uploadErr != nil {
		objWriter.Close()
		return uploadErr
	}
	if closeErr := objWriter.Close(); closeErr != nil {
		return closeErr
	}

	return nil
}

func (s *GCSClient) SummarizePrefix(ctx context.Context, bucket, prefix string) (PrefixSummary, error) {
	var summary PrefixSummary
	objIter := s.Client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: directoryPrefix(prefix)})
	for {
		attrs, err := objIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("Bucket(%q).Objects: %w", bucket, err)
		}
		summary.Add(attrs.Size)
	}

	return summary, nil
}
