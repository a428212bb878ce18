package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockBucketClient is an in-memory BucketClient. Errors can be injected per
// key for HeadObject and UploadFile.
type MockBucketClient struct {
	UploadRequests []MockRequest
	HeadRequests   []MockRequest
	ListRequests   []MockRequest
	Objects        map[string][]byte
	HeadErrors     map[string]error
	UploadErrors   map[string]error
	ListError      error
	// SizeSkew is added to the size of every listed object.
	SizeSkew int64
	// ExtraObjects are listed under their key without having been uploaded.
	ExtraObjects map[string]int64
	lock         sync.Mutex
}

type MockRequest struct {
	Bucket   string
	Key      string
	Archival bool
}

func NewMockClient() *MockBucketClient {
	return &MockBucketClient{
		UploadRequests: make([]MockRequest, 0),
		HeadRequests:   make([]MockRequest, 0),
		ListRequests:   make([]MockRequest, 0),
		Objects:        make(map[string][]byte),
		HeadErrors:     make(map[string]error),
		UploadErrors:   make(map[string]error),
		ExtraObjects:   make(map[string]int64),
	}
}

func (c *MockBucketClient) HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.HeadRequests = append(c.HeadRequests, MockRequest{Bucket: bucket, Key: key})
	if err, ok := c.HeadErrors[key]; ok {
		return ObjectInfo{}, err
	}
	data, ok := c.Objects[key]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return ObjectInfo{Size: int64(len(data))}, nil
}

func (c *MockBucketClient) UploadFile(ctx context.Context, bucket, key string, body UploadBody, size int64, opts UploadOptions) error {
	c.lock.Lock()
	uploadErr := c.UploadErrors[key]
	c.UploadRequests = append(c.UploadRequests, MockRequest{Bucket: bucket, Key: key, Archival: opts.Archival})
	c.lock.Unlock()
	if uploadErr != nil {
		return uploadErr
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("%s: read %d bytes, expected %d", key, len(data), size)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.Objects[key] = data
	return nil
}

func (c *MockBucketClient) SummarizePrefix(ctx context.Context, bucket, prefix string) (PrefixSummary, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.ListRequests = append(c.ListRequests, MockRequest{Bucket: bucket, Key: prefix})
	if c.ListError != nil {
		return PrefixSummary{}, c.ListError
	}

	var summary PrefixSummary
	listPrefix := directoryPrefix(prefix)
	for key, data := range c.Objects {
		if strings.HasPrefix(key, listPrefix) {
			summary.Add(int64(len(data)) + c.SizeSkew)
		}
	}
	for key, size := range c.ExtraObjects {
		if strings.HasPrefix(key, listPrefix) {
			summary.Add(size)
		}
	}
	return summary, nil
}

// Uploads returns the keys uploaded so far.
func (c *MockBucketClient) Uploads() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	keys := make([]string, 0, len(c.UploadRequests))
	for _, request := range c.UploadRequests {
		keys = append(keys, request.Key)
	}
	return keys
}
