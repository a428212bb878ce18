package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrObjectNotFound is returned by HeadObject when no object exists at the key.
var ErrObjectNotFound = errors.New("object not found")

// singlePartLimit keeps uploads in a single request; archive files are
// expected to stay below it, and providers cap a single part at this size.
const singlePartLimit = 5 * 1024 * 1024 * 1024

type ObjectInfo struct {
	Size    int64
	ModTime time.Time
}

// PrefixSummary aggregates the objects found under a key prefix.
type PrefixSummary struct {
	Count     int64
	TotalSize int64
}

func (p *PrefixSummary) Add(size int64) {
	p.Count++
	p.TotalSize += size
}

type UploadOptions struct {
	Archival bool
}

// BucketClient is the remote object store. Implementations must be safe for
// concurrent use by upload workers.
type BucketClient interface {
	HeadObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	UploadFile(ctx context.Context, bucket, key string, body UploadBody, size int64, opts UploadOptions) error
	SummarizePrefix(ctx context.Context, bucket, prefix string) (PrefixSummary, error)
}

// UploadBody is a seekable file body. Keeping ReaderAt lets SDK uploaders
// stream sections of the file instead of buffering a whole part.
type UploadBody interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// directoryPrefix turns a unit key into a listing prefix that does not
// match sibling units sharing a name prefix.
func directoryPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}
