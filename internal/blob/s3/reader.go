package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/polypaper/internal/domain"
)

// Reader fetches ledger and snapshot objects from the bound bucket.
type Reader struct {
	client *s3.Client
	bucket string
}

// NewReader returns a Reader for c's bucket.
func NewReader(c *Client) *Reader {
	return &Reader{client: c.S3(), bucket: c.Bucket()}
}

// Get opens the object at key; the caller closes the body. An absent key
// wraps domain.ErrNotFound so the ledger store can start empty.
func (r *Reader) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return out.Body, nil
	case isNotFound(err):
		return nil, fmt.Errorf("s3blob: get %s: %w", key, domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("s3blob: get %s: %w", key, err)
	}
}

// statusCoder is satisfied by the SDK's HTTP response errors.
type statusCoder interface {
	HTTPStatusCode() int
}

// isNotFound accepts the SDK's typed errors and the plain 404 some
// S3-compatible stores send instead.
func isNotFound(err error) bool {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
		status   statusCoder
	)
	switch {
	case errors.As(err, &noKey), errors.As(err, &notFound):
		return true
	case errors.As(err, &status):
		return status.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}

var _ domain.BlobReader = (*Reader)(nil)
