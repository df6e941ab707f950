// Package objects checks the image bucket for the object behind a
// notification before the ingestion validator records it.
package objects

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"photoalbum/internal/types"
)

// HeadObjectAPI is the subset of the S3 client used by Probe.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

var _ HeadObjectAPI = (*s3.Client)(nil)

// Probe reports whether objects exist in one bucket.
type Probe struct {
	client HeadObjectAPI
	bucket string
}

// NewProbe creates a Probe for bucket.
func NewProbe(client HeadObjectAPI, bucket string) *Probe {
	return &Probe{client: client, bucket: bucket}
}

// Exists returns false, nil when the object is gone. Any other failure is an
// ErrCodeUpstreamObjectStorage AppError.
func (p *Probe) Exists(ctx context.Context, key string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, types.NewAppErrorWithDetails(types.ErrCodeUpstreamObjectStorage,
		fmt.Sprintf("HeadObject s3://%s/%s failed", p.bucket, key), err,
		map[string]any{"bucket": p.bucket, "object_key": key})
}

// isNotFound recognizes a missing object. HeadObject has no response body, so
// S3 reports a bare 404 that the SDK surfaces either as types.NotFound or as
// a plain HTTP response error.
func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}
