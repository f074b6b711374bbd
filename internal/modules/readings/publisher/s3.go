package publisher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client the publisher uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Publisher struct {
	client S3API
	bucket string
	key    string
}

// NewS3Publisher overwrites bucket/key on every publish. The page is served
// through a CDN, so it is stored with no-cache.
func NewS3Publisher(client S3API, bucket, key string) Publisher {
	return &s3Publisher{client: client, bucket: bucket, key: key}
}

func (p *s3Publisher) Publish(ctx context.Context, doc []byte) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(p.key),
		Body:          bytes.NewReader(doc),
		ContentLength: aws.Int64(int64(len(doc))),
		ContentType:   aws.String(ContentType),
		CacheControl:  aws.String("no-cache"),
		Metadata: map[string]string{
			"content-blake3": Digest(doc),
		},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, p.key, err)
	}
	return nil
}
