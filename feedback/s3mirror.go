package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror writes each appended record as its own object, so the bucket
// accumulates an append-only copy of the log that a purge of the local
// store does not touch.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Mirror(ctx context.Context, region, bucket, prefix string) (*S3Mirror, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Mirror{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

func (m *S3Mirror) Name() string { return "s3-backup" }

func (m *S3Mirror) Forward(ctx context.Context, sub Submission) error {
	content, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}

	key := sub.ID + ".json"
	if m.prefix != "" {
		key = m.prefix + "/" + key
	}
	mediaType := "application/json"
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &m.bucket,
		Key:         &key,
		Body:        bytes.NewReader(content),
		ContentType: &mediaType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}
