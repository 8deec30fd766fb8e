// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
)

// DefaultS3Timeout bounds every single S3 call made by an S3Backend.
const DefaultS3Timeout = 30 * time.Second

// S3API is the slice of the S3 client an S3Backend needs. *s3.Client
// satisfies it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Backend keeps one object per entry under bucket/prefix. A single
// PutObject is atomic from the reader's point of view.
type S3Backend struct {
	client  S3API
	bucket  string
	prefix  string
	timeout time.Duration
}

var _ Backend = (*S3Backend)(nil)

// NewS3Backend returns a backend storing entries as s3://bucket/prefix<name>.
// A non-empty prefix is normalized to end with a slash.
func NewS3Backend(client S3API, bucket, prefix string) *S3Backend {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Backend{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		timeout: DefaultS3Timeout,
	}
}

func (b *S3Backend) key(name string) *string {
	return aws.String(b.prefix + name)
}

func (b *S3Backend) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

// Read implements Backend.
func (b *S3Backend) Read(name string) ([]byte, error) {
	ctx, cancel := b.callContext()
	defer cancel()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    b.key(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get s3 object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object: %w", err)
	}
	return data, nil
}

// Write implements Backend.
func (b *S3Backend) Write(name string, data []byte) error {
	ctx, cancel := b.callContext()
	defer cancel()

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         b.key(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3 object: %w", err)
	}
	return nil
}

// Remove implements Backend. S3 deletes succeed for missing keys, so
// existence is checked first to keep Delete's boolean honest.
func (b *S3Backend) Remove(name string) error {
	ctx, cancel := b.callContext()
	defer cancel()

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    b.key(name),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%s: %w", name, fs.ErrNotExist)
		}
		return fmt.Errorf("failed to head s3 object: %w", err)
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    b.key(name),
	}); err != nil {
		return fmt.Errorf("failed to delete s3 object: %w", err)
	}
	return nil
}

// List implements Backend.
func (b *S3Backend) List() ([]Object, error) {
	ctx, cancel := b.callContext()
	defer cancel()

	input := &s3.ListObjectsV2Input{Bucket: aws.String(b.bucket)}
	if b.prefix != "" {
		input.Prefix = aws.String(b.prefix)
	}

	var objs []Object
	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3 objects: %w", err)
		}
		for _, o := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(o.Key), b.prefix)
			if !cacheutil.IsEntryName(name) {
				continue
			}
			objs = append(objs, Object{Name: name, Size: aws.ToInt64(o.Size)})
		}
	}
	return objs, nil
}

// Location implements Backend.
func (b *S3Backend) Location() string {
	return "s3://" + b.bucket + "/" + b.prefix
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
