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
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZENFALLACY/weather-harvester/internal/cacheutil"
)

// fakeS3 is an in-memory bucket. Listings are paged two keys at a time.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	getErr   error
	lists    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, pageSize: 2}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	end := min(start+f.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	return out, nil
}

func TestS3Backend_Location(t *testing.T) {
	assert.Equal(t, "s3://bkt/", NewS3Backend(newFakeS3(), "bkt", "").Location())
	assert.Equal(t, "s3://bkt/a/b/", NewS3Backend(newFakeS3(), "bkt", "/a/b/").Location())
}

func TestS3Backend_ReadWriteRemove(t *testing.T) {
	f := newFakeS3()
	b := NewS3Backend(f, "bkt", "weather")

	_, err := b.Read("x.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, b.Write("x.json", []byte(`{}`)))
	assert.Contains(t, f.objects, "weather/x.json")

	data, err := b.Read("x.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	require.NoError(t, b.Remove("x.json"))
	assert.True(t, errors.Is(b.Remove("x.json"), fs.ErrNotExist))
}

func TestS3Backend_ListPagesAndFilters(t *testing.T) {
	f := newFakeS3()
	b := NewS3Backend(f, "bkt", "weather")

	for i := range 5 {
		require.NoError(t, b.Write(cacheutil.EntryName(fmt.Sprintf("k%d", i)), []byte("{}")))
	}
	f.objects["weather/readme.txt"] = []byte("x")
	f.objects["other/"+cacheutil.EntryName("k0")] = []byte("{}")

	objs, err := b.List()
	require.NoError(t, err)
	assert.Len(t, objs, 5)
	assert.Equal(t, 3, f.lists, "six keys under the prefix at two per page")
	for _, o := range objs {
		assert.True(t, cacheutil.IsEntryName(o.Name))
		assert.Equal(t, int64(2), o.Size)
	}
}

func TestStore_OnS3(t *testing.T) {
	c := newClock()
	f := newFakeS3()
	s := New(NewS3Backend(f, "bkt", "cache"), time.Minute, WithClock(c.Now))

	s.Set("a", map[string]any{"n": 1})
	s.SetWithTTL("b", 2, time.Second)
	s.Set("c", 3)

	var got map[string]any
	require.True(t, s.GetInto("a", &got))
	assert.Equal(t, float64(1), got["n"])

	c.Advance(5 * time.Second)
	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Expired)
	assert.Equal(t, "s3://bkt/cache/", st.Location)

	assert.Equal(t, 1, s.CleanupExpired())
	assert.True(t, s.Delete("c"))
	assert.False(t, s.Delete("c"))
	assert.Equal(t, 1, s.Clear())
	assert.Empty(t, f.objects)
}

func TestStore_OnS3ReadError(t *testing.T) {
	f := newFakeS3()
	s := New(NewS3Backend(f, "bkt", ""), time.Minute)

	s.Set("a", 1)
	f.getErr = errors.New("access denied")

	_, ok := s.Get("a")
	assert.False(t, ok)
}
