package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
)

type fakeBucket struct {
	exists bool
	err    error

	bucket, key string
	body        []byte
	size        int64
	opts        minio.PutObjectOptions
}

func (f *fakeBucket) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	f.bucket, f.key, f.size, f.opts = bucket, key, size, opts
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	f.body = buf.Bytes()
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeBucket) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func TestStore_PutsImageWithContentType(t *testing.T) {
	fb := &fakeBucket{}
	s := &Store{client: fb, host: "minio:9000", bucketName: "leaves"}
	img := diagnosis.Image{Data: []byte{0xff, 0xd8, 0xff}, MimeType: "image/jpeg"}

	url, err := s.Store(context.Background(), "leaves/2026/10/16/abc.jpg", img)
	require.NoError(t, err)

	assert.Equal(t, "http://minio:9000/leaves/leaves/2026/10/16/abc.jpg", url)
	assert.Equal(t, "leaves", fb.bucket)
	assert.Equal(t, "image/jpeg", fb.opts.ContentType)
	assert.EqualValues(t, 3, fb.size)
	assert.Equal(t, img.Data, fb.body)
}

func TestStore_DefaultContentTypeAndErrors(t *testing.T) {
	fb := &fakeBucket{}
	s := &Store{client: fb, bucketName: "leaves"}

	_, err := s.Store(context.Background(), "k", diagnosis.Image{Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", fb.opts.ContentType)

	fb.err = errors.New("connection reset")
	_, err = s.Store(context.Background(), "k", diagnosis.Image{Data: []byte("x")})
	assert.EqualError(t, err, "connection reset")
}

func TestStore_Check(t *testing.T) {
	s := &Store{client: &fakeBucket{exists: true}, bucketName: "leaves"}
	assert.NoError(t, s.Check(context.Background()))

	s.client = &fakeBucket{exists: false}
	assert.EqualError(t, s.Check(context.Background()), "bucket leaves does not exist")

	s.client = &fakeBucket{err: errors.New("dial tcp: refused")}
	assert.Error(t, s.Check(context.Background()))
}
