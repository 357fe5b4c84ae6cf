package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memS3 is an in-memory s3API.
type memS3 struct {
	objects map[string][]byte
	putErr  error
	lastPut *s3.PutObjectInput
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	m.lastPut = in
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Sink(t *testing.T) {
	ctx := context.Background()
	client := &memS3{}
	sink := newS3Sink(client, "paydesk", "exports/")
	assert.Equal(t, "s3", sink.Kind())

	_, err := sink.Open(ctx, FileName)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, sink.Put(ctx, FileName, bytes.NewReader([]byte("workbook")), 8))
	assert.Equal(t, "exports/records.xlsx", aws.ToString(client.lastPut.Key))
	assert.Equal(t, ContentType, aws.ToString(client.lastPut.ContentType))
	assert.EqualValues(t, 8, aws.ToInt64(client.lastPut.ContentLength))

	rc, err := sink.Open(ctx, FileName)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))
}

func TestS3SinkPutError(t *testing.T) {
	sink := newS3Sink(&memS3{putErr: errors.New("access denied")}, "paydesk", "")
	err := sink.Put(context.Background(), FileName, bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
}

func TestNewS3SinkStaticCredentials(t *testing.T) {
	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:          "paydesk",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		UsePathStyle:    true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "paydesk", sink.bucket)
}
