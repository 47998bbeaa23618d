package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"teahouse/internal/model"
)

type fakeUploader struct {
	key         string
	contentType string
	body        string
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = *input.Key
	if input.ContentType != nil {
		f.contentType = *input.ContentType
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	return &manager.UploadOutput{}, nil
}

type fakeDeleter struct {
	deleted []string
}

func (f *fakeDeleter) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3HostUpload(t *testing.T) {
	t.Parallel()

	staged := filepath.Join(t.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(staged, []byte("jpeg"), 0o600))

	uploader := &fakeUploader{}
	host := &S3Host{uploader: uploader, deleter: &fakeDeleter{}, bucket: "media", publicURL: "https://cdn.example.com"}

	ref, err := host.Upload(context.Background(), staged, "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref.PublicID, "media/"))
	require.True(t, strings.HasSuffix(ref.PublicID, ".jpg"))
	require.Equal(t, "https://cdn.example.com/"+ref.PublicID, ref.URL)
	require.Equal(t, ref.PublicID, uploader.key)
	require.Equal(t, "image/jpeg", uploader.contentType)
	require.Equal(t, "jpeg", uploader.body)
}

func TestS3HostUploadFailure(t *testing.T) {
	t.Parallel()

	staged := filepath.Join(t.TempDir(), "cover.jpg")
	require.NoError(t, os.WriteFile(staged, []byte("jpeg"), 0o600))

	host := &S3Host{uploader: &fakeUploader{err: errors.New("boom")}, deleter: &fakeDeleter{}, bucket: "media"}
	_, err := host.Upload(context.Background(), staged, "image/jpeg")
	require.ErrorContains(t, err, "boom")
}

func TestS3HostDelete(t *testing.T) {
	t.Parallel()

	deleter := &fakeDeleter{}
	host := &S3Host{uploader: &fakeUploader{}, deleter: deleter, bucket: "media"}

	require.NoError(t, host.Delete(context.Background(), "media/abc.png"))
	require.Equal(t, []string{"media/abc.png"}, deleter.deleted)
	require.ErrorIs(t, host.Delete(context.Background(), ""), model.ErrMediaNotFound)
}
