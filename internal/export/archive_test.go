package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepass/gatepass/internal/models"
)

type fakePresigner struct {
	url string
	err error
	key string
}

func (f *fakePresigner) PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = *in.Key
	return &v4.PresignedHTTPRequest{URL: f.url, Method: http.MethodPut}, nil
}

func TestArchiver_Upload(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := &fakePresigner{url: srv.URL + "/upload"}
	a := &Archiver{presign: p, bucket: "exports", client: srv.Client()}

	loc, err := a.Upload(context.Background(), "k/file.csv", []byte("Date,Time\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/k/file.csv", loc)
	assert.Equal(t, "k/file.csv", p.key)
	assert.Equal(t, "Date,Time\n", string(got))
}

func TestArchiver_UploadErrors(t *testing.T) {
	a := &Archiver{presign: &fakePresigner{err: errors.New("no credentials")}, bucket: "b", client: http.DefaultClient}
	_, err := a.Upload(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "presign upload")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()
	a = &Archiver{presign: &fakePresigner{url: srv.URL}, bucket: "b", client: srv.Client()}
	_, err = a.Upload(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "403")
}

func TestNewArchiver_PathStyleEndpoint(t *testing.T) {
	_, err := NewArchiver(context.Background(), ArchiveConfig{})
	assert.ErrorIs(t, err, models.ErrValidation)

	a, err := NewArchiver(context.Background(), ArchiveConfig{
		Bucket:       "exports",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)

	req, err := a.presign.PresignPutObject(context.Background(), &s3.PutObjectInput{
		Bucket: &a.bucket,
		Key:    func() *string { s := "exports/x.csv"; return &s }(),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.URL, "http://127.0.0.1:9000/exports/exports/x.csv?"), req.URL)
	assert.Contains(t, req.URL, "X-Amz-Signature=")
}

func TestArchiveKey(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	k := ArchiveKey(models.RoleAdmin, now)
	assert.True(t, strings.HasPrefix(k, "exports/2024/05/01/"))
	assert.True(t, strings.HasSuffix(k, "-visitor-data-admin-2024-05-01.csv"))
	assert.NotEqual(t, k, ArchiveKey(models.RoleAdmin, now))
}
