package storage

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	raw := []byte("not really a png")
	enc := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		input    string
		max      int
		wantType string
		wantErr  error
	}{
		{name: "png data url", input: "data:image/png;base64," + enc, wantType: "image/png"},
		{name: "bare base64 is jpeg", input: enc, wantType: "image/jpeg"},
		{name: "unpadded", input: strings.TrimRight(enc, "="), wantType: "image/jpeg"},
		{name: "empty", input: "  ", wantErr: ErrInvalidImage},
		{name: "no payload", input: "data:image/png;base64", wantErr: ErrInvalidImage},
		{name: "not base64 url", input: "data:text/plain,hello", wantErr: ErrInvalidImage},
		{name: "garbage", input: "data:image/png;base64,!!!", wantErr: ErrInvalidImage},
		{name: "too large", input: enc, max: 4, wantErr: ErrImageTooLarge},
		{name: "exactly at limit", input: enc, max: len(raw), wantType: "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeDataURL(tt.input, tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, obj.ContentType)
			assert.Equal(t, raw, obj.Data)
		})
	}
}

func TestObjectPath(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "palm_uploads/u1_1700000000123", ObjectPath(PrefixPalm, "u1", at))
	assert.Equal(t, "profile_images/u1_1700000000123", ObjectPath(PrefixProfile, "u1", at))
}

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("eternal.appspot.com", "face_uploads/u1_1", "tok")
	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/eternal.appspot.com/o/face_uploads%2Fu1_1?alt=media&token=tok",
		got)
}

func TestS3Store_Upload(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotBody  []byte
		gotCType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotBody = body
		gotCType = r.Header.Get("Content-Type")
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "eternal",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
		URLTTL:    time.Hour,
	})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), Object{
		Path:        "face_uploads/u1_1",
		ContentType: "image/png",
		Data:        []byte("img"),
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/eternal/face_uploads/u1_1", gotPath)
	assert.Equal(t, "image/png", gotCType)
	assert.Contains(t, string(gotBody), "img")

	assert.True(t, strings.HasPrefix(url, srv.URL+"/eternal/face_uploads/u1_1?"), url)
	assert.Contains(t, url, "X-Amz-Expires=3600")

	require.NoError(t, store.Delete(context.Background(), "face_uploads/u1_1"))
}

func TestS3Store_PublicURLIsStable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "eternal",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
		PublicURL: "https://cdn.eternal.test/",
	})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), Object{Path: "palm_uploads/u1_2", Data: []byte("img")})
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.eternal.test/palm_uploads/u1_2", url)
	assert.NotContains(t, url, "X-Amz-")
}

func TestS3Store_PresignCappedAtSevenDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "eternal",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
		URLTTL:    30 * 24 * time.Hour,
	})
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), Object{Path: "face_uploads/u1_3", Data: []byte("img")})
	require.NoError(t, err)

	assert.Contains(t, url, "X-Amz-Expires=604800")
}
