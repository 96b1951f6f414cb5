package photostore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsell/tams/core"
)

func TestNew(t *testing.T) {
	conf := new(core.Config)
	conf.Storage.LocalDir = t.TempDir()
	conf.Storage.PublicBaseURL = "http://localhost:8000/media/"

	store, err := New(context.Background(), conf)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.Equal(t, "http://localhost:8000/media/rec-1/a.jpg", store.URL("rec-1/a.jpg"))

	conf.Storage.Provider = "ftp"
	_, err = New(context.Background(), conf)
	assert.Error(t, err)
}

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:8000/media")

	require.NoError(t, store.Put(context.Background(), "rec-1/thumbnails/a.jpg", "image/jpeg", []byte("jpeg")))
	data, err := os.ReadFile(filepath.Join(dir, "rec-1", "thumbnails", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	// paths never escape the media dir
	require.NoError(t, store.Put(context.Background(), "../../escape.jpg", "image/jpeg", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, "escape.jpg"))
	assert.NoError(t, err)
}

func TestS3Store_Put(t *testing.T) {
	var (
		mu        sync.Mutex
		gotPath   string
		gotType   string
		gotBody   []byte
		gotMethod string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	conf := new(core.Config)
	conf.Storage.Bucket = "maintenance-photos"
	conf.Storage.Region = "ap-southeast-1"
	conf.Storage.Endpoint = srv.URL

	store, err := NewS3Store(context.Background(), conf, func(o *s3.Options) {
		o.Credentials = aws.AnonymousCredentials{}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "rec-1/a.png", "image/png", []byte("png")))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/maintenance-photos/rec-1/a.png", gotPath)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
	assert.Equal(t, srv.URL+"/maintenance-photos/rec-1/a.png", store.URL("rec-1/a.png"))
}
