package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadToPresignedURL(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var err error
		received, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	}))
	defer srv.Close()

	err := UploadToPresignedURL(context.Background(), srv.Client(), srv.URL, []byte("payload"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), received)
}

func TestUploadToPresignedURL_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	err := UploadToPresignedURL(context.Background(), srv.Client(), srv.URL, []byte("payload"))
	require.ErrorContains(t, err, "403")
}

func TestDownloadFromPresignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("object bytes"))
	}))
	defer srv.Close()

	data, err := DownloadFromPresignedURL(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("object bytes"), data)
}

func TestDownloadFromPresignedURL_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such key", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := DownloadFromPresignedURL(context.Background(), srv.Client(), srv.URL)
	require.ErrorContains(t, err, "404")
}
