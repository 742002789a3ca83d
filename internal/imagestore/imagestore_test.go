package imagestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	root := t.TempDir()
	s := New(root)

	err := s.Save(context.Background(), "B0EXAMPLE1", []string{
		srv.URL + "/a1._SL1200_.jpg",
		srv.URL + "/gone.jpg",
		srv.URL + "/b2.webp",
	})
	require.NoError(t, err, "individual download failures are not fatal")

	dir := filepath.Join(root, "B0EXAMPLE1")
	data, err := os.ReadFile(filepath.Join(dir, "image_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	_, err = os.Stat(filepath.Join(dir, "image_2.jpg"))
	assert.True(t, os.IsNotExist(err), "failed download leaves no file")

	_, err = os.Stat(filepath.Join(dir, "image_3.webp"))
	assert.NoError(t, err)
}

func TestExtractExt(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "https://m.media-amazon.com/images/I/a1._SL1200_.jpg", expected: ".jpg"},
		{url: "https://m.media-amazon.com/images/I/a1.PNG", expected: ".png"},
		{url: "https://m.media-amazon.com/images/I/a1.webp?x=1", expected: ".webp"},
		{url: "https://m.media-amazon.com/images/I/a1", expected: ".jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, extractExt(tt.url), tt.url)
	}
}
