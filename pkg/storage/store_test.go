package stores

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	var s Store = NewMemoryStore("http://img.local")

	require.NoError(t, s.Write(ctx, "alerts/a1/x.png", strings.NewReader("png"), 3, "image/png"))
	ok, err := s.Exists(ctx, "alerts/a1/x.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "http://img.local/alerts/a1/x.png", s.PublicURL("alerts/a1/x.png"))

	require.NoError(t, s.Delete(ctx, "alerts/a1/x.png"))
	ok, _ = s.Exists(ctx, "alerts/a1/x.png")
	assert.False(t, ok)
}

func TestNewMinioStoreDisabledWithoutEndpoint(t *testing.T) {
	assert.Nil(t, NewMinioStore(MinioConfig{Bucket: "alerts"}))
	assert.Nil(t, NewMinioStore(MinioConfig{Endpoint: "localhost:9000"}))
}

func TestMinioPublicURL(t *testing.T) {
	s := NewMinioStore(MinioConfig{Endpoint: "minio:9000", Bucket: "aidlink"})
	assert.Equal(t, "http://minio:9000/aidlink/a/b.jpg", s.PublicURL("a/b.jpg"))

	s = NewMinioStore(MinioConfig{Endpoint: "minio:9000", Bucket: "aidlink", BaseURL: "https://cdn.example.org/", UseSSL: true})
	assert.Equal(t, "https://cdn.example.org/a/b.jpg", s.PublicURL("a/b.jpg"))
}
