package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDeleteImage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/media/", 0)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.SaveImage(ctx, "Phone.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(dir, "products", filepath.Base(url))
	b, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	require.NoError(t, s.DeleteImage(ctx, url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// second delete and foreign URLs are no-ops
	assert.NoError(t, s.DeleteImage(ctx, url))
	assert.NoError(t, s.DeleteImage(ctx, "https://cdn.example.com/x.png"))
}

func TestSaveImageRejects(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/media", 4)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.SaveImage(ctx, "script.sh", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = s.SaveImage(ctx, "big.jpg", strings.NewReader("12345"))
	assert.Error(t, err)
	entries, err := os.ReadDir(filepath.Join(s.Dir, "products"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
