// Package storage keeps uploaded product images on local disk and serves
// them under a public URL prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for uploads whose extension is not an
// accepted image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// LocalStore writes files below Dir and reports them as BaseURL/<key>.
type LocalStore struct {
	Dir     string // filesystem root, e.g. "media"
	BaseURL string // public prefix, e.g. "/media"
	MaxSize int64  // bytes; <= 0 means unlimited
}

func NewLocalStore(dir, baseURL string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "products"), 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxSize: maxSize}, nil
}

// SaveImage stores r under products/<uuid><ext> and returns its public URL.
// The original file name only contributes its extension.
func (s *LocalStore) SaveImage(_ context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return "", ErrUnsupportedImage
	}
	key := path.Join("products", uuid.NewString()+ext)
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	src := r
	if s.MaxSize > 0 {
		src = io.LimitReader(r, s.MaxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxSize > 0 && n > s.MaxSize {
		err = fmt.Errorf("image larger than %d bytes", s.MaxSize)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return s.BaseURL + "/" + key, nil
}

// DeleteImage removes a file previously returned by SaveImage.  URLs outside
// BaseURL and files already gone are ignored.
func (s *LocalStore) DeleteImage(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || key == "" || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
