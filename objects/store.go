package objects

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

type Info struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	ModTime     time.Time `json:"modTime"`
}

// Store keeps uploaded blobs under slash-separated keys like uploads/<id>.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)
	Stat(ctx context.Context, key string) (Info, error)
}

// DiskStore lays objects out as <root>/data/<key> with a JSON sidecar in
// <root>/meta/<key>.json and resized copies in <root>/thumbs.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	for _, dir := range []string{"data", "meta", "thumbs"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create object dir: %w", err)
		}
	}
	return &DiskStore{root: root}, nil
}

func cleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" || k == "." || strings.Contains(key, "..") || strings.ContainsRune(key, '\\') {
		return "", ErrInvalidKey
	}
	return k, nil
}

func (s *DiskStore) dataPath(key string) string {
	return filepath.Join(s.root, "data", filepath.FromSlash(key))
}

func (s *DiskStore) metaPath(key string) string {
	return filepath.Join(s.root, "meta", filepath.FromSlash(key)+".json")
}

func (s *DiskStore) thumbPath(key string, width int) string {
	return filepath.Join(s.root, "thumbs", filepath.FromSlash(key)+fmt.Sprintf(".w%d.jpg", width))
}

func (s *DiskStore) Put(_ context.Context, key string, r io.Reader, contentType string) (Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}

	br := bufio.NewReaderSize(r, 512)
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := br.Peek(512)
		contentType = http.DetectContentType(head)
	}

	dst := s.dataPath(k)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Info{}, fmt.Errorf("create object dir: %w", err)
	}
	tmp := dst + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return Info{}, fmt.Errorf("create object: %w", err)
	}
	n, err := io.Copy(f, br)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return Info{}, fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return Info{}, fmt.Errorf("commit object: %w", err)
	}

	info := Info{Key: k, Size: n, ContentType: contentType, ModTime: time.Now().UTC()}
	if err := s.writeMeta(info); err != nil {
		return Info{}, err
	}
	return info, nil
}

func (s *DiskStore) writeMeta(info Info) error {
	mp := s.metaPath(info.Key)
	if err := os.MkdirAll(filepath.Dir(mp), 0o755); err != nil {
		return fmt.Errorf("create meta dir: %w", err)
	}
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := os.WriteFile(mp, b, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func (s *DiskStore) Stat(_ context.Context, key string) (Info, error) {
	k, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(s.dataPath(k))
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, err
	}
	if fi.IsDir() {
		return Info{}, ErrNotFound
	}

	info := Info{Key: k, Size: fi.Size(), ModTime: fi.ModTime()}
	if b, err := os.ReadFile(s.metaPath(k)); err == nil {
		var meta Info
		if json.Unmarshal(b, &meta) == nil {
			info.ContentType = meta.ContentType
		}
	}
	if info.ContentType == "" {
		info.ContentType = "application/octet-stream"
	}
	return info, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(s.dataPath(info.Key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, Info{}, ErrNotFound
	}
	if err != nil {
		return nil, Info{}, err
	}
	return f, info, nil
}
