package objects

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const maxThumbWidth = 2048

// Thumbnail returns a JPEG copy of key at most width pixels wide,
// rendering it on first request.
func (s *DiskStore) Thumbnail(ctx context.Context, key string, width int) (io.ReadCloser, Info, error) {
	if width <= 0 || width > maxThumbWidth {
		return nil, Info{}, fmt.Errorf("thumbnail width %d out of range", width)
	}
	src, err := s.Stat(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}

	tp := s.thumbPath(src.Key, width)
	if fi, err := os.Stat(tp); err == nil && !fi.ModTime().Before(src.ModTime) {
		f, err := os.Open(tp)
		if err == nil {
			return f, Info{Key: src.Key, Size: fi.Size(), ContentType: "image/jpeg", ModTime: fi.ModTime()}, nil
		}
	}

	img, err := imaging.Open(s.dataPath(src.Key), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(tp), 0o755); err != nil {
		return nil, Info{}, fmt.Errorf("create thumb dir: %w", err)
	}
	tmp := tp + ".tmp-" + uuid.NewString()
	out, err := os.Create(tmp)
	if err != nil {
		return nil, Info{}, fmt.Errorf("create thumbnail: %w", err)
	}
	err = imaging.Encode(out, img, imaging.JPEG, imaging.JPEGQuality(80))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, Info{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := os.Rename(tmp, tp); err != nil {
		_ = os.Remove(tmp)
		return nil, Info{}, fmt.Errorf("commit thumbnail: %w", err)
	}

	f, err := os.Open(tp)
	if err != nil {
		return nil, Info{}, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Info{}, err
	}
	return f, Info{Key: src.Key, Size: fi.Size(), ContentType: "image/jpeg", ModTime: fi.ModTime()}, nil
}
