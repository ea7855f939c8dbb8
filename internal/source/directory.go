package source

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-gate/internal/imaging"
)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tif":  true,
	".tiff": true,
}

// Directory replays the image files of one directory. Recently decoded frames are
// cached so later passes skip decoding.
type Directory struct {
	mu    sync.Mutex
	paths []string
	pos   int
	cache *imaging.FrameCache
}

// OpenDirectory lists the image files in dir, sorted by name.
func OpenDirectory(dir string) (*Directory, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read frame directory")
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return &Directory{paths: paths, cache: imaging.NewFrameCache(imaging.DefaultCacheFrames)}, nil
}

// Len returns the number of frames in the directory.
func (d *Directory) Len() int {
	return len(d.paths)
}

// Read returns the next frame, or io.EOF after the last one.
func (d *Directory) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	if d.pos >= len(d.paths) {
		d.mu.Unlock()
		return nil, io.EOF
	}
	path := d.paths[d.pos]
	d.pos++
	d.mu.Unlock()

	img, err := d.cache.Load(path)
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "%s: %v", filepath.Base(path), err)
	}
	return img, nil
}

// Rewind moves back to the first frame.
func (d *Directory) Rewind() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = 0
	return nil
}

// Close drops cached frames.
func (d *Directory) Close() error {
	d.cache.Clear()
	return nil
}
