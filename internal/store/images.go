package store

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// DiskImages saves plate crops as JPEG files under Dir.
type DiskImages struct {
	Dir     string
	Quality int
}

// NewDiskImages returns a sink writing to dir at JPEG quality 90.
func NewDiskImages(dir string) *DiskImages {
	return &DiskImages{Dir: dir, Quality: 90}
}

// Save writes img to Dir/name and returns the written path.
func (d *DiskImages) Save(name string, img image.Image) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", errors.Errorf("invalid image name %q", name)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create image directory")
	}
	path := filepath.Join(d.Dir, name)
	if err := imaging.Save(img, path, imaging.JPEGQuality(d.Quality)); err != nil {
		return "", errors.Wrapf(err, "failed to save %s", name)
	}
	return path, nil
}

// Remove deletes an image written by Save. A missing file is not an error.
func (d *DiskImages) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", filepath.Base(path))
	}
	return nil
}
