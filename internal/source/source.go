package source

import (
	"context"
	"image"
	"os"

	"github.com/pkg/errors"
)

// ErrAcquisition marks a frame that could not be read. The next Read moves
// on to the following frame.
var ErrAcquisition = errors.New("frame acquisition failed")

// Source is a rewindable frame stream.
type Source interface {
	Read(ctx context.Context) (image.Image, error)
	Rewind() error
	Close() error
}

// Open returns a Directory when spec names a directory and a Capture
// otherwise. Capture is only available in builds with the gocv tag.
func Open(spec string) (Source, error) {
	if info, err := os.Stat(spec); err == nil && info.IsDir() {
		return OpenDirectory(spec)
	}
	return OpenCapture(spec)
}
