//go:build gocv

package source

import (
	"context"
	"image"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Capture reads frames from a camera or video file through OpenCV.
type Capture struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	isFile bool
}

// OpenCapture opens "device:N" as camera N and anything else as a video
// file path.
func OpenCapture(spec string) (Source, error) {
	var (
		vc     *gocv.VideoCapture
		err    error
		isFile bool
	)
	if dev, ok := strings.CutPrefix(spec, "device:"); ok {
		id, convErr := strconv.Atoi(dev)
		if convErr != nil {
			return nil, errors.Wrapf(convErr, "invalid device %q", spec)
		}
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.VideoCaptureFile(spec)
		isFile = true
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", spec)
	}
	return &Capture{cap: vc, mat: gocv.NewMat(), isFile: isFile}, nil
}

// Read grabs the next frame. A video file reports io.EOF at its end; a
// camera that returns nothing reports ErrAcquisition.
func (c *Capture) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		if c.isFile {
			return nil, io.EOF
		}
		return nil, errors.Wrap(ErrAcquisition, "empty frame")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, errors.Wrapf(ErrAcquisition, "convert frame: %v", err)
	}
	return img, nil
}

// Rewind seeks a video file back to frame 0. Cameras ignore it.
func (c *Capture) Rewind() error {
	if !c.isFile {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cap.Set(gocv.VideoCapturePosFrames, 0)
	return nil
}

// Close releases the frame buffer and the capture device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return multierr.Combine(c.mat.Close(), c.cap.Close())
}
