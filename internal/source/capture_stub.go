//go:build !gocv

package source

import "github.com/pkg/errors"

// OpenCapture is unavailable without the gocv build tag.
func OpenCapture(spec string) (Source, error) {
	return nil, errors.Errorf("cannot open %q: video capture requires a build with -tags gocv", spec)
}
