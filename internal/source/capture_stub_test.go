//go:build !gocv

package source

import "testing"

func TestOpenCaptureUnavailable(t *testing.T) {
	if _, err := Open("device:0"); err == nil {
		t.Error("expected error without gocv")
	}
}
