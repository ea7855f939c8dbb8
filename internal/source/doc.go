// Package source supplies frames to the recognition loop.
//
// Directory replays the images in a folder in name order and reports io.EOF
// after the last one; the loop rewinds it and keeps going. When built with
// the gocv tag, Capture reads from a camera or a video file through OpenCV.
package source
