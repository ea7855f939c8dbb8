// Package pipeline drives recognition frame by frame.
//
// A Processor handles one frame: it finds plate regions, crops and rectifies
// each one, reads its characters, and offers well-formed readings to the
// dedup gate. Emitted readings become RecognitionEvents handed to the
// display and notifier. The annotated frame always goes to the display.
//
// A Loop reads frames from a source and feeds them to a Processor on a
// single goroutine until stopped. A Refresher asks the display to reload
// its entry list on a fixed interval, independent of the loop.
package pipeline
