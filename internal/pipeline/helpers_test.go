package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ironsheep/plate-gate/internal/dedup"
	"github.com/ironsheep/plate-gate/internal/detection"
	"github.com/ironsheep/plate-gate/internal/glyph"
	"github.com/ironsheep/plate-gate/internal/metrics"
	"github.com/ironsheep/plate-gate/internal/store"
)

var plateBox = image.Rect(60, 40, 140, 60)

// createTestFrame returns a 200x100 gray frame with a lighter plate area.
func createTestFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{90, 90, 90, 255}
			if image.Pt(x, y).In(plateBox) {
				c = color.RGBA{220, 220, 220, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

type fakePlates struct {
	regions []detection.Region
	err     error
}

func (f *fakePlates) DetectPlates(context.Context, image.Image) ([]detection.Region, error) {
	return f.regions, f.err
}

type fakeChars struct {
	mu    sync.Mutex
	dets  []glyph.Detection
	err   error
	calls int
}

func (f *fakeChars) DetectGlyphs(context.Context, image.Image) ([]glyph.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.dets, f.err
}

// glyphsFor returns left-to-right detections spelling text with the default
// labels, all at the given confidence.
func glyphsFor(t *testing.T, text string, conf float64) []glyph.Detection {
	t.Helper()
	labels := glyph.DefaultLabels()
	var dets []glyph.Detection
	for i, r := range text {
		id, ok := labels.ClassOf(string(r))
		if !ok {
			t.Fatalf("no class for %q", r)
		}
		x := float64(i * 12)
		dets = append(dets, glyph.Detection{
			Box:        glyph.Box{XMin: x, YMin: 2, XMax: x + 10, YMax: 30},
			ClassID:    id,
			Confidence: conf,
		})
	}
	return dets
}

type fakeDisplay struct {
	mu     sync.Mutex
	frames int
	events []RecognitionEvent
}

func (f *fakeDisplay) ShowFrame(image.Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
}

func (f *fakeDisplay) Publish(ev RecognitionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeDisplay) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames, len(f.events)
}

type fakeNotifier struct {
	err  error
	sent []RecognitionEvent
}

func (f *fakeNotifier) Notify(_ context.Context, ev RecognitionEvent) error {
	f.sent = append(f.sent, ev)
	return f.err
}

type testRig struct {
	processor *Processor
	plates    *fakePlates
	chars     *fakeChars
	display   *fakeDisplay
	notifier  *fakeNotifier
	store     *store.Memory
	metrics   *metrics.Metrics
}

func newTestRig(t *testing.T, text string, conf float64) *testRig {
	t.Helper()
	mem := store.NewMemory()
	m := metrics.New()
	gate := dedup.NewGate(mem, nil, clock.NewMock(), zap.NewNop().Sugar())

	opts := DefaultOptions()
	opts.FrameWidth, opts.FrameHeight = 0, 0

	rig := &testRig{
		plates:   &fakePlates{regions: []detection.Region{{Box: plateBox, Confidence: 0.95}}},
		chars:    &fakeChars{dets: glyphsFor(t, text, conf)},
		display:  &fakeDisplay{},
		notifier: &fakeNotifier{},
		store:    mem,
		metrics:  m,
	}
	rig.processor = NewProcessor(rig.plates, rig.chars, gate, opts, m, zap.NewNop().Sugar())
	rig.processor.Display = rig.display
	rig.processor.Notifier = rig.notifier
	return rig
}

// sliceSource serves frames in order and reports io.EOF at the end.
type sliceSource struct {
	mu      sync.Mutex
	frames  []image.Image
	errs    []error
	pos     int
	reads   int
	rewinds int

	// onRead runs after every successful read with the running total.
	onRead func(reads int)
}

func (s *sliceSource) Read(context.Context) (image.Image, error) {
	s.mu.Lock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if s.pos >= len(s.frames) {
		s.mu.Unlock()
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	s.reads++
	reads, cb := s.reads, s.onRead
	s.mu.Unlock()

	if cb != nil {
		cb(reads)
	}
	return f, nil
}

func (s *sliceSource) Rewind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = 0
	s.rewinds++
	return nil
}

func (s *sliceSource) stats() (reads, rewinds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.rewinds
}

var errCamera = errors.New("camera unplugged")
