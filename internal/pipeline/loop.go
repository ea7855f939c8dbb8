package pipeline

import (
	"context"
	"image"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/plate-gate/internal/metrics"
)

// FrameSource yields frames in order. Read returns io.EOF at the end of a
// finite source; Rewind moves back to the first frame.
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
	Rewind() error
}

// ErrLoopStarted is returned by Run on a loop that already ran.
var ErrLoopStarted = errors.New("frame loop already started")

// Loop feeds frames from a source to a processor on one goroutine.
type Loop struct {
	source    FrameSource
	processor *Processor
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger

	// IdleDelay is how long the loop waits while paused, after a read
	// error, or when a rewound source is still empty.
	IdleDelay time.Duration

	running atomic.Bool
	paused  atomic.Bool
	started atomic.Bool
	done    chan struct{}

	lastFrame time.Time

	// fps holds float64 bits; FPS is read from other goroutines.
	fps atomic.Uint64
}

// NewLoop returns a loop ready to Run.
func NewLoop(source FrameSource, processor *Processor, clk clock.Clock, m *metrics.Metrics, logger *zap.SugaredLogger) *Loop {
	l := &Loop{
		source:    source,
		processor: processor,
		clock:     clk,
		metrics:   m,
		logger:    logger,
		IdleDelay: 50 * time.Millisecond,
		done:      make(chan struct{}),
	}
	l.running.Store(true)
	return l
}

// Run processes frames until Stop is called or ctx is done. The frame in
// flight always completes before Run returns. Rewinding a finite source
// keeps the dedup state. Run returns ctx.Err() when cancelled and nil when
// stopped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopStarted
	}
	defer close(l.done)

	sinceRewind := 0
	for l.running.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.paused.Load() {
			l.idle(ctx)
			continue
		}

		frame, err := l.source.Read(ctx)
		switch {
		case errors.Is(err, io.EOF):
			if sinceRewind == 0 {
				l.idle(ctx)
			}
			if err := l.source.Rewind(); err != nil {
				l.logger.Warnw("failed to rewind source", "error", err)
				l.idle(ctx)
			}
			sinceRewind = 0
			continue
		case err != nil:
			l.metrics.ReadErrors.Add(1)
			l.logger.Warnw("frame read failed", "error", err)
			l.idle(ctx)
			continue
		}
		sinceRewind++
		l.metrics.FramesRead.Add(1)

		l.processor.Process(ctx, frame, l.FPS())
		l.tick()
	}
	return nil
}

// tick updates the frame rate from the time since the previous frame.
func (l *Loop) tick() {
	now := l.clock.Now()
	if !l.lastFrame.IsZero() {
		if d := now.Sub(l.lastFrame); d > 0 {
			fps := 1 / d.Seconds()
			l.fps.Store(math.Float64bits(fps))
			l.metrics.SetFPS(fps)
		}
	}
	l.lastFrame = now
}

func (l *Loop) idle(ctx context.Context) {
	t := l.clock.Timer(l.IdleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Stop asks the loop to exit and waits for the frame in flight to finish.
// It is safe to call before Run or more than once.
func (l *Loop) Stop() {
	l.running.Store(false)
	if l.started.Load() {
		<-l.done
	}
}

// Pause suspends frame reading without leaving Run.
func (l *Loop) Pause() {
	l.paused.Store(true)
}

// Resume continues after Pause.
func (l *Loop) Resume() {
	l.paused.Store(false)
}

// Paused reports whether the loop is paused.
func (l *Loop) Paused() bool {
	return l.paused.Load()
}

// FPS returns the most recent frame rate.
func (l *Loop) FPS() float64 {
	return math.Float64frombits(l.fps.Load())
}
