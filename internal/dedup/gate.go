package dedup

import (
	"context"
	"image"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/ironsheep/plate-gate/internal/store"
)

// ErrPersistence marks a storage failure that caused a suppression.
var ErrPersistence = errors.New("persistence failure")

const (
	// DefaultThreshold is the similarity percentage that suppresses a reading.
	DefaultThreshold = 80
	// DefaultWindow is how long a logged plate stays suppressed.
	DefaultWindow = time.Minute
)

// Decision is the outcome of Gate.Admit.
type Decision int

const (
	// Emit means the reading was persisted as a new entry.
	Emit Decision = iota
	// SuppressSimilar means the reading matches the last admitted text.
	SuppressSimilar
	// SuppressRecent means the plate was logged within the window.
	SuppressRecent
	// SuppressError means storage failed and nothing was persisted.
	SuppressError
)

// String returns the decision as used in logs and metric labels.
func (d Decision) String() string {
	switch d {
	case Emit:
		return "emit"
	case SuppressSimilar:
		return "suppress_similar"
	case SuppressRecent:
		return "suppress_recent"
	case SuppressError:
		return "suppress_error"
	default:
		return "unknown"
	}
}

// Entries is the storage the gate reads and writes.
type Entries interface {
	LastEntry(ctx context.Context, plate string) (*store.Entry, error)
	InsertEntry(ctx context.Context, e *store.Entry) error
	PlateStatus(ctx context.Context, plate string) (store.Status, error)
}

// ImageSink stores the plate crop of an emitted entry. Remove takes a path
// returned by Save.
type ImageSink interface {
	Save(name string, img image.Image) (string, error)
	Remove(path string) error
}

// Candidate is a well-formed reading offered to the gate.
type Candidate struct {
	Text            string
	CharConfidence  int
	PlateConfidence int
	Image           image.Image
}

// Gate holds the last admitted plate text. It is not safe for concurrent
// use; the frame loop is its only caller.
type Gate struct {
	entries Entries
	images  ImageSink
	clock   clock.Clock
	logger  *zap.SugaredLogger

	// Threshold is the similarity percentage at or above which a reading
	// counts as the same plate.
	Threshold int

	// Window is how long after a logged entry the same plate stays
	// suppressed. A reading exactly Window later is still suppressed.
	Window time.Duration

	lastText string
}

// NewGate returns a gate with the default threshold and window. images may
// be nil, in which case entries are stored without an image path.
func NewGate(entries Entries, images ImageSink, clk clock.Clock, logger *zap.SugaredLogger) *Gate {
	return &Gate{
		entries:   entries,
		images:    images,
		clock:     clk,
		logger:    logger,
		Threshold: DefaultThreshold,
		Window:    DefaultWindow,
	}
}

// LastText returns the most recently admitted text.
func (g *Gate) LastText() string {
	return g.lastText
}

// Admit runs one reading through the gate. On Emit the persisted entry is
// returned. Errors are wrapped with ErrPersistence and always come with
// SuppressError.
func (g *Gate) Admit(ctx context.Context, c Candidate) (Decision, *store.Entry, error) {
	if Percent(g.lastText, c.Text) >= g.Threshold {
		return SuppressSimilar, nil, nil
	}
	g.lastText = c.Text

	last, err := g.entries.LastEntry(ctx, c.Text)
	if err != nil {
		return g.fail(c.Text, "lookup", err)
	}
	now := g.clock.Now()
	if last != nil && now.Sub(last.LoggedAt) <= g.Window {
		g.logger.Debugw("plate logged recently", "plate", c.Text, "logged_at", last.LoggedAt)
		return SuppressRecent, nil, nil
	}

	status, err := g.entries.PlateStatus(ctx, c.Text)
	if err != nil {
		return g.fail(c.Text, "status", err)
	}

	entry := &store.Entry{
		Plate:           c.Text,
		CharConfidence:  c.CharConfidence,
		PlateConfidence: c.PlateConfidence,
		Status:          status,
		Kind:            store.System,
		LoggedAt:        now,
	}
	if g.images != nil && c.Image != nil {
		path, err := g.images.Save(ImageName(c.Text, now), c.Image)
		if err != nil {
			return g.fail(c.Text, "image", err)
		}
		entry.ImagePath = null.StringFrom(path)
	}
	if err := g.entries.InsertEntry(ctx, entry); err != nil {
		if entry.ImagePath.Valid {
			if rmErr := g.images.Remove(entry.ImagePath.String); rmErr != nil {
				g.logger.Warnw("failed to remove orphaned plate image", "path", entry.ImagePath.String, "error", rmErr)
			}
		}
		return g.fail(c.Text, "insert", err)
	}

	g.logger.Infow("plate logged",
		"plate", entry.Plate,
		"char_confidence", entry.CharConfidence,
		"plate_confidence", entry.PlateConfidence,
		"status", entry.Status.String(),
	)
	return Emit, entry, nil
}

func (g *Gate) fail(plate, step string, err error) (Decision, *store.Entry, error) {
	g.logger.Warnw("suppressing plate after storage error", "plate", plate, "step", step, "error", err)
	return SuppressError, nil, errors.Wrapf(ErrPersistence, "%s %s: %v", step, plate, err)
}
