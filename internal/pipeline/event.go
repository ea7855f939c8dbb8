package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-gate/internal/detection"
	"github.com/ironsheep/plate-gate/internal/glyph"
	"github.com/ironsheep/plate-gate/internal/store"
)

// RecognitionEvent is an emitted plate sighting.
type RecognitionEvent struct {
	ID              uuid.UUID    `json:"id"`
	EntryID         int64        `json:"entry_id"`
	PlateText       string       `json:"plate"`
	CharConfidence  int          `json:"char_confidence"`
	PlateConfidence int          `json:"plate_confidence"`
	Status          store.Status `json:"status"`
	ImagePath       string       `json:"image_path,omitempty"`
	Timestamp       time.Time    `json:"logged_at"`

	// Image is the rectified plate crop resized for display.
	Image image.Image `json:"-"`
}

// PlateDetector finds plate regions in a frame. Region confidences are in
// [0, 1].
type PlateDetector interface {
	DetectPlates(ctx context.Context, img image.Image) ([]detection.Region, error)
}

// CharDetector finds character boxes in a plate image.
type CharDetector interface {
	DetectGlyphs(ctx context.Context, img image.Image) ([]glyph.Detection, error)
}

// Display receives annotated frames and emitted events. Implementations
// must not block the caller.
type Display interface {
	ShowFrame(frame image.Image)
	Publish(ev RecognitionEvent)
}

// Notifier forwards emitted events to an external service.
type Notifier interface {
	Notify(ctx context.Context, ev RecognitionEvent) error
}

type nopDisplay struct{}

func (nopDisplay) ShowFrame(image.Image)    {}
func (nopDisplay) Publish(RecognitionEvent) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, RecognitionEvent) error { return nil }
