package ocr

import (
	"bytes"
	"context"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-gate/internal/glyph"
)

// TesseractDetector detects plate characters with Tesseract.
type TesseractDetector struct {
	labels glyph.Labels

	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractDetector creates a detector for the given Tesseract language
// (for example "eng") that names symbols with labels.
//
// Returns an error if the language cannot be loaded or the engine rejects
// the single-line page mode.
func NewTesseractDetector(language string, labels glyph.Labels) (*TesseractDetector, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to set language")
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to set page mode")
	}
	if err := client.SetWhitelist(Whitelist(labels)); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to set whitelist")
	}
	return &TesseractDetector{labels: labels, client: client}, nil
}

// DetectGlyphs recognizes the symbols in a plate image.
func (d *TesseractDetector) DetectGlyphs(ctx context.Context, img image.Image) ([]glyph.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "failed to encode plate image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "failed to set image")
	}
	boxes, err := d.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, errors.Wrap(err, "OCR failed")
	}
	return toDetections(boxes, d.labels), nil
}

// Close releases the Tesseract client.
func (d *TesseractDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client.Close()
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

// Whitelist returns the single-character labels of the table, sorted, as
// one string.
func Whitelist(labels glyph.Labels) string {
	chars := make([]string, 0, len(labels))
	for _, l := range labels {
		if len([]rune(l)) == 1 {
			chars = append(chars, l)
		}
	}
	sort.Strings(chars)
	return strings.Join(chars, "")
}

// toDetections maps Tesseract symbol boxes to glyph detections. Empty and
// unlabeled symbols are skipped and confidences are scaled to [0, 1].
func toDetections(boxes []gosseract.BoundingBox, labels glyph.Labels) []glyph.Detection {
	dets := make([]glyph.Detection, 0, len(boxes))
	for _, b := range boxes {
		sym := strings.ToUpper(strings.TrimSpace(b.Word))
		if sym == "" {
			continue
		}
		id, ok := labels.ClassOf(sym)
		if !ok {
			continue
		}
		conf := b.Confidence / 100
		if conf < 0 {
			conf = 0
		} else if conf > 1 {
			conf = 1
		}
		dets = append(dets, glyph.Detection{
			Box: glyph.Box{
				XMin: float64(b.Box.Min.X),
				YMin: float64(b.Box.Min.Y),
				XMax: float64(b.Box.Max.X),
				YMax: float64(b.Box.Max.Y),
			},
			ClassID:    id,
			Confidence: conf,
		})
	}
	return dets
}
