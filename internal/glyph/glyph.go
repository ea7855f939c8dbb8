package glyph

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyReading means no detection survived the confidence threshold.
	ErrEmptyReading = errors.New("empty plate reading")

	// ErrMalformedReading means the text does not have the expected shape.
	ErrMalformedReading = errors.New("malformed plate reading")

	// ErrInvalidDetection means a detector returned an unusable detection.
	ErrInvalidDetection = errors.New("invalid glyph detection")
)

// UnknownGlyph stands in for class ids missing from the label table.
const UnknownGlyph = "?"

// Box is a detection bounding box in plate image coordinates.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Detection is one character box reported by a character detector.
type Detection struct {
	Box        Box     `json:"box"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Validate rejects detections with non-finite coordinates, inverted boxes or
// a confidence outside [0, 1].
func (d Detection) Validate() error {
	for _, v := range []float64{d.Box.XMin, d.Box.YMin, d.Box.XMax, d.Box.YMax, d.Confidence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrap(ErrInvalidDetection, "non-finite value")
		}
	}
	if d.Box.XMin > d.Box.XMax || d.Box.YMin > d.Box.YMax {
		return errors.Wrapf(ErrInvalidDetection, "inverted box %+v", d.Box)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return errors.Wrapf(ErrInvalidDetection, "confidence %v outside [0,1]", d.Confidence)
	}
	if d.ClassID < 0 {
		return errors.Wrapf(ErrInvalidDetection, "negative class id %d", d.ClassID)
	}
	return nil
}

// Reading is assembled plate text.
type Reading struct {
	// Text is the characters in left-to-right order.
	Text string `json:"text"`

	// Confidence is the rounded mean glyph confidence as a percentage
	// (0-100). It is 0 for an empty reading.
	Confidence int `json:"confidence"`

	// Glyphs are the detections that contributed, in reading order.
	Glyphs []Detection `json:"glyphs"`
}

// Empty reports whether no glyphs contributed to the reading.
func (r Reading) Empty() bool {
	return len(r.Glyphs) == 0
}

// Labels maps detector class ids to characters.
type Labels map[int]string

// DefaultLabels maps classes 0-9 to the digits and 10-35 to A-Z.
func DefaultLabels() Labels {
	l := make(Labels, 36)
	for i := 0; i < 10; i++ {
		l[i] = string(rune('0' + i))
	}
	for i := 0; i < 26; i++ {
		l[10+i] = string(rune('A' + i))
	}
	return l
}

// Lookup returns the character for a class id, or UnknownGlyph.
func (l Labels) Lookup(classID int) string {
	if s, ok := l[classID]; ok {
		return s
	}
	return UnknownGlyph
}

// ClassOf returns the class id labeled s, if any. When several ids share a
// label the smallest is returned.
func (l Labels) ClassOf(s string) (int, bool) {
	best, found := 0, false
	for id, label := range l {
		if label == s && (!found || id < best) {
			best, found = id, true
		}
	}
	return best, found
}

// ReadLabels parses a label table with one label per line; the line number
// (from 0) is the class id. Blank lines are skipped but still consume an id.
func ReadLabels(r io.Reader) (Labels, error) {
	l := make(Labels)
	sc := bufio.NewScanner(r)
	id := 0
	for sc.Scan() {
		if label := strings.TrimSpace(sc.Text()); label != "" {
			l[id] = label
		}
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read labels")
	}
	if len(l) == 0 {
		return nil, errors.New("label table is empty")
	}
	return l, nil
}

// LoadLabels reads a label file. See ReadLabels for the format.
func LoadLabels(path string) (Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open labels")
	}
	defer f.Close()
	return ReadLabels(f)
}

// Assembler builds readings from raw detections.
type Assembler struct {
	Labels Labels

	// Threshold is the minimum confidence (0-1) for a detection to count.
	Threshold float64
}

// NewAssembler returns an assembler with threshold 0.5.
func NewAssembler(labels Labels) *Assembler {
	return &Assembler{Labels: labels, Threshold: 0.5}
}

// Assemble orders detections left to right and resolves them to text.
//
// Detections with confidence below the threshold are dropped. The rest are
// sorted by Box.XMin ascending (ties keep detector order) and mapped through
// the label table. The reading's confidence is round(mean x 100), with
// halves rounded to even; it is 0 when nothing survives.
func (a *Assembler) Assemble(detections []Detection) Reading {
	kept := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= a.Threshold {
			kept = append(kept, d)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Box.XMin < kept[j].Box.XMin
	})

	if len(kept) == 0 {
		return Reading{Glyphs: kept}
	}

	var sb strings.Builder
	var sum float64
	for _, d := range kept {
		sb.WriteString(a.Labels.Lookup(d.ClassID))
		sum += d.Confidence
	}
	mean := sum / float64(len(kept))

	return Reading{
		Text:       sb.String(),
		Confidence: int(math.RoundToEven(mean * 100)),
		Glyphs:     kept,
	}
}
