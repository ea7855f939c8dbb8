package pipeline

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/plate-gate/internal/dedup"
	"github.com/ironsheep/plate-gate/internal/detection"
	"github.com/ironsheep/plate-gate/internal/glyph"
	"github.com/ironsheep/plate-gate/internal/imaging"
	"github.com/ironsheep/plate-gate/internal/metrics"
	"github.com/ironsheep/plate-gate/internal/rectify"
	"github.com/ironsheep/plate-gate/internal/store"
)

// Options tunes a Processor.
type Options struct {
	// FrameWidth and FrameHeight are the size frames are scaled to before
	// detection. Zero leaves frames as they are.
	FrameWidth, FrameHeight int

	// PlateConfidenceFloor and CharConfidenceFloor are percentages.
	PlateConfidenceFloor int
	CharConfidenceFloor  int

	PlateLength int
	LetterCount int

	GlyphThreshold float64
	MinLineRatio   float64
	Exclusion      detection.ExclusionPolicy
	Labels         glyph.Labels

	// EventWidth and EventHeight size the plate image attached to events.
	EventWidth, EventHeight int
}

// DefaultOptions returns the stock tuning for 6-character plates.
func DefaultOptions() Options {
	return Options{
		FrameWidth:           960,
		FrameHeight:          540,
		PlateConfidenceFloor: 90,
		CharConfidenceFloor:  70,
		PlateLength:          6,
		LetterCount:          3,
		GlyphThreshold:       0.5,
		MinLineRatio:         0.3,
		Exclusion:            detection.ExcludeBoth,
		Labels:               glyph.DefaultLabels(),
		EventWidth:           600,
		EventHeight:          132,
	}
}

// PlateResult describes what happened to one detected region.
type PlateResult struct {
	Region detection.Region

	// Crop is the area actually cropped, in frame coordinates.
	Crop image.Rectangle

	Rectified bool
	Reading   glyph.Reading
	Text      string

	// Err is the reason the reading was not offered to the gate, if any.
	Err error

	Offered  bool
	Decision dedup.Decision
}

// Result summarizes one processed frame.
type Result struct {
	Frame  image.Image
	Plates []PlateResult
	Events []RecognitionEvent
}

// ErrLowConfidence marks readings below the character-confidence floor.
var ErrLowConfidence = errors.New("reading below confidence floor")

// Processor runs the per-frame recognition steps. Its gate state makes it
// unsafe for concurrent use.
type Processor struct {
	plates    PlateDetector
	chars     CharDetector
	corners   *detection.CornerDetector
	assembler *glyph.Assembler
	corrector *glyph.Corrector
	gate      *dedup.Gate
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	opts      Options

	// Display and Notifier default to no-ops.
	Display  Display
	Notifier Notifier

	// statuses colors highlights of recently emitted plates, oldest first
	// in statusOrder.
	statuses    map[string]store.Status
	statusOrder []string
}

// maxRecentStatuses bounds the plates remembered for highlight colors.
const maxRecentStatuses = 64

// NewProcessor wires a processor around its detectors and gate.
func NewProcessor(plates PlateDetector, chars CharDetector, gate *dedup.Gate, opts Options, m *metrics.Metrics, logger *zap.SugaredLogger) *Processor {
	corners := detection.NewCornerDetector()
	corners.MinLineRatio = opts.MinLineRatio
	corners.Exclusion = opts.Exclusion

	labels := opts.Labels
	if labels == nil {
		labels = glyph.DefaultLabels()
	}
	assembler := glyph.NewAssembler(labels)
	assembler.Threshold = opts.GlyphThreshold

	return &Processor{
		plates:    plates,
		chars:     chars,
		corners:   corners,
		assembler: assembler,
		corrector: glyph.NewCorrector(opts.LetterCount),
		gate:      gate,
		metrics:   m,
		logger:    logger,
		opts:      opts,
		Display:   nopDisplay{},
		Notifier:  nopNotifier{},
		statuses:  make(map[string]store.Status),
	}
}

// Process runs one frame through the pipeline and forwards the annotated
// frame to the display. Failures inside a region are recorded on its
// PlateResult and never abort the frame.
func (p *Processor) Process(ctx context.Context, frame image.Image, fps float64) *Result {
	start := time.Now()
	defer func() { p.metrics.ObserveProcess(time.Since(start)) }()

	if p.opts.FrameWidth > 0 && p.opts.FrameHeight > 0 {
		frame = imaging.PrepareFrame(frame, p.opts.FrameWidth, p.opts.FrameHeight)
	}

	res := &Result{}
	regions, err := p.plates.DetectPlates(ctx, frame)
	if err != nil {
		p.logger.Warnw("plate detection failed", "error", err)
	}

	var highlights []imaging.Highlight
	for _, r := range regions {
		plateConf := int(math.Round(r.Confidence * 100))
		if plateConf < p.opts.PlateConfidenceFloor {
			p.metrics.PlatesRejected.Add(1)
			continue
		}
		p.metrics.PlatesDetected.Add(1)

		pr := p.processRegion(ctx, frame, r, plateConf, res)
		res.Plates = append(res.Plates, pr)
		highlights = append(highlights, p.highlight(pr))
	}

	res.Frame = imaging.Annotate(frame, highlights, fps)
	p.Display.ShowFrame(res.Frame)
	p.metrics.FramesProcessed.Add(1)
	return res
}

func (p *Processor) processRegion(ctx context.Context, frame image.Image, r detection.Region, plateConf int, res *Result) PlateResult {
	pr := PlateResult{Region: r}

	crop, area, err := imaging.CropPlate(frame, r.Box.Intersect(frame.Bounds()), imaging.PlateMarginFactor)
	if err != nil {
		pr.Err = err
		p.logger.Debugw("skipping plate region", "box", r.Box, "error", err)
		return pr
	}
	pr.Crop = area

	plate, rectified := p.rectify(crop)
	pr.Rectified = rectified

	detections, err := p.chars.DetectGlyphs(ctx, plate)
	if err != nil {
		pr.Err = err
		p.logger.Warnw("character detection failed", "error", err)
		return pr
	}
	valid := make([]glyph.Detection, 0, len(detections))
	for _, d := range detections {
		if err := d.Validate(); err != nil {
			p.logger.Debugw("dropping glyph", "error", err)
			continue
		}
		valid = append(valid, d)
	}

	pr.Reading = p.assembler.Assemble(valid)
	pr.Text = p.corrector.Correct(pr.Reading.Text)

	if err := glyph.WellFormed(pr.Text, p.opts.PlateLength, p.opts.LetterCount); err != nil {
		pr.Err = err
		p.metrics.ObserveReading(readingResult(err))
		p.logger.Debugw("reading not well formed", "text", pr.Text, "error", err)
		return pr
	}
	if pr.Reading.Confidence < p.opts.CharConfidenceFloor {
		pr.Err = errors.Wrapf(ErrLowConfidence, "%d < %d", pr.Reading.Confidence, p.opts.CharConfidenceFloor)
		p.metrics.ObserveReading("low_confidence")
		return pr
	}
	p.metrics.ObserveReading("ok")

	eventImage := imaging.Resize(plate, p.opts.EventWidth, p.opts.EventHeight)
	pr.Offered = true
	decision, entry, err := p.gate.Admit(ctx, dedup.Candidate{
		Text:            pr.Text,
		CharConfidence:  pr.Reading.Confidence,
		PlateConfidence: plateConf,
		Image:           eventImage,
	})
	pr.Decision = decision
	p.metrics.ObserveDecision(decision.String())
	if err != nil {
		pr.Err = err
	}
	if decision != dedup.Emit {
		return pr
	}

	p.rememberStatus(entry.Plate, entry.Status)
	ev := RecognitionEvent{
		ID:              uuid.New(),
		EntryID:         entry.ID,
		PlateText:       entry.Plate,
		CharConfidence:  entry.CharConfidence,
		PlateConfidence: entry.PlateConfidence,
		Status:          entry.Status,
		ImagePath:       entry.ImagePath.String,
		Timestamp:       entry.LoggedAt,
		Image:           eventImage,
	}
	res.Events = append(res.Events, ev)
	p.Display.Publish(ev)
	if err := p.Notifier.Notify(ctx, ev); err != nil {
		p.metrics.NotifyErrors.Add(1)
		p.logger.Warnw("notification failed", "plate", ev.PlateText, "error", err)
	}
	return pr
}

// rectify straightens the plate crop when its corners can be found and
// returns the crop unchanged otherwise.
func (p *Processor) rectify(crop *image.NRGBA) (image.Image, bool) {
	b := crop.Bounds()
	edges := imaging.Canny(imaging.Enhance(crop), 50, 150)
	quad, err := p.corners.Detect(edges, b.Dy(), b.Dx())
	if err != nil {
		p.logger.Debugw("plate corners not found", "error", err)
		return crop, false
	}
	out, err := rectify.Rectify(crop, &quad)
	if err != nil {
		p.logger.Debugw("rectification failed", "error", err)
		return crop, false
	}
	return out, true
}

func (p *Processor) rememberStatus(plate string, s store.Status) {
	if _, ok := p.statuses[plate]; ok {
		for i, v := range p.statusOrder {
			if v == plate {
				p.statusOrder = append(p.statusOrder[:i], p.statusOrder[i+1:]...)
				break
			}
		}
	}
	p.statuses[plate] = s
	p.statusOrder = append(p.statusOrder, plate)
	for len(p.statusOrder) > maxRecentStatuses {
		delete(p.statuses, p.statusOrder[0])
		p.statusOrder = p.statusOrder[1:]
	}
}

func (p *Processor) highlight(pr PlateResult) imaging.Highlight {
	h := imaging.Highlight{Box: pr.Region.Box, Color: pendingColor}
	if pr.Text == "" {
		return h
	}
	h.Label = fmt.Sprintf("%s %d%%", pr.Text, pr.Reading.Confidence)
	if s, ok := p.statuses[pr.Text]; ok {
		h.Color = StatusColor(s)
	}
	return h
}

func readingResult(err error) string {
	switch errors.Cause(err) {
	case glyph.ErrEmptyReading:
		return "empty"
	case glyph.ErrMalformedReading:
		return "malformed"
	default:
		return "invalid"
	}
}
