// Package config loads plate-gate settings from the environment.
//
// Every setting has a PLATE_GATE_ variable and a default. A .env file in the
// working directory is loaded first if present; real environment variables
// take precedence over it.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"github.com/ironsheep/plate-gate/internal/detection"
)

const envPrefix = "PLATE_GATE_"

// Config holds every setting read from the environment.
type Config struct {
	LogLevel string
	HTTPAddr string

	// Source is a directory of frames, or a device/video spec when built
	// with the gocv tag.
	Source      string
	FrameWidth  int
	FrameHeight int

	DatabaseURL string
	ImageDir    string

	AWSRegion   string
	SQSQueueURL string

	OCRLang    string
	LabelsPath string

	CharConfidenceFloor  int
	PlateConfidenceFloor int
	SimilarityThreshold  int
	DedupWindow          time.Duration

	Exclusion      detection.ExclusionPolicy
	MinLineRatio   float64
	GlyphThreshold float64
	PlateLength    int
	LetterCount    int

	RefreshInterval time.Duration
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	var errs error
	toInt := func(key, fallback string) int {
		v, err := cast.ToIntE(getEnv(key, fallback))
		errs = multierr.Append(errs, errors.Wrap(err, envPrefix+key))
		return v
	}
	toFloat := func(key, fallback string) float64 {
		v, err := cast.ToFloat64E(getEnv(key, fallback))
		errs = multierr.Append(errs, errors.Wrap(err, envPrefix+key))
		return v
	}
	toDuration := func(key, fallback string) time.Duration {
		v, err := cast.ToDurationE(getEnv(key, fallback))
		errs = multierr.Append(errs, errors.Wrap(err, envPrefix+key))
		return v
	}

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		Source:      getEnv("SOURCE", "frames"),
		FrameWidth:  toInt("FRAME_WIDTH", "960"),
		FrameHeight: toInt("FRAME_HEIGHT", "540"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		ImageDir:    getEnv("IMAGE_DIR", "plates"),

		AWSRegion:   getEnv("AWS_REGION", ""),
		SQSQueueURL: getEnv("SQS_QUEUE_URL", ""),

		OCRLang:    getEnv("OCR_LANG", "eng"),
		LabelsPath: getEnv("LABELS", ""),

		CharConfidenceFloor:  toInt("CHAR_CONF_FLOOR", "70"),
		PlateConfidenceFloor: toInt("PLATE_CONF_FLOOR", "90"),
		SimilarityThreshold:  toInt("SIMILARITY", "80"),
		DedupWindow:          toDuration("DEDUP_WINDOW", "60s"),

		MinLineRatio:   toFloat("MIN_LINE_RATIO", "0.3"),
		GlyphThreshold: toFloat("GLYPH_THRESHOLD", "0.5"),
		PlateLength:    toInt("PLATE_LENGTH", "6"),
		LetterCount:    toInt("LETTER_COUNT", "3"),

		RefreshInterval: toDuration("REFRESH_INTERVAL", "500ms"),
	}

	policy, err := detection.ParseExclusionPolicy(getEnv("EXCLUSION", "both"))
	errs = multierr.Append(errs, errors.Wrap(err, envPrefix+"EXCLUSION"))
	cfg.Exclusion = policy

	if errs != nil {
		return nil, errs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range settings.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, errors.Errorf(format, args...))
		}
	}

	check(c.FrameWidth > 0 && c.FrameHeight > 0, "frame size %dx%d must be positive", c.FrameWidth, c.FrameHeight)
	check(between(c.CharConfidenceFloor, 0, 100), "char confidence floor %d outside 0..100", c.CharConfidenceFloor)
	check(between(c.PlateConfidenceFloor, 0, 100), "plate confidence floor %d outside 0..100", c.PlateConfidenceFloor)
	check(between(c.SimilarityThreshold, 0, 100), "similarity threshold %d outside 0..100", c.SimilarityThreshold)
	check(c.DedupWindow > 0, "dedup window %v must be positive", c.DedupWindow)
	check(c.MinLineRatio > 0 && c.MinLineRatio <= 1, "min line ratio %v outside (0,1]", c.MinLineRatio)
	check(c.GlyphThreshold >= 0 && c.GlyphThreshold <= 1, "glyph threshold %v outside [0,1]", c.GlyphThreshold)
	check(c.PlateLength > 0, "plate length %d must be positive", c.PlateLength)
	check(c.LetterCount >= 0 && c.LetterCount <= c.PlateLength, "letter count %d must be within plate length %d", c.LetterCount, c.PlateLength)
	check(c.RefreshInterval > 0, "refresh interval %v must be positive", c.RefreshInterval)
	check(c.Exclusion == detection.ExcludeBoth || c.Exclusion == detection.ExcludeEither, "unknown exclusion policy %d", int(c.Exclusion))
	check(c.Source != "", "source must be set")

	return errs
}

func between(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}
