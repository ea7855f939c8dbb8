package config

import (
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/plate-gate/internal/detection"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"CharConfidenceFloor", cfg.CharConfidenceFloor, 70},
		{"PlateConfidenceFloor", cfg.PlateConfidenceFloor, 90},
		{"SimilarityThreshold", cfg.SimilarityThreshold, 80},
		{"DedupWindow", cfg.DedupWindow, time.Minute},
		{"Exclusion", cfg.Exclusion, detection.ExcludeBoth},
		{"MinLineRatio", cfg.MinLineRatio, 0.3},
		{"GlyphThreshold", cfg.GlyphThreshold, 0.5},
		{"PlateLength", cfg.PlateLength, 6},
		{"LetterCount", cfg.LetterCount, 3},
		{"RefreshInterval", cfg.RefreshInterval, 500 * time.Millisecond},
		{"FrameWidth", cfg.FrameWidth, 960},
		{"FrameHeight", cfg.FrameHeight, 540},
		{"DatabaseURL", cfg.DatabaseURL, ""},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLATE_GATE_CHAR_CONF_FLOOR", "75")
	t.Setenv("PLATE_GATE_PLATE_CONF_FLOOR", "60")
	t.Setenv("PLATE_GATE_DEDUP_WINDOW", "2m")
	t.Setenv("PLATE_GATE_EXCLUSION", "either")
	t.Setenv("PLATE_GATE_PLATE_LENGTH", "7")
	t.Setenv("PLATE_GATE_DATABASE_URL", "postgres://localhost/plates")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CharConfidenceFloor != 75 || cfg.PlateConfidenceFloor != 60 {
		t.Errorf("floors = %d/%d", cfg.CharConfidenceFloor, cfg.PlateConfidenceFloor)
	}
	if cfg.DedupWindow != 2*time.Minute {
		t.Errorf("DedupWindow = %v", cfg.DedupWindow)
	}
	if cfg.Exclusion != detection.ExcludeEither {
		t.Errorf("Exclusion = %v", cfg.Exclusion)
	}
	if cfg.PlateLength != 7 {
		t.Errorf("PlateLength = %d", cfg.PlateLength)
	}
	if cfg.DatabaseURL != "postgres://localhost/plates" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoadParseErrors(t *testing.T) {
	t.Setenv("PLATE_GATE_CHAR_CONF_FLOOR", "high")
	t.Setenv("PLATE_GATE_EXCLUSION", "sometimes")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"PLATE_GATE_CHAR_CONF_FLOOR", "PLATE_GATE_EXCLUSION"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source:               "frames",
			FrameWidth:           960,
			FrameHeight:          540,
			CharConfidenceFloor:  70,
			PlateConfidenceFloor: 90,
			SimilarityThreshold:  80,
			DedupWindow:          time.Minute,
			MinLineRatio:         0.3,
			GlyphThreshold:       0.5,
			PlateLength:          6,
			LetterCount:          3,
			RefreshInterval:      500 * time.Millisecond,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"char floor above 100", func(c *Config) { c.CharConfidenceFloor = 101 }},
		{"negative plate floor", func(c *Config) { c.PlateConfidenceFloor = -1 }},
		{"zero window", func(c *Config) { c.DedupWindow = 0 }},
		{"letter count exceeds length", func(c *Config) { c.LetterCount = 7 }},
		{"zero line ratio", func(c *Config) { c.MinLineRatio = 0 }},
		{"glyph threshold above one", func(c *Config) { c.GlyphThreshold = 1.5 }},
		{"zero refresh", func(c *Config) { c.RefreshInterval = 0 }},
		{"unknown exclusion", func(c *Config) { c.Exclusion = detection.ExclusionPolicy(5) }},
		{"empty source", func(c *Config) { c.Source = "" }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
