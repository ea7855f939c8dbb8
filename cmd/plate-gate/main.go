package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ironsheep/plate-gate/internal/config"
	"github.com/ironsheep/plate-gate/internal/dedup"
	"github.com/ironsheep/plate-gate/internal/detection"
	"github.com/ironsheep/plate-gate/internal/glyph"
	"github.com/ironsheep/plate-gate/internal/logging"
	"github.com/ironsheep/plate-gate/internal/metrics"
	"github.com/ironsheep/plate-gate/internal/notify"
	"github.com/ironsheep/plate-gate/internal/ocr"
	"github.com/ironsheep/plate-gate/internal/pipeline"
	"github.com/ironsheep/plate-gate/internal/server"
	"github.com/ironsheep/plate-gate/internal/source"
	"github.com/ironsheep/plate-gate/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("plate-gate %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Tesseract:  %s\n", ocr.Version())
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "plate-gate: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New("plate-gate", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plate-gate: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Infow("starting", "version", Version, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorw("exiting", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("plate-gate - license plate recognition for gate control")
	fmt.Println()
	fmt.Println("Usage: plate-gate [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (a .env file is read if present):")
	fmt.Println("  PLATE_GATE_LOG_LEVEL=info             debug, info, warn or error")
	fmt.Println("  PLATE_GATE_HTTP_ADDR=:8080            Display and API listen address")
	fmt.Println("  PLATE_GATE_SOURCE=frames              Frame directory, device:N or video file")
	fmt.Println("  PLATE_GATE_DATABASE_URL=              Postgres DSN; entries are kept in memory when unset")
	fmt.Println("  PLATE_GATE_IMAGE_DIR=plates           Where plate images are saved")
	fmt.Println("  PLATE_GATE_SQS_QUEUE_URL=             Forward events to SQS when set")
	fmt.Println("  PLATE_GATE_AWS_REGION=                Region for the SQS client")
	fmt.Println("  PLATE_GATE_OCR_LANG=eng               Tesseract language")
	fmt.Println("  PLATE_GATE_LABELS=                    Character label file")
	fmt.Println("  PLATE_GATE_DEDUP_WINDOW=60s           Repeat suppression window")
	fmt.Println()
	fmt.Println("See internal/config for the full list.")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	entries, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, entries.Close()) }()

	labels := glyph.DefaultLabels()
	if cfg.LabelsPath != "" {
		if labels, err = glyph.LoadLabels(cfg.LabelsPath); err != nil {
			return err
		}
	}

	chars, err := ocr.NewTesseractDetector(cfg.OCRLang, labels)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, chars.Close()) }()

	frames, err := source.Open(cfg.Source)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, frames.Close()) }()

	notifier, err := openNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}

	clk := clock.New()
	m := metrics.New()

	gate := dedup.NewGate(entries, store.NewDiskImages(cfg.ImageDir), clk, logger.Named("dedup"))
	gate.Threshold = cfg.SimilarityThreshold
	gate.Window = cfg.DedupWindow

	opts := pipeline.DefaultOptions()
	opts.FrameWidth, opts.FrameHeight = cfg.FrameWidth, cfg.FrameHeight
	opts.PlateConfidenceFloor = cfg.PlateConfidenceFloor
	opts.CharConfidenceFloor = cfg.CharConfidenceFloor
	opts.PlateLength = cfg.PlateLength
	opts.LetterCount = cfg.LetterCount
	opts.GlyphThreshold = cfg.GlyphThreshold
	opts.MinLineRatio = cfg.MinLineRatio
	opts.Exclusion = cfg.Exclusion
	opts.Labels = labels

	srv := server.New(cfg.HTTPAddr, entries, m, logger.Named("server"))

	processor := pipeline.NewProcessor(detection.NewEdgeDensityPlateDetector(), chars, gate, opts, m, logger.Named("pipeline"))
	processor.Display = srv
	processor.Notifier = notifier

	loop := pipeline.NewLoop(frames, processor, clk, m, logger.Named("loop"))
	srv.Control = loop

	refresher, err := pipeline.NewRefresher(srv, cfg.RefreshInterval, logger.Named("refresh"))
	if err != nil {
		return err
	}
	if err := refresher.Start(); err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() { errc <- srv.Run() }()
	go func() { errc <- loop.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Infow("shutting down")
	case err = <-errc:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if err != nil {
			logger.Errorw("component failed, shutting down", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	loop.Stop()
	err = multierr.Combine(
		err,
		refresher.Stop(),
		srv.Shutdown(shutdownCtx),
	)
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warnw("no database configured, entries are kept in memory")
		return store.NewMemory(), nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, multierr.Append(err, pg.Close())
	}
	return pg, nil
}

func openNotifier(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (pipeline.Notifier, error) {
	if cfg.SQSQueueURL == "" {
		return notify.Nop{}, nil
	}
	n, err := notify.NewSQSNotifierFromEnv(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	if err != nil {
		return nil, err
	}
	logger.Infow("forwarding events to SQS", "queue", cfg.SQSQueueURL)
	return n, nil
}
