// Package ocr reads plate characters with Tesseract.
//
// TesseractDetector wraps the Tesseract engine (via gosseract/v2) as a
// character detector: it runs single-line recognition on a plate image and
// reports one detection per recognized symbol, with the symbol's bounding
// box, its class id in the configured label table, and a confidence in
// [0, 1].
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Symbol Filtering
//
// Recognition is restricted to the characters present in the label table,
// so the engine never proposes symbols the assembler cannot name. Symbols
// Tesseract still returns outside the table are dropped.
//
// # Concurrency
//
// A detector owns one Tesseract client. Calls are serialized; use one
// detector per goroutine for parallel recognition.
package ocr
