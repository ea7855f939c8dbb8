// Package glyph turns per-character detections into plate text.
//
// Character detectors return boxes in no particular order. Assembler keeps
// the confident ones, sorts them left to right by their left edge, looks up
// each class id, and averages their confidences. Corrector then fixes
// look-alike characters by position: in the leading letter segment digits
// that resemble letters become letters, and in the trailing numeric segment
// letters that resemble digits become digits.
package glyph
