package dedup

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var dmp = diffmatchpatch.New()

// Similarity returns the ratio 2M/T in [0, 1], where M is the number of
// characters the two strings share in a minimal diff and T is their total
// length. Two empty strings are identical.
func Similarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	matched := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(d.Text)
		}
	}
	return 2 * float64(matched) / float64(total)
}

// Percent returns Similarity as a percentage rounded up.
func Percent(a, b string) int {
	return int(math.Ceil(Similarity(a, b) * 100))
}

// ImageName is the file name for a plate crop logged at t:
// PLATE_YYYYMMDDTHHMMSS.jpg.
func ImageName(plate string, t time.Time) string {
	return fmt.Sprintf("%s_%s.jpg", plate, t.Format("20060102T150405"))
}
