// Package dedup decides whether a plate reading is a new sighting.
//
// A Gate remembers the last text it let through. A reading that is at least
// Threshold percent similar to it is treated as the same vehicle still in
// frame and suppressed without touching storage. Otherwise the gate records
// the new text, looks up the plate's last logged entry, and emits only when
// that entry is older than Window. Persistence errors suppress the reading.
package dedup
