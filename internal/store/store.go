package store

import (
	"context"
	"time"

	"gopkg.in/guregu/null.v4"
)

// DefaultLimit is the number of entries ListEntries returns when the filter
// does not set one.
const DefaultLimit = 10

// Status is the authorization status of a plate.
type Status int

const (
	Unauthorized Status = iota
	Authorized
	Unregistered
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	case Unregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// Kind records how an entry was created.
type Kind int

const (
	System Kind = iota
	Manual
	Edited
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case System:
		return "system"
	case Manual:
		return "manual"
	case Edited:
		return "edited"
	default:
		return "unknown"
	}
}

// Entry is one logged plate sighting.
type Entry struct {
	ID              int64       `json:"id"`
	Plate           string      `json:"plate"`
	CharConfidence  int         `json:"char_confidence"`
	PlateConfidence int         `json:"plate_confidence"`
	Status          Status      `json:"status"`
	Kind            Kind        `json:"kind"`
	LoggedAt        time.Time   `json:"logged_at"`
	ImagePath       null.String `json:"image_path"`
}

// Filter selects entries for ListEntries.
type Filter struct {
	// Plate matches entries whose plate contains it. Empty matches all.
	Plate string `form:"plate"`

	// Limit caps the result size. Zero or negative means DefaultLimit.
	Limit int `form:"limit"`
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Store is implemented by Postgres and Memory.
type Store interface {
	// LastEntry returns the most recent entry for plate, or nil if the
	// plate was never logged.
	LastEntry(ctx context.Context, plate string) (*Entry, error)

	// InsertEntry persists e and sets its ID.
	InsertEntry(ctx context.Context, e *Entry) error

	// PlateStatus returns the registered status of plate, or Unregistered.
	PlateStatus(ctx context.Context, plate string) (Status, error)

	// ListEntries returns matching entries, newest first.
	ListEntries(ctx context.Context, f Filter) ([]Entry, error)

	Close() error
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
