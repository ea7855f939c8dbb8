package dedup

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/plate-gate/internal/store"
)

var epoch = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

func newTestGate(t *testing.T, entries Entries, images ImageSink) (*Gate, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(epoch)
	return NewGate(entries, images, clk, zaptest.NewLogger(t).Sugar()), clk
}

func candidate(text string) Candidate {
	return Candidate{Text: text, CharConfidence: 85, PlateConfidence: 93}
}

type failingEntries struct {
	lookupErr error
	insertErr error
	statusErr error
	inserted  int
}

func (f *failingEntries) LastEntry(context.Context, string) (*store.Entry, error) {
	return nil, f.lookupErr
}

func (f *failingEntries) InsertEntry(context.Context, *store.Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted++
	return nil
}

func (f *failingEntries) PlateStatus(context.Context, string) (store.Status, error) {
	return store.Unregistered, f.statusErr
}

type recordingSink struct {
	names   []string
	removed []string
	err     error
}

func (r *recordingSink) Save(name string, _ image.Image) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.names = append(r.names, name)
	return "/plates/" + name, nil
}

func (r *recordingSink) Remove(path string) error {
	r.removed = append(r.removed, path)
	return nil
}

func TestGateIdenticalReadingSuppressed(t *testing.T) {
	mem := store.NewMemory()
	g, clk := newTestGate(t, mem, nil)
	ctx := context.Background()

	d, e, err := g.Admit(ctx, candidate("ABC123"))
	if err != nil || d != Emit || e == nil {
		t.Fatalf("first Admit = %v, %v, %v; want emit", d, e, err)
	}

	// Even long after the window, the same text is absorbed by similarity.
	clk.Add(10 * time.Minute)
	d, e, err = g.Admit(ctx, candidate("ABC123"))
	if err != nil || d != SuppressSimilar || e != nil {
		t.Fatalf("second Admit = %v, %v, %v; want suppress_similar", d, e, err)
	}

	entries, _ := mem.ListEntries(ctx, store.Filter{})
	if len(entries) != 1 {
		t.Errorf("persisted %d entries, want 1", len(entries))
	}
}

func TestGateNearDuplicateSuppressed(t *testing.T) {
	g, _ := newTestGate(t, store.NewMemory(), nil)
	ctx := context.Background()

	if d, _, _ := g.Admit(ctx, candidate("ABC123")); d != Emit {
		t.Fatalf("first Admit = %v", d)
	}
	if d, _, _ := g.Admit(ctx, candidate("ABC124")); d != SuppressSimilar {
		t.Errorf("near duplicate Admit = %v, want suppress_similar", d)
	}
	if g.LastText() != "ABC123" {
		t.Errorf("LastText = %q, suppressed readings must not update it", g.LastText())
	}
}

func TestGateTimeWindow(t *testing.T) {
	tests := []struct {
		name string
		ago  time.Duration
		want Decision
	}{
		{"30 seconds ago", 30 * time.Second, SuppressRecent},
		{"exactly one minute ago", time.Minute, SuppressRecent},
		{"just over one minute ago", time.Minute + time.Second, Emit},
		{"90 seconds ago", 90 * time.Second, Emit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := store.NewMemory()
			prior := &store.Entry{Plate: "ABC123", LoggedAt: epoch.Add(-tt.ago)}
			if err := mem.InsertEntry(ctx, prior); err != nil {
				t.Fatal(err)
			}

			g, _ := newTestGate(t, mem, nil)
			d, _, err := g.Admit(ctx, candidate("ABC123"))
			if err != nil {
				t.Fatalf("Admit: %v", err)
			}
			if d != tt.want {
				t.Errorf("Admit = %v, want %v", d, tt.want)
			}
			if g.LastText() != "ABC123" {
				t.Errorf("LastText = %q, want ABC123", g.LastText())
			}
		})
	}
}

func TestGateEmitPopulatesEntry(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SetPlateStatus("ABC123", store.Authorized)
	sink := &recordingSink{}
	g, _ := newTestGate(t, mem, sink)

	c := candidate("ABC123")
	c.Image = image.NewRGBA(image.Rect(0, 0, 10, 4))
	d, e, err := g.Admit(ctx, c)
	if err != nil || d != Emit {
		t.Fatalf("Admit = %v, %v", d, err)
	}
	if e.Status != store.Authorized || e.Kind != store.System {
		t.Errorf("entry status/kind = %v/%v", e.Status, e.Kind)
	}
	if !e.LoggedAt.Equal(epoch) {
		t.Errorf("LoggedAt = %v, want %v", e.LoggedAt, epoch)
	}
	if e.ID == 0 {
		t.Error("entry ID not assigned")
	}
	if len(sink.names) != 1 || sink.names[0] != "ABC123_20240301T083000.jpg" {
		t.Errorf("saved images = %v", sink.names)
	}
	if e.ImagePath.String != "/plates/ABC123_20240301T083000.jpg" {
		t.Errorf("ImagePath = %q", e.ImagePath.String)
	}
}

func TestGateFailsClosed(t *testing.T) {
	boom := errors.New("db down")
	tests := []struct {
		name    string
		entries *failingEntries
		sink    *recordingSink
	}{
		{"lookup error", &failingEntries{lookupErr: boom}, nil},
		{"status error", &failingEntries{statusErr: boom}, nil},
		{"insert error", &failingEntries{insertErr: boom}, nil},
		{"image error", &failingEntries{}, &recordingSink{err: boom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sink ImageSink
			if tt.sink != nil {
				sink = tt.sink
			}
			g, _ := newTestGate(t, tt.entries, sink)
			c := candidate("ABC123")
			c.Image = image.NewRGBA(image.Rect(0, 0, 4, 4))

			d, e, err := g.Admit(context.Background(), c)
			if d != SuppressError || e != nil {
				t.Errorf("Admit = %v, %v; want suppress_error", d, e)
			}
			if pkgerrors.Cause(err) != ErrPersistence {
				t.Errorf("err = %v, want ErrPersistence", err)
			}
			if tt.entries.inserted != 0 {
				t.Errorf("inserted %d entries after failure", tt.entries.inserted)
			}
		})
	}
}

func TestGateRemovesImageWhenInsertFails(t *testing.T) {
	sink := &recordingSink{}
	g, _ := newTestGate(t, &failingEntries{insertErr: errors.New("db down")}, sink)
	c := candidate("ABC123")
	c.Image = image.NewRGBA(image.Rect(0, 0, 4, 4))

	if d, _, _ := g.Admit(context.Background(), c); d != SuppressError {
		t.Fatalf("Admit = %v, want suppress_error", d)
	}
	if len(sink.removed) != 1 || sink.removed[0] != "/plates/ABC123_20240301T083000.jpg" {
		t.Errorf("removed = %v, want the saved image", sink.removed)
	}
}

func TestGateKeepsImageOnEmit(t *testing.T) {
	sink := &recordingSink{}
	g, _ := newTestGate(t, store.NewMemory(), sink)
	c := candidate("ABC123")
	c.Image = image.NewRGBA(image.Rect(0, 0, 4, 4))

	if d, _, _ := g.Admit(context.Background(), c); d != Emit {
		t.Fatalf("Admit = %v, want emit", d)
	}
	if len(sink.removed) != 0 {
		t.Errorf("removed = %v on emit", sink.removed)
	}
}

func TestGateStateSurvivesFailure(t *testing.T) {
	entries := &failingEntries{lookupErr: errors.New("timeout")}
	g := NewGate(entries, nil, clock.NewMock(), zap.NewNop().Sugar())
	ctx := context.Background()

	if d, _, _ := g.Admit(ctx, candidate("ABC123")); d != SuppressError {
		t.Fatalf("Admit = %v", d)
	}
	entries.lookupErr = nil
	if d, _, _ := g.Admit(ctx, candidate("ABC123")); d != SuppressSimilar {
		t.Errorf("Admit after recovery = %v, want suppress_similar", d)
	}
	if d, _, _ := g.Admit(ctx, candidate("XYZ999")); d != Emit {
		t.Errorf("Admit new plate = %v, want emit", d)
	}
}

func TestDecisionString(t *testing.T) {
	for d, want := range map[Decision]string{
		Emit:            "emit",
		SuppressSimilar: "suppress_similar",
		SuppressRecent:  "suppress_recent",
		SuppressError:   "suppress_error",
		Decision(42):    "unknown",
	} {
		if got := d.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(d), got, want)
		}
	}
}
