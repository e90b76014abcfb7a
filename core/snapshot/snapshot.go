package snapshot

import (
	"context"
	"encoding/json"
	"slices"

	"livesync/core/errors"
	"livesync/core/subscription"
	"livesync/feature/group"
)

// Entry is the persisted snapshot of one group item.
type Entry struct {
	Seq         int             `json:"seq"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Publication string          `json:"publication"`
	Diff        json.RawMessage `json:"diff"`
}

// Store saves and loads a snapshot set.
type Store interface {
	// Save replaces the stored set with entries.
	Save(ctx context.Context, entries []Entry) error
	// Load returns the stored set ordered by Seq. An empty store returns no
	// entries and no error.
	Load(ctx context.Context) ([]Entry, error)
	// Clear removes the stored set.
	Clear(ctx context.Context) error
}

// ErrStale is returned when stored entries were captured from a different
// item set than the one being loaded.
var ErrStale = errors.New("snapshot does not match the group items")

var null = json.RawMessage("null")

// Capture returns one entry per item of g, in item order. An empty
// container is captured as a null diff so later entries keep their
// position.
func Capture(g *group.Group) []Entry {
	items := g.Items()
	entries := make([]Entry, 0, len(items))
	for i, it := range items {
		v := it.Value()
		diff := v.Snapshot()
		if diff == nil {
			diff = null
		}
		entries = append(entries, Entry{
			Seq:         i,
			Name:        it.Name(),
			Kind:        string(it.Kind()),
			Publication: it.Publication(),
			Diff:        diff,
		})
	}
	return entries
}

// Batches returns the entry diffs ordered by Seq, ready for
// Registry.Preload.
func Batches(entries []Entry) []json.RawMessage {
	sorted := bySeq(entries)
	out := make([]json.RawMessage, len(sorted))
	for i, e := range sorted {
		out[i] = e.Diff
	}
	return out
}

// Match checks that entries, in Seq order, were captured from defs: one
// entry per definition with the same name, kind and publication.
func Match(entries []Entry, defs []group.Definition) error {
	sorted := bySeq(entries)
	if len(sorted) != len(defs) {
		return errors.Wrapf(ErrStale, "%d entries for %d items", len(sorted), len(defs))
	}
	for i, e := range sorted {
		d := defs[i]
		if e.Name != d.Name() || e.Kind != string(d.Kind()) || e.Publication != d.Publication() {
			return errors.Wrapf(ErrStale, "entry %d is %s %s/%s, item is %s %s/%s",
				i, e.Name, e.Kind, e.Publication, d.Name(), d.Kind(), d.Publication())
		}
	}
	return nil
}

// Preload installs entries as the initial-snapshot cache of reg when they
// match defs. Cached batches are consumed by position, so a mismatched set
// is never installed.
func Preload(reg *subscription.Registry, entries []Entry, defs []group.Definition) error {
	if len(entries) == 0 {
		return nil
	}
	if err := Match(entries, defs); err != nil {
		return err
	}
	reg.Preload(Batches(entries)...)
	return nil
}

func bySeq(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return a.Seq - b.Seq })
	return sorted
}
