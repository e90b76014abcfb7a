package reconcile

import (
	"maps"
	"slices"

	"livesync/core/utils"
)

// Changes describes what one batch, or a merged run of batches, changed.
type Changes interface {
	Kind() Kind
	// Len returns the number of affected values.
	Len() int
	// Merge returns a new changeset combining the receiver with next.
	// next must be of the same kind; a nil next returns a copy.
	Merge(next Changes) Changes
}

// RecordChanges holds the record fields after a batch and the fields that
// the batch removed.
type RecordChanges struct {
	Fields  map[string]any
	Deleted []string
}

func (c *RecordChanges) Kind() Kind { return KindRecord }

func (c *RecordChanges) Len() int { return len(c.Fields) + len(c.Deleted) }

// Merge overwrites fields shallowly.
func (c *RecordChanges) Merge(next Changes) Changes {
	out := &RecordChanges{
		Fields:  maps.Clone(c.Fields),
		Deleted: slices.Clone(c.Deleted),
	}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}

	n, ok := next.(*RecordChanges)
	if !ok || n == nil {
		return out
	}
	for k, v := range n.Fields {
		out.Fields[k] = v
		out.Deleted = slices.DeleteFunc(out.Deleted, func(d string) bool { return d == k })
	}
	for _, k := range n.Deleted {
		delete(out.Fields, k)
		if !slices.Contains(out.Deleted, k) {
			out.Deleted = append(out.Deleted, k)
		}
	}
	return out
}

// ListChanges lists affected, added and deleted list items.
type ListChanges struct {
	Items   []any
	Added   []any
	Deleted []any
}

func (c *ListChanges) Kind() Kind { return KindList }

func (c *ListChanges) Len() int { return len(c.Items) + len(c.Deleted) }

// Merge concatenates the three slices.
func (c *ListChanges) Merge(next Changes) Changes {
	out := &ListChanges{
		Items:   slices.Clone(c.Items),
		Added:   slices.Clone(c.Added),
		Deleted: slices.Clone(c.Deleted),
	}
	if n, ok := next.(*ListChanges); ok && n != nil {
		out.Items = append(out.Items, n.Items...)
		out.Added = append(out.Added, n.Added...)
		out.Deleted = append(out.Deleted, n.Deleted...)
	}
	return out
}

func (c *ListChanges) add(item any) {
	if i := slices.IndexFunc(c.Deleted, func(d any) bool { return utils.Equal(d, item) }); i >= 0 {
		c.Deleted = slices.Delete(c.Deleted, i, i+1)
	}
	c.Items = append(c.Items, item)
	c.Added = append(c.Added, item)
}

// delete records the removal of item. held reports whether item was held
// before the batch; an item added and removed within one batch is dropped
// from the changeset instead.
func (c *ListChanges) delete(item any, held bool) {
	match := func(v any) bool { return utils.Equal(v, item) }
	c.Added = slices.DeleteFunc(c.Added, match)
	c.Items = slices.DeleteFunc(c.Items, match)
	if held && !slices.ContainsFunc(c.Deleted, match) {
		c.Deleted = append(c.Deleted, item)
	}
}

// CollectionChanges lists affected and added entries and deleted keys.
type CollectionChanges struct {
	Items   []Entry
	Added   []Entry
	Deleted []string
}

func (c *CollectionChanges) Kind() Kind { return KindCollection }

func (c *CollectionChanges) Len() int { return len(c.Items) + len(c.Deleted) }

// Merge concatenates the three slices.
func (c *CollectionChanges) Merge(next Changes) Changes {
	out := &CollectionChanges{
		Items:   slices.Clone(c.Items),
		Added:   slices.Clone(c.Added),
		Deleted: slices.Clone(c.Deleted),
	}
	if n, ok := next.(*CollectionChanges); ok && n != nil {
		out.Items = append(out.Items, n.Items...)
		out.Added = append(out.Added, n.Added...)
		out.Deleted = append(out.Deleted, n.Deleted...)
	}
	return out
}

// AddedIDs returns the keys of the added entries.
func (c *CollectionChanges) AddedIDs() []string {
	return entryIDs(c.Added)
}

// ItemIDs returns the keys of the affected entries.
func (c *CollectionChanges) ItemIDs() []string {
	return entryIDs(c.Items)
}

func (c *CollectionChanges) add(e Entry) {
	id := e.ID()
	c.Deleted = slices.DeleteFunc(c.Deleted, func(d string) bool { return d == id })
	c.Items = append(c.Items, e)
	c.Added = append(c.Added, e)
}

func (c *CollectionChanges) update(e Entry) {
	id := e.ID()
	if !slices.ContainsFunc(c.Items, func(x Entry) bool { return x.ID() == id }) {
		c.Items = append(c.Items, e)
	}
}

// delete records the removal of id; see ListChanges.delete for held.
func (c *CollectionChanges) delete(id string, held bool) {
	match := func(x Entry) bool { return x.ID() == id }
	c.Items = slices.DeleteFunc(c.Items, match)
	c.Added = slices.DeleteFunc(c.Added, match)
	if held && !slices.Contains(c.Deleted, id) {
		c.Deleted = append(c.Deleted, id)
	}
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID()
	}
	return ids
}
