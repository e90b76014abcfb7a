package reconcile

import (
	"maps"

	"livesync/core/utils"
)

// IDField is the key field of collection entries.
const IDField = "_id"

// Entry is one value held by a Collection.
//
// Update and the ItemFactory run outside the collection lock and may read
// the collection; they must not apply diffs to it. Get is called by the
// comparator while the collection is locked and must only read the entry.
type Entry interface {
	Getter
	// ID returns the entry key.
	ID() string
	// Update merges payload into the entry.
	Update(payload map[string]any)
	// Delete removes the entry from its collection.
	Delete()
}

// ItemFactory builds a custom entry for a collection from a raw payload.
// Entries built by a factory merge their own updates; the collection never
// clears their fields.
type ItemFactory func(c *Collection, payload map[string]any) Entry

// Document is the plain entry: the merged payload itself.
type Document map[string]any

// ID returns the _id field.
func (d Document) ID() string {
	id, ok := d[IDField]
	if !ok || id == nil {
		return ""
	}
	return utils.ToString(id)
}

func (d Document) Get(field string) (any, bool) {
	v, ok := d[field]
	return v, ok
}

// Update assigns every field of payload.
func (d Document) Update(payload map[string]any) {
	maps.Copy(d, payload)
}

// Delete is a no-op; the collection removes plain documents itself.
func (d Document) Delete() {}

// ItemBase is embedded by custom entries. It carries the owning collection
// and implements ID and Delete.
type ItemBase struct {
	collection *Collection
	id         string
}

// NewItemBase returns the base of the entry built from payload.
func NewItemBase(c *Collection, payload map[string]any) ItemBase {
	return ItemBase{collection: c, id: payloadID(payload)}
}

func (b *ItemBase) ID() string { return b.id }

// Collection returns the owning collection.
func (b *ItemBase) Collection() *Collection { return b.collection }

// Delete removes the entry from the owning collection. Called while a batch
// is applied, for instance from Update, the removal happens when the batch
// ends.
func (b *ItemBase) Delete() {
	if b.collection != nil {
		b.collection.forget(b)
	}
}

func (b *ItemBase) itemBase() *ItemBase { return b }

func payloadID(payload map[string]any) string {
	return Document(payload).ID()
}
