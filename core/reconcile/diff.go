package reconcile

import (
	"bytes"
	"encoding/json"

	"livesync/core/errors"
)

// Op tags of the diff vocabulary.
const (
	OpInitial = "i"
	OpAdd     = "a"
	OpDelete  = "d"
	OpCreate  = "c"
	OpUpdate  = "u"
)

// Op is one decoded diff operation. An empty Tag marks an op that was not a
// tagged array; containers treat it like an unknown tag.
type Op struct {
	Tag  string
	Args []json.RawMessage
}

// Arg returns the i-th argument, or nil when it is absent or JSON null.
func (o Op) Arg(i int) json.RawMessage {
	if i < 0 || i >= len(o.Args) {
		return nil
	}
	return nullToNil(o.Args[i])
}

// DecodeBatch splits a raw batch into ops. A nil or JSON null batch returns
// nil ops and no error.
func DecodeBatch(batch json.RawMessage) ([]Op, error) {
	batch = nullToNil(batch)
	if batch == nil {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(batch, &raw); err != nil {
		return nil, errors.Wrap(err, "diff batch is not a JSON array")
	}

	ops := make([]Op, len(raw))
	for i, r := range raw {
		ops[i] = decodeOp(r)
	}
	return ops, nil
}

func decodeOp(raw json.RawMessage) Op {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return Op{}
	}
	var tag string
	if err := json.Unmarshal(parts[0], &tag); err != nil {
		return Op{}
	}
	return Op{Tag: tag, Args: parts[1:]}
}

func nullToNil(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

// Encode builds a raw batch from ops such as those returned by ListAdd or
// CollectionCreate.
func Encode(ops ...[]any) (json.RawMessage, error) {
	if ops == nil {
		ops = [][]any{}
	}
	data, err := json.Marshal(ops)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode diff batch")
	}
	return data, nil
}

// ListInitial replaces a list with items, sorted by direction (-1, 0, 1).
func ListInitial(items []any, direction int) []any {
	if items == nil {
		items = []any{}
	}
	return []any{OpInitial, items, direction}
}

// ListAdd appends item to a list.
func ListAdd(item any) []any {
	return []any{OpAdd, item}
}

// ListDelete removes item from a list.
func ListDelete(item any) []any {
	return []any{OpDelete, item}
}

// CollectionInitial replaces a collection with items. sort may be nil.
func CollectionInitial(items []map[string]any, sort SortSpec) []any {
	if items == nil {
		items = []map[string]any{}
	}
	if sort == nil {
		return []any{OpInitial, items}
	}
	return []any{OpInitial, items, sort}
}

// CollectionCreate creates or replaces one entry.
func CollectionCreate(item map[string]any) []any {
	return []any{OpCreate, item}
}

// CollectionUpdate replaces the fields of one entry. fields names the fields
// the server changed; when empty every payload field counts as changed.
func CollectionUpdate(patch map[string]any, fields ...string) []any {
	if len(fields) == 0 {
		return []any{OpUpdate, patch}
	}
	return []any{OpUpdate, patch, fields}
}

// CollectionAtomicUpdate merges patch into one entry without clearing
// fields.
func CollectionAtomicUpdate(patch map[string]any) []any {
	return []any{OpUpdate, patch, true}
}

// CollectionDelete removes the entry keyed id.
func CollectionDelete(id string) []any {
	return []any{OpDelete, id}
}
