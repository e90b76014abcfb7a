package group

import (
	"bytes"
	"encoding/json"

	"livesync/core/reconcile"
)

// Values is an ordered, name-indexed snapshot of a group's item values.
type Values struct {
	names  []string
	byName map[string]reconcile.Replica
}

func newValues(items []*Item) Values {
	v := Values{
		names:  make([]string, 0, len(items)),
		byName: make(map[string]reconcile.Replica, len(items)),
	}
	for _, it := range items {
		v.names = append(v.names, it.name)
		v.byName[it.name] = it.value
	}
	return v
}

// Get returns the value of the named item.
func (v Values) Get(name string) (reconcile.Replica, bool) {
	r, ok := v.byName[name]
	return r, ok
}

// Names returns the item names in group order.
func (v Values) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// All returns the values in group order.
func (v Values) All() []reconcile.Replica {
	out := make([]reconcile.Replica, len(v.names))
	for i, name := range v.names {
		out[i] = v.byName[name]
	}
	return out
}

// Len returns the number of values.
func (v Values) Len() int { return len(v.names) }

// MarshalJSON encodes the values as an object keyed by item name, in group
// order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
