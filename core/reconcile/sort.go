package reconcile

import (
	"bytes"
	"encoding/json"
	"strings"

	"livesync/core/errors"
	"livesync/core/utils"
)

// SortField is one field of a collection sort list. Path may be dotted to
// reach into nested objects. Direction is 1 for ascending, -1 for
// descending.
type SortField struct {
	Path      string
	Direction int
}

// SortSpec is an ordered sort list. On the wire it is a JSON object whose
// key order is the field order, e.g. {"score":-1,"name":1}.
type SortSpec []SortField

// MarshalJSON encodes the spec as an ordered JSON object.
func (s SortSpec) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if f.Direction < 0 {
			buf.WriteString("-1")
		} else {
			buf.WriteString("1")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an ordered JSON object. null decodes to nil.
func (s *SortSpec) UnmarshalJSON(data []byte) error {
	if nullToNil(data) == nil {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "invalid sort list")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("sort list is not a JSON object")
	}

	spec := SortSpec{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "invalid sort list")
		}
		path, _ := tok.(string)

		var dir any
		if err := dec.Decode(&dir); err != nil {
			return errors.Wrapf(err, "invalid direction for sort field %q", path)
		}
		direction := 1
		if f, ok := utils.ToFloat(dir); ok && f < 0 {
			direction = -1
		}
		spec = append(spec, SortField{Path: path, Direction: direction})
	}
	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "invalid sort list")
	}

	*s = spec
	return nil
}

// Fields returns the distinct top-level field names the spec depends on.
func (s SortSpec) Fields() []string {
	var out []string
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		top, _, _ := strings.Cut(f.Path, ".")
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		out = append(out, top)
	}
	return out
}

// Getter reads a top-level field of an entry.
type Getter interface {
	Get(field string) (any, bool)
}

// Comparator orders two entries and returns -1, 0 or 1.
type Comparator func(a, b Getter) int

// NewComparator returns a comparator applying the fields of spec in order.
// The first field that differs decides; entries equal on every field
// compare 0. Missing fields order before present ones.
func NewComparator(spec SortSpec) Comparator {
	fields := make([]SortField, len(spec))
	copy(fields, spec)

	paths := make([][]string, len(fields))
	for i, f := range fields {
		paths[i] = strings.Split(f.Path, ".")
	}

	return func(a, b Getter) int {
		for i, f := range fields {
			c := utils.Compare(lookup(a, paths[i]), lookup(b, paths[i]))
			if c == 0 {
				continue
			}
			if f.Direction < 0 {
				return -c
			}
			return c
		}
		return 0
	}
}

func lookup(g Getter, path []string) any {
	v, ok := g.Get(path[0])
	if !ok {
		return nil
	}
	for _, key := range path[1:] {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// directionCompare returns the list comparator for direction.
func directionCompare(direction int) func(a, b any) int {
	if direction < 0 {
		return func(a, b any) int { return utils.Compare(b, a) }
	}
	return utils.Compare
}
