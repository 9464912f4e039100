package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Entry is a directory entry: a DN plus multi-valued attributes.
// Attribute names are stored lowercase; values keep insertion order.
type Entry struct {
	DN    DN
	Attrs map[string][]string
}

// NewEntry returns an empty entry at dn.
func NewEntry(dn DN) Entry {
	return Entry{DN: dn, Attrs: make(map[string][]string)}
}

// Get returns the values of attr, or nil.
func (e Entry) Get(attr string) []string {
	return e.Attrs[strings.ToLower(attr)]
}

// First returns the first value of attr, or "".
func (e Entry) First(attr string) string {
	if v := e.Get(attr); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether attr carries at least one value.
func (e Entry) Has(attr string) bool {
	return len(e.Get(attr)) > 0
}

// Set replaces the values of attr. Setting no values removes the attribute.
func (e *Entry) Set(attr string, values ...string) {
	if e.Attrs == nil {
		e.Attrs = make(map[string][]string)
	}
	attr = strings.ToLower(attr)
	if len(values) == 0 {
		delete(e.Attrs, attr)
		return
	}
	e.Attrs[attr] = append([]string(nil), values...)
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := Entry{DN: NewDN(e.DN...), Attrs: make(map[string][]string, len(e.Attrs))}
	for k, v := range e.Attrs {
		out.Attrs[k] = append([]string(nil), v...)
	}
	return out
}

// AttrNames returns the attribute names in sorted order.
func (e Entry) AttrNames() []string {
	names := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ContainsValue reports whether attr holds value, compared case-insensitively.
func (e Entry) ContainsValue(attr, value string) bool {
	return indexFold(e.Get(attr), value) >= 0
}

// Apply applies modifications in order. It fails without partial effect when a delete names
// a missing value (ErrNoSuchValue) or an add repeats an existing one (ErrValueExists).
func (e *Entry) Apply(mods []Modification) error {
	next := e.Clone()
	for _, m := range mods {
		attr := strings.ToLower(m.Attr)
		cur := next.Attrs[attr]
		switch m.Op {
		case ModAdd:
			for _, v := range m.Values {
				if indexFold(cur, v) >= 0 {
					return fmt.Errorf("%w: %s=%s", ErrValueExists, attr, v)
				}
				cur = append(cur, v)
			}
		case ModDelete:
			if len(m.Values) == 0 {
				if len(cur) == 0 {
					return fmt.Errorf("%w: %s", ErrNoSuchValue, attr)
				}
				cur = nil
				break
			}
			for _, v := range m.Values {
				i := indexFold(cur, v)
				if i < 0 {
					return fmt.Errorf("%w: %s=%s", ErrNoSuchValue, attr, v)
				}
				cur = append(cur[:i:i], cur[i+1:]...)
			}
		case ModReplace:
			cur = append([]string(nil), m.Values...)
		default:
			return fmt.Errorf("unknown modification op %d", m.Op)
		}
		next.Set(attr, cur...)
	}
	e.Attrs = next.Attrs
	return nil
}

// MarshalJSON renders the entry as a flat object: {"dn": "...", "<attr>": [values...]}.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		out[k] = v
	}
	if len(e.DN) > 0 {
		out["dn"] = e.DN.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Attrs = make(map[string][]string, len(raw))
	e.DN = DN{}
	for k, v := range raw {
		if k == "dn" {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("dn: %w", err)
			}
			dn, err := ParseDN(s)
			if err != nil {
				return err
			}
			e.DN = dn
			continue
		}
		var vals []string
		if err := json.Unmarshal(v, &vals); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		e.Set(k, vals...)
	}
	return nil
}

func indexFold(values []string, v string) int {
	for i, cur := range values {
		if strings.EqualFold(cur, v) {
			return i
		}
	}
	return -1
}

// ModOp is the kind of an attribute modification.
type ModOp int

const (
	// ModAdd appends values; adding an existing value fails.
	ModAdd ModOp = iota
	// ModDelete removes the named values, or the whole attribute when no values are given.
	ModDelete
	// ModReplace sets the attribute to exactly the given values (none removes it).
	ModReplace
)

// Modification is one attribute-level change applied by Directory.Modify.
type Modification struct {
	Op     ModOp
	Attr   string
	Values []string
}

// AddValues builds a ModAdd modification.
func AddValues(attr string, values ...string) Modification {
	return Modification{Op: ModAdd, Attr: attr, Values: values}
}

// DeleteValues builds a ModDelete modification.
func DeleteValues(attr string, values ...string) Modification {
	return Modification{Op: ModDelete, Attr: attr, Values: values}
}

// ReplaceValues builds a ModReplace modification.
func ReplaceValues(attr string, values ...string) Modification {
	return Modification{Op: ModReplace, Attr: attr, Values: values}
}
