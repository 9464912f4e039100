package domain

// RecordSet is the typed view of the record values held by one owner entry.
// Each type maps to its raw value strings in stored order.
type RecordSet map[RRType][]string

// RecordSetFromEntry collects every supported record attribute on e.
func RecordSetFromEntry(e Entry) RecordSet {
	rs := make(RecordSet)
	for _, t := range supportedRRTypes {
		if vals := e.Get(t.Attribute()); len(vals) > 0 {
			rs[t] = append([]string(nil), vals...)
		}
	}
	return rs
}

// Empty reports whether no record values remain.
func (rs RecordSet) Empty() bool {
	for _, v := range rs {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Types returns the types present, ordered by type code.
func (rs RecordSet) Types() []RRType {
	var out []RRType
	for _, t := range supportedRRTypes {
		if len(rs[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// RecordAttributes lists every record attribute name, ordered by type code.
func RecordAttributes() []string {
	out := make([]string, len(supportedRRTypes))
	for i, t := range supportedRRTypes {
		out[i] = t.Attribute()
	}
	return out
}
