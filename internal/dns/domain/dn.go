package domain

import (
	"fmt"
	"strings"
)

// RDN is a single attribute=value component of a distinguished name.
type RDN struct {
	Attr  string
	Value string
}

// DN is a distinguished name, most specific component first
// (e.g. idnsname=www,idnsname=example.com.,cn=dns,dc=example,dc=com).
type DN []RDN

// NewDN builds a DN from its components, most specific first.
func NewDN(rdns ...RDN) DN {
	dn := make(DN, len(rdns))
	copy(dn, rdns)
	return dn
}

// ParseDN parses the string form of a DN. Escaped separators ("\,", "\=") are honored.
func ParseDN(s string) (DN, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DN{}, nil
	}
	var dn DN
	for _, part := range splitUnescaped(s, ',') {
		kv := splitUnescaped(part, '=')
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid RDN %q in %q", part, s)
		}
		attr := strings.TrimSpace(kv[0])
		value := unescapeDNValue(strings.TrimSpace(kv[1]))
		if attr == "" || value == "" {
			return nil, fmt.Errorf("invalid RDN %q in %q", part, s)
		}
		dn = append(dn, RDN{Attr: strings.ToLower(attr), Value: value})
	}
	return dn, nil
}

// MustParseDN is ParseDN for constants known to be valid; it panics on error.
func MustParseDN(s string) DN {
	dn, err := ParseDN(s)
	if err != nil {
		panic(err)
	}
	return dn
}

// String renders the DN with RFC 4514 style escaping of special characters.
func (d DN) String() string {
	parts := make([]string, len(d))
	for i, rdn := range d {
		parts[i] = rdn.Attr + "=" + escapeDNValue(rdn.Value)
	}
	return strings.Join(parts, ",")
}

// Child returns a new DN one level below d.
func (d DN) Child(attr, value string) DN {
	out := make(DN, 0, len(d)+1)
	out = append(out, RDN{Attr: strings.ToLower(attr), Value: value})
	return append(out, d...)
}

// Parent returns the DN one level above d, or an empty DN for a single component.
func (d DN) Parent() DN {
	if len(d) <= 1 {
		return DN{}
	}
	return NewDN(d[1:]...)
}

// RDNValue returns the value of the most specific component.
func (d DN) RDNValue() string {
	if len(d) == 0 {
		return ""
	}
	return d[0].Value
}

// Equal compares two DNs case-insensitively.
func (d DN) Equal(o DN) bool {
	return d.Key() == o.Key()
}

// IsDescendantOf reports whether d lies strictly below base.
func (d DN) IsDescendantOf(base DN) bool {
	if len(d) <= len(base) {
		return false
	}
	return d[len(d)-len(base):].Key() == base.Key()
}

// Key returns the normalized storage key of the DN: lowercase, root first, components joined
// by ",". Every descendant key has the ancestor key followed by "," as a prefix, so subtree
// scans are prefix scans and sibling keys sort by name.
func (d DN) Key() string {
	parts := make([]string, len(d))
	for i, rdn := range d {
		parts[len(d)-1-i] = strings.ToLower(rdn.Attr) + "=" + strings.ToLower(escapeDNValue(rdn.Value))
	}
	return strings.Join(parts, ",")
}

// DNFromKey reverses Key. Values come back lowercased.
func DNFromKey(key string) (DN, error) {
	dn, err := ParseDN(key)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(dn)-1; i < j; i, j = i+1, j-1 {
		dn[i], dn[j] = dn[j], dn[i]
	}
	return dn, nil
}

const dnSpecials = `,+"\<>;=`

func escapeDNValue(v string) string {
	var b strings.Builder
	for i, r := range v {
		if strings.ContainsRune(dnSpecials, r) || (i == 0 && (r == '#' || r == ' ')) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if strings.HasSuffix(out, " ") && !strings.HasSuffix(out, `\ `) {
		out = out[:len(out)-1] + `\ `
	}
	return out
}

func unescapeDNValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	escaped := false
	for _, r := range v {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// splitUnescaped splits s on sep, ignoring separators preceded by a backslash.
func splitUnescaped(s string, sep rune) []string {
	var (
		out     []string
		cur     strings.Builder
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == sep:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(out, cur.String())
}
