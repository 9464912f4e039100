package utils

import (
	"fmt"
	"net/netip"
	"strings"
)

// NormalizeACL validates a BIND style address match list and returns its canonical form.
// Elements are separated by ';' or ','. Each element is "any", "none", an IP address or a
// network in addr/prefix form, optionally negated with '!'. Abbreviated IPv4 networks such as
// "10/8" are expanded. Input order is kept and every element is terminated by ';':
//
//	"!10/8;any" -> "!10.0.0.0/8;any;"
func NormalizeACL(acl string) (string, error) {
	tokens := strings.FieldsFunc(acl, func(r rune) bool { return r == ';' || r == ',' })
	var b strings.Builder
	n := 0
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		el, err := normalizeACLElement(tok)
		if err != nil {
			return "", err
		}
		b.WriteString(el)
		b.WriteByte(';')
		n++
	}
	if n == 0 {
		return "", fmt.Errorf("%w: empty address match list", ErrInvalidFormat)
	}
	return b.String(), nil
}

func normalizeACLElement(tok string) (string, error) {
	neg := ""
	if strings.HasPrefix(tok, "!") {
		neg = "!"
		tok = strings.TrimSpace(tok[1:])
	}
	switch strings.ToLower(tok) {
	case "any", "none":
		return neg + strings.ToLower(tok), nil
	}
	if addrPart, bitsPart, ok := strings.Cut(tok, "/"); ok {
		addrPart = expandIPv4(addrPart)
		prefix, err := netip.ParsePrefix(addrPart + "/" + bitsPart)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a network", ErrInvalidFormat, tok)
		}
		return neg + prefix.Masked().String(), nil
	}
	addr, err := netip.ParseAddr(tok)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not an address", ErrInvalidFormat, tok)
	}
	return neg + addr.String(), nil
}

// expandIPv4 pads an abbreviated dotted quad ("10", "172.16") with zero octets.
// Anything else, including malformed input like "10.", is returned unchanged.
func expandIPv4(s string) string {
	octets := strings.Split(s, ".")
	if len(octets) >= 4 {
		return s
	}
	for _, o := range octets {
		if o == "" || strings.Trim(o, "0123456789") != "" {
			return s
		}
	}
	for len(octets) < 4 {
		octets = append(octets, "0")
	}
	return strings.Join(octets, ".")
}
