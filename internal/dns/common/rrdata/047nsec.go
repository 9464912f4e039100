package rrdata

import (
	"strings"

	"github.com/miekg/dns"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// NSEC is a next-secure record value: the next owner name and the types present at this owner.
type NSEC struct {
	Next  string
	Types []string
}

func (r *NSEC) Type() domain.RRType { return domain.RRTypeNSEC }

func (r *NSEC) String() string {
	return r.Next + " " + strings.Join(r.Types, " ")
}

func (r *NSEC) Parts() Parts {
	return Parts{"next": r.Next, "types": strings.Join(r.Types, " ")}
}

func parseNSEC(raw string) (RData, error) {
	// raw = next.example.com. A MX RRSIG
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return nil, errField("", "expected format: next types...")
	}
	return newNSEC(Parts{"next": fields[0], "types": strings.Join(fields[1:], " ")})
}

func newNSEC(p Parts) (RData, error) {
	next, err := parseHostnamePart("next", p["next"])
	if err != nil {
		return nil, err
	}
	mnemonics := strings.FieldsFunc(p["types"], func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	if len(mnemonics) == 0 {
		return nil, errField("types", "is required")
	}
	types := make([]string, 0, len(mnemonics))
	for _, m := range mnemonics {
		m = strings.ToUpper(m)
		if _, ok := dns.StringToType[m]; !ok {
			return nil, errField("types", "unknown record type %q", m)
		}
		types = append(types, m)
	}
	return &NSEC{Next: next, Types: types}, nil
}
