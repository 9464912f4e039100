package rrdata

import (
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// TXT is a text record value, stored verbatim.
type TXT struct {
	Data string
}

func (r *TXT) Type() domain.RRType { return domain.RRTypeTXT }
func (r *TXT) String() string      { return r.Data }
func (r *TXT) Parts() Parts        { return Parts{"data": r.Data} }

func parseTXT(raw string) (RData, error) {
	// raw = any text, spaces included
	return newTXT(Parts{"data": raw})
}

func newTXT(p Parts) (RData, error) {
	data := p["data"]
	if strings.TrimSpace(data) == "" {
		return nil, errField("data", "must not be empty")
	}
	return &TXT{Data: data}, nil
}
