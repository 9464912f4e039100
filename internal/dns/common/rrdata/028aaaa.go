package rrdata

import (
	"net/netip"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// AAAA is an IPv6 address record value, stored in compressed lowercase form.
type AAAA struct {
	Address netip.Addr
}

func (r *AAAA) Type() domain.RRType { return domain.RRTypeAAAA }
func (r *AAAA) String() string      { return r.Address.String() }
func (r *AAAA) Parts() Parts        { return Parts{"ip_address": r.Address.String()} }

func parseAAAA(raw string) (RData, error) {
	// raw = 2001:db8::1
	fields, err := fieldsExactly(domain.RRTypeAAAA, raw)
	if err != nil {
		return nil, errField("", "invalid IPv6 address")
	}
	return newAAAA(zipParts(domain.RRTypeAAAA, fields))
}

func newAAAA(p Parts) (RData, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(p["ip_address"]))
	if err != nil || !addr.Is6() || addr.Zone() != "" {
		return nil, errField("ip_address", "invalid IPv6 address")
	}
	return &AAAA{Address: addr}, nil
}
