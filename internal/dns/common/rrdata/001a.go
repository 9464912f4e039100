package rrdata

import (
	"net/netip"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// A is an IPv4 address record value.
type A struct {
	Address netip.Addr
}

func (r *A) Type() domain.RRType { return domain.RRTypeA }
func (r *A) String() string      { return r.Address.String() }
func (r *A) Parts() Parts        { return Parts{"ip_address": r.Address.String()} }

func parseA(raw string) (RData, error) {
	// raw = 192.0.2.1
	fields, err := fieldsExactly(domain.RRTypeA, raw)
	if err != nil {
		return nil, errField("", "invalid IPv4 address")
	}
	return newA(zipParts(domain.RRTypeA, fields))
}

func newA(p Parts) (RData, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(p["ip_address"]))
	if err != nil || !addr.Is4() {
		return nil, errField("ip_address", "invalid IPv4 address")
	}
	return &A{Address: addr}, nil
}
