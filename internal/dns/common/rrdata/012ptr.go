package rrdata

import (
	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// PTR is a pointer record value. Unlike other targets, PTR hostnames are always stored absolute.
type PTR struct {
	Hostname string
}

func (r *PTR) Type() domain.RRType { return domain.RRTypePTR }
func (r *PTR) String() string      { return r.Hostname }
func (r *PTR) Parts() Parts        { return Parts{"hostname": r.Hostname} }

func parsePTR(raw string) (RData, error) {
	// raw = host.example.com
	fields, err := fieldsExactly(domain.RRTypePTR, raw)
	if err != nil {
		return nil, err
	}
	return newPTR(zipParts(domain.RRTypePTR, fields))
}

func newPTR(p Parts) (RData, error) {
	host, err := parseHostnamePart("hostname", p["hostname"])
	if err != nil {
		return nil, err
	}
	return &PTR{Hostname: utils.CanonicalDNSName(host)}, nil
}
