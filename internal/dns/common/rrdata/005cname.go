package rrdata

import "github.com/haukened/rr-dnsadm/internal/dns/domain"

// CNAME is a canonical name record value.
type CNAME struct {
	Hostname string
}

func (r *CNAME) Type() domain.RRType { return domain.RRTypeCNAME }
func (r *CNAME) String() string      { return r.Hostname }
func (r *CNAME) Parts() Parts        { return Parts{"hostname": r.Hostname} }

func parseCNAME(raw string) (RData, error) {
	fields, err := fieldsExactly(domain.RRTypeCNAME, raw)
	if err != nil {
		return nil, err
	}
	return newCNAME(zipParts(domain.RRTypeCNAME, fields))
}

func newCNAME(p Parts) (RData, error) {
	host, err := parseHostnamePart("hostname", p["hostname"])
	if err != nil {
		return nil, err
	}
	return &CNAME{Hostname: host}, nil
}
