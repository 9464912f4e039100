package rrdata

import "github.com/haukened/rr-dnsadm/internal/dns/domain"

// NS is a nameserver record value. The hostname is kept relative if given relative.
type NS struct {
	Hostname string
}

func (r *NS) Type() domain.RRType { return domain.RRTypeNS }
func (r *NS) String() string      { return r.Hostname }
func (r *NS) Parts() Parts        { return Parts{"hostname": r.Hostname} }

func parseNS(raw string) (RData, error) {
	// raw = ns1.example.com.
	fields, err := fieldsExactly(domain.RRTypeNS, raw)
	if err != nil {
		return nil, err
	}
	return newNS(zipParts(domain.RRTypeNS, fields))
}

func newNS(p Parts) (RData, error) {
	host, err := parseHostnamePart("hostname", p["hostname"])
	if err != nil {
		return nil, err
	}
	return &NS{Hostname: host}, nil
}
