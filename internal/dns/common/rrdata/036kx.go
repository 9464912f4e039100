package rrdata

import (
	"fmt"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// KX is a key exchanger record value (RFC 2230). Same shape as MX.
type KX struct {
	Preference uint16
	Exchanger  string
}

func (r *KX) Type() domain.RRType { return domain.RRTypeKX }
func (r *KX) String() string      { return fmt.Sprintf("%d %s", r.Preference, r.Exchanger) }
func (r *KX) Parts() Parts        { return exchangerParts(r.Preference, r.Exchanger) }

func parseKX(raw string) (RData, error) {
	fields, err := fieldsExactly(domain.RRTypeKX, raw)
	if err != nil {
		return nil, err
	}
	return newKX(zipParts(domain.RRTypeKX, fields))
}

func newKX(p Parts) (RData, error) {
	pref, host, err := parseExchangerParts(p)
	if err != nil {
		return nil, err
	}
	return &KX{Preference: pref, Exchanger: host}, nil
}
