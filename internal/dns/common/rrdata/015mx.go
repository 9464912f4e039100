package rrdata

import (
	"fmt"
	"math"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// MX is a mail exchange record value.
type MX struct {
	Preference uint16
	Exchanger  string
}

func (r *MX) Type() domain.RRType { return domain.RRTypeMX }
func (r *MX) String() string      { return fmt.Sprintf("%d %s", r.Preference, r.Exchanger) }
func (r *MX) Parts() Parts        { return exchangerParts(r.Preference, r.Exchanger) }

func parseMX(raw string) (RData, error) {
	// raw = 10 mail.example.com.
	fields, err := fieldsExactly(domain.RRTypeMX, raw)
	if err != nil {
		return nil, err
	}
	return newMX(zipParts(domain.RRTypeMX, fields))
}

func newMX(p Parts) (RData, error) {
	pref, host, err := parseExchangerParts(p)
	if err != nil {
		return nil, err
	}
	return &MX{Preference: pref, Exchanger: host}, nil
}

// parseExchangerParts reads the preference/exchanger pair shared by MX and KX.
func parseExchangerParts(p Parts) (uint16, string, error) {
	pref, err := parseUintPart("preference", p["preference"], math.MaxUint16)
	if err != nil {
		return 0, "", err
	}
	host, err := parseTargetPart("exchanger", p["exchanger"])
	if err != nil {
		return 0, "", err
	}
	return uint16(pref), host, nil
}

func exchangerParts(pref uint16, host string) Parts {
	return Parts{"preference": fmt.Sprint(pref), "exchanger": host}
}
