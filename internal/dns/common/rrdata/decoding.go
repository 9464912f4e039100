package rrdata

import (
	"fmt"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// Parse validates a raw record value of the given type and returns its structured form.
// Grammar violations are reported as *domain.ValidationError named after the record attribute
// (e.g. "srvrecord").
func Parse(rrType domain.RRType, raw string) (RData, error) {
	rd, err := parse(rrType, raw)
	if err != nil {
		return nil, rawError(rrType, err)
	}
	return rd, nil
}

func parse(rrType domain.RRType, raw string) (RData, error) {
	if rrType != domain.RRTypeTXT {
		raw = strings.TrimSpace(raw)
	}
	if raw == "" {
		return nil, errField("", "must not be empty")
	}
	switch rrType {
	case domain.RRTypeA: // 1
		return parseA(raw)
	case domain.RRTypeNS: // 2
		return parseNS(raw)
	case domain.RRTypeCNAME: // 5
		return parseCNAME(raw)
	case domain.RRTypePTR: // 12
		return parsePTR(raw)
	case domain.RRTypeMX: // 15
		return parseMX(raw)
	case domain.RRTypeTXT: // 16
		return parseTXT(raw)
	case domain.RRTypeAAAA: // 28
		return parseAAAA(raw)
	case domain.RRTypeLOC: // 29
		return parseLOC(raw)
	case domain.RRTypeSRV: // 33
		return parseSRV(raw)
	case domain.RRTypeKX: // 36
		return parseKX(raw)
	case domain.RRTypeNSEC: // 47
		return parseNSEC(raw)
	default:
		return nil, unsupported(rrType)
	}
}

// Normalize validates raw and returns its canonical stored form.
func Normalize(rrType domain.RRType, raw string) (string, error) {
	rd, err := Parse(rrType, raw)
	if err != nil {
		return "", err
	}
	return rd.String(), nil
}

func unsupported(t domain.RRType) error {
	return fmt.Errorf("%s records are not supported", t)
}
