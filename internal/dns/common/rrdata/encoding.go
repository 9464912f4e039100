package rrdata

import (
	"sort"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// FromParts builds a record value from its structured parts. A missing required part is a
// *domain.RequirementError and an invalid part a *domain.ValidationError, both named after the
// part option (e.g. "srv_part_target").
func FromParts(rrType domain.RRType, parts Parts) (RData, error) {
	specs := partSpecs[rrType]
	if specs == nil {
		return nil, rawError(rrType, unsupported(rrType))
	}
	known := make(map[string]bool, len(specs))
	for _, s := range specs {
		known[s.name] = true
		if s.required && strings.TrimSpace(parts[s.name]) == "" {
			return nil, &domain.RequirementError{Name: PartOption(rrType, s.name)}
		}
	}
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			return nil, &domain.ValidationError{Name: PartOption(rrType, name), Detail: "unknown part"}
		}
	}
	rd, err := build(rrType, parts)
	if err != nil {
		return nil, partError(rrType, err)
	}
	return rd, nil
}

func build(rrType domain.RRType, p Parts) (RData, error) {
	switch rrType {
	case domain.RRTypeA: // 1
		return newA(p)
	case domain.RRTypeNS: // 2
		return newNS(p)
	case domain.RRTypeCNAME: // 5
		return newCNAME(p)
	case domain.RRTypePTR: // 12
		return newPTR(p)
	case domain.RRTypeMX: // 15
		return newMX(p)
	case domain.RRTypeTXT: // 16
		return newTXT(p)
	case domain.RRTypeAAAA: // 28
		return newAAAA(p)
	case domain.RRTypeLOC: // 29
		return newLOC(p)
	case domain.RRTypeSRV: // 33
		return newSRV(p)
	case domain.RRTypeKX: // 36
		return newKX(p)
	case domain.RRTypeNSEC: // 47
		return newNSEC(p)
	default:
		return nil, unsupported(rrType)
	}
}

// WithParts returns rd with the given parts replaced. Parts set to "" are cleared, which only
// succeeds for optional parts.
func WithParts(rd RData, parts Parts) (RData, error) {
	merged := rd.Parts()
	for k, v := range parts {
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return FromParts(rd.Type(), merged)
}
