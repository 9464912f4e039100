package rrdata

import (
	"fmt"
	"math"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// SRV is a service locator record value.
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string
}

func (r *SRV) Type() domain.RRType { return domain.RRTypeSRV }

func (r *SRV) String() string {
	return fmt.Sprintf("%d %d %d %s", r.Priority, r.Weight, r.Port, r.Target)
}

func (r *SRV) Parts() Parts {
	return Parts{
		"priority": fmt.Sprint(r.Priority),
		"weight":   fmt.Sprint(r.Weight),
		"port":     fmt.Sprint(r.Port),
		"target":   r.Target,
	}
}

func parseSRV(raw string) (RData, error) {
	// raw = "priority weight port target"
	fields, err := fieldsExactly(domain.RRTypeSRV, raw)
	if err != nil {
		return nil, err
	}
	return newSRV(zipParts(domain.RRTypeSRV, fields))
}

func newSRV(p Parts) (RData, error) {
	var nums [3]uint16
	for i, field := range []string{"priority", "weight", "port"} {
		v, err := parseUintPart(field, p[field], math.MaxUint16)
		if err != nil {
			return nil, err
		}
		nums[i] = uint16(v)
	}
	target, err := parseTargetPart("target", p["target"])
	if err != nil {
		return nil, err
	}
	return &SRV{Priority: nums[0], Weight: nums[1], Port: nums[2], Target: target}, nil
}
