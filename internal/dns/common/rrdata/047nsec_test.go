package rrdata

import (
	"testing"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

func TestParseNSEC_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"dnszone.test txt a", "dnszone.test TXT A"},
		{"next.example.com. A MX RRSIG NSEC", "next.example.com. A MX RRSIG NSEC"},
	}
	for _, tt := range tests {
		checkRoundTrip(t, domain.RRTypeNSEC, tt.input, tt.expected)
	}
}

func TestParseNSEC_Invalid(t *testing.T) {
	checkRejected(t, domain.RRTypeNSEC,
		"next.test. BOGUS",
		"next.test.",
		"-bad.test. A",
	)
}

func TestFromPartsNSEC(t *testing.T) {
	tests := []struct {
		parts    Parts
		expected string
	}{
		{Parts{"next": "dnszone.test", "types": "TXT A"}, "dnszone.test TXT A"},
		{Parts{"next": "dnszone.test", "types": "TXT,A"}, "dnszone.test TXT A"},
	}
	for _, tt := range tests {
		rd, err := FromParts(domain.RRTypeNSEC, tt.parts)
		if err != nil {
			t.Errorf("FromParts(%v) unexpected error: %v", tt.parts, err)
			continue
		}
		if rd.String() != tt.expected {
			t.Errorf("FromParts(%v) = %q, want %q", tt.parts, rd.String(), tt.expected)
		}
	}
}
