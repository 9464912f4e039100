package rrdata

import (
	"testing"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

func TestParseMX_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0 ns1.dnszone.test.", "0 ns1.dnszone.test."},
		{"10   mail", "10 mail"},
		{"65535 mail.test.net", "65535 mail.test.net"},
		{"0 .", "0 ."},
	}
	for _, tt := range tests {
		checkRoundTrip(t, domain.RRTypeMX, tt.input, tt.expected)
	}
}

func TestParseMX_Invalid(t *testing.T) {
	checkRejected(t, domain.RRTypeMX,
		"ns1.dnszone.test.",
		"70000 mail",
		"-1 mail",
		"10 mail extra",
		"10 ..",
		"",
	)
}

func TestFromPartsMX(t *testing.T) {
	rd, err := FromParts(domain.RRTypeMX, Parts{"preference": "10", "exchanger": "mail"})
	if err != nil {
		t.Fatalf("FromParts unexpected error: %v", err)
	}
	if rd.String() != "10 mail" {
		t.Errorf("FromParts = %q, want %q", rd.String(), "10 mail")
	}
	_, err = FromParts(domain.RRTypeMX, Parts{"preference": "x", "exchanger": "mail"})
	if name := domain.ErrorName(err); name != "mx_part_preference" {
		t.Errorf("FromParts error named %q, want mx_part_preference", name)
	}
}
