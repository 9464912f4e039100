package rrdata

import (
	"testing"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

func TestParsePTR_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"foo-1.example.com", "foo-1.example.com."},
		{"Host.Example.COM.", "host.example.com."},
	}
	for _, tt := range tests {
		checkRoundTrip(t, domain.RRTypePTR, tt.input, tt.expected)
	}
}

func TestParsePTR_Invalid(t *testing.T) {
	checkRejected(t, domain.RRTypePTR,
		"-.example.com",
		"two names",
		".",
	)
}
