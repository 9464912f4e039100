package rrdata

import (
	"testing"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

func TestParseKX_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 foo-1", "1 foo-1"},
		{"2 kx.example.com.", "2 kx.example.com."},
		{"0 .", "0 ."},
	}
	for _, tt := range tests {
		checkRoundTrip(t, domain.RRTypeKX, tt.input, tt.expected)
	}
}

func TestParseKX_Invalid(t *testing.T) {
	checkRejected(t, domain.RRTypeKX,
		"foo-1.example.com",
		"65536 foo",
		"1 foo bar",
	)
}
