package utils

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/miekg/dns"
)

const (
	reverseV4Suffix = "in-addr.arpa."
	reverseV6Suffix = "ip6.arpa."
)

// ErrInvalidFormat is returned when a CIDR or address does not parse.
var ErrInvalidFormat = errors.New("invalid format")

// IsReverseZone reports whether name lies in in-addr.arpa. or ip6.arpa.
func IsReverseZone(name string) bool {
	name = CanonicalDNSName(name)
	return strings.HasSuffix(name, "."+reverseV4Suffix) || name == reverseV4Suffix ||
		strings.HasSuffix(name, "."+reverseV6Suffix) || name == reverseV6Suffix
}

// ReverseName returns the full reverse lookup name of ip, e.g. 4.3.2.1.in-addr.arpa.
func ReverseName(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	rev, err := dns.ReverseAddr(addr.Unmap().String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return strings.ToLower(rev), nil
}

// ReverseZoneFromCIDR returns the reverse zone covering the network ip/prefix. IPv4 zones are cut
// at octet boundaries and IPv6 zones at nibble boundaries, rounding the prefix down, so
// 80.142.15.0/24 yields 15.142.80.in-addr.arpa.
func ReverseZoneFromCIDR(cidr string) (string, error) {
	cidr = strings.TrimSpace(cidr)
	if !strings.Contains(cidr, "/") {
		return "", fmt.Errorf("%w: expected ip/prefix", ErrInvalidFormat)
	}
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	prefix = prefix.Masked()

	var keep int
	if prefix.Addr().Is4() {
		if prefix.Bits() < 8 {
			return "", fmt.Errorf("%w: IPv4 prefix must be at least /8", ErrInvalidFormat)
		}
		keep = prefix.Bits() / 8
	} else {
		if prefix.Bits() < 4 {
			return "", fmt.Errorf("%w: IPv6 prefix must be at least /4", ErrInvalidFormat)
		}
		keep = prefix.Bits() / 4
	}

	rev, err := ReverseName(prefix.Addr().String())
	if err != nil {
		return "", err
	}
	labels := dns.SplitDomainName(rev)
	// the last two labels are the in-addr/ip6 + arpa suffix
	addrLabels := len(labels) - 2
	return dns.Fqdn(strings.Join(labels[addrLabels-keep:], ".")), nil
}

// PTRNameFromIP returns the owner name of ip's PTR record relative to zone.
// It fails when ip does not fall inside zone.
func PTRNameFromIP(ip, zone string) (string, error) {
	rev, err := ReverseName(ip)
	if err != nil {
		return "", err
	}
	rel, ok := RelativeName(rev, zone)
	if !ok {
		return "", fmt.Errorf("%s is not in zone %s", ip, CanonicalDNSName(zone))
	}
	return rel, nil
}
