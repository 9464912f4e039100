package utils

import (
	"strings"

	"github.com/miekg/dns"
)

// CanonicalDNSName returns a DNS name in canonical storage form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - Exactly one trailing dot (absolute)
// The empty string and "." both canonicalize to the root ".".
func CanonicalDNSName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	// collapse any run of trailing dots before qualifying
	for strings.HasSuffix(name, "..") {
		name = strings.TrimSuffix(name, ".")
	}
	return dns.Fqdn(name)
}

// IsAbsolute reports whether name ends with the root label.
func IsAbsolute(name string) bool {
	return dns.IsFqdn(strings.TrimSpace(name))
}

// IsSubDomain reports whether child equals parent or lies below it. Both are canonicalized first.
func IsSubDomain(parent, child string) bool {
	return dns.IsSubDomain(CanonicalDNSName(parent), CanonicalDNSName(child))
}

// RelativeName returns fqdn relative to origin: "@" when they are equal, the leading labels when
// fqdn is below origin, and ok=false when fqdn is outside origin.
func RelativeName(fqdn, origin string) (string, bool) {
	fqdn = CanonicalDNSName(fqdn)
	origin = CanonicalDNSName(origin)
	if fqdn == origin {
		return "@", true
	}
	if origin == "." {
		return strings.TrimSuffix(fqdn, "."), true
	}
	if !strings.HasSuffix(fqdn, "."+origin) {
		return "", false
	}
	return strings.TrimSuffix(fqdn, "."+origin), true
}

// EnclosingNames returns fqdn and every ancestor name below the root, most specific first.
// It is used to look for the zone that holds a name.
func EnclosingNames(fqdn string) []string {
	fqdn = CanonicalDNSName(fqdn)
	labels := dns.SplitDomainName(fqdn)
	out := make([]string, 0, len(labels))
	for i := range labels {
		out = append(out, dns.Fqdn(strings.Join(labels[i:], ".")))
	}
	return out
}
