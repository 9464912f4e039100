package domain

import (
	"fmt"
	"strings"
)

// RRType represents a DNS resource record type (e.g. A, AAAA, MX).
// See IANA DNS Parameters for assigned codes.
type RRType uint16

// DNS Resource Record Type constants for the types managed as directory attributes.
const (
	RRTypeA     RRType = 1  // A - IPv4 address
	RRTypeNS    RRType = 2  // NS - Name server
	RRTypeCNAME RRType = 5  // CNAME - Canonical name
	RRTypePTR   RRType = 12 // PTR - Pointer
	RRTypeMX    RRType = 15 // MX - Mail exchange
	RRTypeTXT   RRType = 16 // TXT - Text
	RRTypeAAAA  RRType = 28 // AAAA - IPv6 address
	RRTypeLOC   RRType = 29 // LOC - Location
	RRTypeSRV   RRType = 33 // SRV - Service
	RRTypeKX    RRType = 36 // KX - Key exchanger
	RRTypeNSEC  RRType = 47 // NSEC - Next secure
)

// supportedRRTypes is ordered by type code; record output follows this order.
var supportedRRTypes = []RRType{
	RRTypeA, RRTypeNS, RRTypeCNAME, RRTypePTR, RRTypeMX, RRTypeTXT,
	RRTypeAAAA, RRTypeLOC, RRTypeSRV, RRTypeKX, RRTypeNSEC,
}

// SupportedRRTypes returns the record types the engine can store, ordered by type code.
func SupportedRRTypes() []RRType {
	out := make([]RRType, len(supportedRRTypes))
	copy(out, supportedRRTypes)
	return out
}

// IsValid returns true if the RRType is one of the supported types.
func (t RRType) IsValid() bool {
	switch t {
	case RRTypeA, RRTypeNS, RRTypeCNAME, RRTypePTR, RRTypeMX, RRTypeTXT,
		RRTypeAAAA, RRTypeLOC, RRTypeSRV, RRTypeKX, RRTypeNSEC:
		return true
	default:
		return false
	}
}

// String returns the textual representation of the RRType.
// For unknown types, it returns "UNKNOWN(<value>)".
func (t RRType) String() string {
	switch t {
	case RRTypeA:
		return "A"
	case RRTypeNS:
		return "NS"
	case RRTypeCNAME:
		return "CNAME"
	case RRTypePTR:
		return "PTR"
	case RRTypeMX:
		return "MX"
	case RRTypeTXT:
		return "TXT"
	case RRTypeAAAA:
		return "AAAA"
	case RRTypeLOC:
		return "LOC"
	case RRTypeSRV:
		return "SRV"
	case RRTypeKX:
		return "KX"
	case RRTypeNSEC:
		return "NSEC"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}

// Attribute returns the directory attribute holding values of this type, e.g. "srvrecord".
func (t RRType) Attribute() string {
	return strings.ToLower(t.String()) + "record"
}

// Option returns the lowercase mnemonic used to prefix part and extra options, e.g. "srv".
func (t RRType) Option() string {
	return strings.ToLower(t.String())
}

// RRTypeFromString converts a record type mnemonic (any case) to its RRType value.
// Unknown mnemonics return 0.
func RRTypeFromString(s string) RRType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return RRTypeA
	case "NS":
		return RRTypeNS
	case "CNAME":
		return RRTypeCNAME
	case "PTR":
		return RRTypePTR
	case "MX":
		return RRTypeMX
	case "TXT":
		return RRTypeTXT
	case "AAAA":
		return RRTypeAAAA
	case "LOC":
		return RRTypeLOC
	case "SRV":
		return RRTypeSRV
	case "KX":
		return RRTypeKX
	case "NSEC":
		return RRTypeNSEC
	default:
		return 0
	}
}

// RRTypeFromAttribute maps a directory attribute name such as "arecord" back to its RRType.
func RRTypeFromAttribute(attr string) (RRType, bool) {
	attr = strings.ToLower(attr)
	if !strings.HasSuffix(attr, "record") {
		return 0, false
	}
	t := RRTypeFromString(strings.TrimSuffix(attr, "record"))
	return t, t.IsValid()
}
