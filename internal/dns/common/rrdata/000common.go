package rrdata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// Parts is the structured form of a record value, keyed by part name (e.g. "priority").
// All values are strings; numeric parts hold their decimal form.
type Parts map[string]string

// RData is a parsed and validated record value.
type RData interface {
	// Type returns the record type of the value.
	Type() domain.RRType
	// String returns the canonical raw form that is stored in the directory.
	String() string
	// Parts returns the structured form; FromParts(Type(), Parts()) yields an equal value.
	Parts() Parts
}

// partSpec describes one structured part of a record type.
type partSpec struct {
	name     string
	required bool
}

// partSpecs lists the parts of each type in raw value order.
var partSpecs = map[domain.RRType][]partSpec{
	domain.RRTypeA:     {{"ip_address", true}},
	domain.RRTypeNS:    {{"hostname", true}},
	domain.RRTypeCNAME: {{"hostname", true}},
	domain.RRTypePTR:   {{"hostname", true}},
	domain.RRTypeMX:    {{"preference", true}, {"exchanger", true}},
	domain.RRTypeTXT:   {{"data", true}},
	domain.RRTypeAAAA:  {{"ip_address", true}},
	domain.RRTypeLOC: {
		{"lat_deg", true}, {"lat_min", false}, {"lat_sec", false}, {"lat_dir", true},
		{"lon_deg", true}, {"lon_min", false}, {"lon_sec", false}, {"lon_dir", true},
		{"altitude", true}, {"size", false}, {"h_precision", false}, {"v_precision", false},
	},
	domain.RRTypeSRV:  {{"priority", true}, {"weight", true}, {"port", true}, {"target", true}},
	domain.RRTypeKX:   {{"preference", true}, {"exchanger", true}},
	domain.RRTypeNSEC: {{"next", true}, {"types", true}},
}

// PartNames returns the part names of t in raw value order, or nil for unsupported types.
func PartNames(t domain.RRType) []string {
	specs := partSpecs[t]
	if specs == nil {
		return nil
	}
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.name
	}
	return out
}

// PartOption returns the command option carrying a part, e.g. "srv_part_target".
func PartOption(t domain.RRType, part string) string {
	return t.Option() + "_part_" + part
}

// fieldError is a grammar violation attributed to one part. An empty field means the value
// as a whole is malformed.
type fieldError struct {
	field  string
	detail string
}

func (e *fieldError) Error() string {
	if e.field == "" {
		return e.detail
	}
	return e.field + " " + e.detail
}

func errField(field, format string, args ...any) error {
	return &fieldError{field: field, detail: fmt.Sprintf(format, args...)}
}

// rawError attributes a grammar violation to the record attribute, e.g. "srvrecord".
func rawError(t domain.RRType, err error) error {
	return &domain.ValidationError{Name: t.Attribute(), Detail: err.Error()}
}

// partError attributes a grammar violation to the part option that caused it.
func partError(t domain.RRType, err error) error {
	fe, ok := err.(*fieldError)
	if !ok || fe.field == "" {
		return rawError(t, err)
	}
	return &domain.ValidationError{Name: PartOption(t, fe.field), Detail: fe.detail}
}

// parseUintPart reads a decimal part bounded by max.
func parseUintPart(field, s string, max uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if _, ierr := strconv.ParseInt(s, 10, 64); ierr == nil {
			return 0, errField(field, "must be at least 0")
		}
		return 0, errField(field, "must be an integer")
	}
	if v > max {
		return 0, errField(field, "can be at most %d", max)
	}
	return v, nil
}

// parseFloatPart reads a decimal part bounded by [min, max]. An optional unit suffix is stripped.
func parseFloatPart(field, s, unit string, min, max float64) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), unit)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errField(field, "must be a decimal number")
	}
	if v < min {
		return 0, errField(field, "must be at least %s", formatFloat(min))
	}
	if v > max {
		return 0, errField(field, "can be at most %s", formatFloat(max))
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseHostnamePart validates a target name. Relative names are accepted; the name is converted
// to its ASCII form but otherwise kept as given.
func parseHostnamePart(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errField(field, "is required")
	}
	name, err := utils.ToASCII(s)
	if err != nil {
		return "", errField(field, "%v", err)
	}
	if err := utils.ValidateName(name); err != nil {
		return "", errField(field, "%v", err)
	}
	return name, nil
}

// parseTargetPart is parseHostnamePart for exchanger and service targets, where the root name
// "." means "no such service" (RFC 2782, RFC 7505).
func parseTargetPart(field, s string) (string, error) {
	if strings.TrimSpace(s) == "." {
		return ".", nil
	}
	return parseHostnamePart(field, s)
}

// fieldsExactly splits raw on whitespace and checks the field count against the part list of t.
func fieldsExactly(t domain.RRType, raw string) ([]string, error) {
	fields := strings.Fields(raw)
	names := PartNames(t)
	if len(fields) != len(names) {
		return nil, errField("", "expected format: %s", strings.Join(names, " "))
	}
	return fields, nil
}

// zipParts pairs fields with the part names of t.
func zipParts(t domain.RRType, fields []string) Parts {
	p := make(Parts, len(fields))
	for i, name := range PartNames(t) {
		if i < len(fields) {
			p[name] = fields[i]
		}
	}
	return p
}
