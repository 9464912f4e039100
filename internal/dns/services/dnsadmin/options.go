package dnsadmin

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// optionSet wraps the loosely typed options of a command. Values arrive as strings, numbers,
// booleans, lists or nil (decoded JSON); every accessor marks its key as consumed so leftovers
// can be reported as unknown.
type optionSet struct {
	raw  map[string]any
	used map[string]bool
}

func newOptionSet(m map[string]any) *optionSet {
	raw := make(map[string]any, len(m))
	for k, v := range m {
		raw[strings.ToLower(k)] = v
	}
	return &optionSet{raw: raw, used: make(map[string]bool)}
}

// has reports whether key was given at all, including as null.
func (o *optionSet) has(key string) bool {
	_, ok := o.raw[key]
	return ok
}

// null reports whether key was given with no value (nil, "" or an empty list), which unsets
// the attribute on modify.
func (o *optionSet) null(key string) bool {
	v, ok := o.raw[key]
	if !ok {
		return false
	}
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}

// keys returns the option names in sorted order.
func (o *optionSet) keys() []string {
	out := make([]string, 0, len(o.raw))
	for k := range o.raw {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (o *optionSet) consume(key string) (any, bool) {
	v, ok := o.raw[key]
	if ok {
		o.used[key] = true
	}
	return v, ok
}

// str returns a single string value.
func (o *optionSet) str(key string) (string, bool, error) {
	v, ok := o.consume(key)
	if !ok || v == nil {
		return "", false, nil
	}
	if list, isList := asList(v); isList {
		switch len(list) {
		case 0:
			return "", false, nil
		case 1:
			v = list[0]
		default:
			return "", true, &domain.ValidationError{Name: key, Detail: "only one value is allowed"}
		}
	}
	s, err := scalarString(v)
	if err != nil {
		return "", true, &domain.ValidationError{Name: key, Detail: err.Error()}
	}
	return s, true, nil
}

// strs returns a multi-valued option. A scalar counts as a one-element list.
func (o *optionSet) strs(key string) ([]string, bool, error) {
	v, ok := o.consume(key)
	if !ok || v == nil {
		return nil, ok, nil
	}
	list, isList := asList(v)
	if !isList {
		list = []any{v}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, err := scalarString(item)
		if err != nil {
			return nil, true, &domain.ValidationError{Name: key, Detail: err.Error()}
		}
		out = append(out, s)
	}
	return out, true, nil
}

// boolean returns a flag. Strings TRUE/FALSE (any case) and the usual 1/0 forms are accepted.
func (o *optionSet) boolean(key string) (bool, bool, error) {
	v, ok := o.consume(key)
	if !ok || v == nil {
		return false, false, nil
	}
	switch x := v.(type) {
	case bool:
		return x, true, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, true, &domain.ValidationError{Name: key, Detail: "must be TRUE or FALSE"}
		}
		return b, true, nil
	}
	return false, true, &domain.ValidationError{Name: key, Detail: "must be TRUE or FALSE"}
}

// uint returns an unsigned integer option; bounds are left to the validator.
func (o *optionSet) uint(key string) (*uint64, error) {
	v, ok := o.consume(key)
	if !ok || v == nil {
		return nil, nil
	}
	var n uint64
	switch x := v.(type) {
	case float64:
		if x < 0 {
			return nil, &domain.ValidationError{Name: key, Detail: "must be at least 0"}
		}
		if x != math.Trunc(x) || x > math.MaxUint64 {
			return nil, &domain.ValidationError{Name: key, Detail: "must be an integer"}
		}
		n = uint64(x)
	case int:
		if x < 0 {
			return nil, &domain.ValidationError{Name: key, Detail: "must be at least 0"}
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return nil, &domain.ValidationError{Name: key, Detail: "must be at least 0"}
		}
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case json.Number, string:
		s := strings.TrimSpace(fmt.Sprint(x))
		parsed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			if _, ierr := strconv.ParseInt(s, 10, 64); ierr == nil {
				return nil, &domain.ValidationError{Name: key, Detail: "must be at least 0"}
			}
			return nil, &domain.ValidationError{Name: key, Detail: "must be an integer"}
		}
		n = parsed
	default:
		return nil, &domain.ValidationError{Name: key, Detail: "must be an integer"}
	}
	return &n, nil
}

// unknown reports the first option no accessor consumed.
func (o *optionSet) unknown() error {
	for _, k := range o.keys() {
		if !o.used[k] {
			return &domain.ValidationError{Name: k, Detail: "unknown option"}
		}
	}
	return nil
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return domain.FormatBool(x), nil
	case int, int32, int64, uint, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	}
	return "", errors.New("must be a string")
}

// soaInput carries the SOA options of zone_add and zone_mod for bounds checking.
type soaInput struct {
	Serial  *uint64 `opt:"idnssoaserial" validate:"omitempty,min=1,max=4294967295"`
	Refresh *uint64 `opt:"idnssoarefresh" validate:"omitempty,max=2147483647"`
	Retry   *uint64 `opt:"idnssoaretry" validate:"omitempty,max=2147483647"`
	Expire  *uint64 `opt:"idnssoaexpire" validate:"omitempty,max=2147483647"`
	Minimum *uint64 `opt:"idnssoaminimum" validate:"omitempty,max=2147483647"`
}

// forwardInput carries forwarding options shared by zones and the global configuration.
type forwardInput struct {
	Forwarders []string `opt:"idnsforwarders" validate:"omitempty,dive,ip"`
	Policy     string   `opt:"idnsforwardpolicy" validate:"omitempty,oneof=only first none"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("opt"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// check runs the validator on in and turns the first failure into a ValidationError named
// after the option.
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return &domain.ValidationError{Name: name, Detail: describeFieldError(fe)}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "can be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "ip":
		return fmt.Sprintf("%v is not a valid IP address", fe.Value())
	}
	return "failed " + fe.Tag() + " check"
}

// normalizeForwarders returns forwarder addresses in canonical text form.
func normalizeForwarders(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if addr, err := netip.ParseAddr(f); err == nil {
			f = addr.String()
		}
		out = append(out, f)
	}
	return out
}

// uint32Value narrows a validated option value.
func uint32Value(v *uint64, def uint32) uint32 {
	if v == nil {
		return def
	}
	return uint32(*v)
}
