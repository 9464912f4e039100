package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

const (
	maxLabelLength = 63
	maxNameLength  = 255
)

// ErrInvalidName is wrapped by every name validation failure.
var ErrInvalidName = errors.New("invalid DNS name")

// labelRegexp accepts letters, digits, hyphens and underscores; a label may not begin or end
// with a hyphen. A lone "*" (wildcard) is handled separately.
var labelRegexp = regexp.MustCompile(`^[a-z0-9_]([a-z0-9_-]*[a-z0-9_])?$`)

// ValidateName checks the syntax of a relative or absolute DNS name.
// The root name "." is rejected; callers that accept it must check for it first.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidName, name)
	}
	trimmed := strings.TrimSuffix(name, ".")
	if trimmed == "" {
		return fmt.Errorf("%w: root name not allowed", ErrInvalidName)
	}
	if len(trimmed)+1 > maxNameLength {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLength)
	}
	for i, label := range strings.Split(strings.ToLower(trimmed), ".") {
		switch {
		case label == "":
			return fmt.Errorf("%w: %q has an empty label", ErrInvalidName, name)
		case len(label) > maxLabelLength:
			return fmt.Errorf("%w: label %q is longer than %d characters", ErrInvalidName, label, maxLabelLength)
		case label == "*" && i == 0:
			continue
		case !labelRegexp.MatchString(label):
			return fmt.Errorf("%w: label %q contains invalid characters", ErrInvalidName, label)
		}
	}
	return nil
}

// NormalizeName validates name and qualifies it against origin:
// "@" denotes origin itself, absolute names are kept, relative names get origin appended.
// Internationalized labels are converted to punycode. The result is lowercase and absolute.
func NormalizeName(name, origin string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "@" {
		if origin == "" {
			return "", fmt.Errorf("%w: '@' needs an origin", ErrInvalidName)
		}
		return CanonicalDNSName(origin), nil
	}
	ascii, err := ToASCII(name)
	if err != nil {
		return "", err
	}
	if err := ValidateName(ascii); err != nil {
		return "", err
	}
	if IsAbsolute(ascii) || origin == "" {
		return CanonicalDNSName(ascii), nil
	}
	origin = CanonicalDNSName(origin)
	if origin == "." {
		return CanonicalDNSName(ascii), nil
	}
	full := CanonicalDNSName(ascii + "." + origin)
	if len(full) > maxNameLength {
		return "", fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, full, maxNameLength)
	}
	return full, nil
}

// ToASCII converts internationalized labels to punycode and lowercases the name.
// Pure ASCII input is only lowercased.
func ToASCII(name string) (string, error) {
	if isASCII(name) {
		return strings.ToLower(name), nil
	}
	out, err := idna.ToASCII(strings.ToLower(name))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return out, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
