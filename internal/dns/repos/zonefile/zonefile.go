// Package zonefile loads zone definitions from YAML, JSON and TOML files so they can be
// imported through the admin command surface.
//
// A file names its zone with zone_root, may carry SOA settings under soa and any other
// zone_add option under options, and lists owners as owner -> record type -> values:
//
//	zone_root: example.com
//	soa:
//	  mname: ns1.example.com.
//	  refresh: 3600
//	"@":
//	  MX: "10 mail"
//	www:
//	  A: ["192.0.2.10", "192.0.2.11"]
package zonefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"go.uber.org/multierr"

	"github.com/haukened/rr-dnsadm/internal/dns/common/utils"
	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

const (
	keyZoneRoot = "zone_root"
	keySOA      = "soa"
	keyOptions  = "options"
)

// soaOptions maps the short soa keys of a zone file to zone_add options.
var soaOptions = map[string]string{
	"mname":   domain.AttrSOAMName,
	"rname":   domain.AttrSOARName,
	"serial":  domain.AttrSOASerial,
	"refresh": domain.AttrSOARefresh,
	"retry":   domain.AttrSOARetry,
	"expire":  domain.AttrSOAExpire,
	"minimum": domain.AttrSOAMinimum,
}

// Zone is the content of one or more zone files sharing a zone_root.
type Zone struct {
	// Name is the absolute zone name.
	Name string
	// Options are passed to zone_add.
	Options map[string]any
	// Owners maps an owner name, relative or absolute, to its values per record type.
	Owners map[string]map[domain.RRType][]string
	// Files lists the files the zone was read from.
	Files []string
}

// OwnerNames returns the owner names in sorted order with the apex first.
func (z Zone) OwnerNames() []string {
	names := make([]string, 0, len(z.Owners))
	for name := range z.Owners {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "@" || names[j] == "@" {
			return names[i] == "@" && names[j] != "@"
		}
		return names[i] < names[j]
	})
	return names
}

// IsSupported reports whether path has an extension the loader understands.
func IsSupported(path string) bool {
	return parserFor(path) != nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	}
	return nil
}

// LoadDirectory walks dir and loads every supported zone file. Files naming the same zone_root are
// merged. Unsupported files are ignored. Every failing file is reported; if any fails no zones are
// returned.
func LoadDirectory(dir string) ([]Zone, error) {
	byName := make(map[string]*Zone)
	var errs error

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !IsSupported(path) {
			return nil
		}
		z, err := LoadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("error parsing zone file %s: %w", path, err))
			return nil
		}
		if existing, ok := byName[z.Name]; ok {
			existing.merge(z)
			return nil
		}
		byName[z.Name] = &z
		return nil
	})
	if err = multierr.Append(err, errs); err != nil {
		return nil, err
	}

	zones := make([]Zone, 0, len(byName))
	for _, z := range byName {
		zones = append(zones, *z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

// LoadFile parses a single zone file using the parser for its extension.
func LoadFile(path string) (Zone, error) {
	parser := parserFor(path)
	if parser == nil {
		return Zone{}, fmt.Errorf("unsupported zone file type %q", filepath.Ext(path))
	}

	// Owner names contain dots, so nested keys are split on a character names cannot hold.
	k := koanf.New("/")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return Zone{}, fmt.Errorf("failed to load zone file %s: %w", path, err)
	}

	root := strings.TrimSpace(k.String(keyZoneRoot))
	if root == "" {
		return Zone{}, fmt.Errorf("zone file %s missing '%s'", path, keyZoneRoot)
	}
	if err := utils.ValidateName(root); err != nil {
		return Zone{}, fmt.Errorf("zone file %s: invalid %s %q: %w", path, keyZoneRoot, root, err)
	}

	z := Zone{
		Name:    utils.CanonicalDNSName(root),
		Options: make(map[string]any),
		Owners:  make(map[string]map[domain.RRType][]string),
		Files:   []string{path},
	}

	var errs error
	for name, raw := range k.Raw() {
		switch name {
		case keyZoneRoot:
			continue
		case keySOA:
			errs = multierr.Append(errs, z.readSOA(raw))
			continue
		case keyOptions:
			errs = multierr.Append(errs, z.readOptions(raw))
			continue
		}
		errs = multierr.Append(errs, z.readOwner(name, raw))
	}
	if errs != nil {
		return Zone{}, errs
	}
	return z, nil
}

func (z *Zone) readSOA(raw any) error {
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("'%s' must be a map", keySOA)
	}
	for key, v := range m {
		opt, ok := soaOptions[strings.ToLower(key)]
		if !ok {
			return fmt.Errorf("unknown soa field %q", key)
		}
		z.Options[opt] = v
	}
	return nil
}

func (z *Zone) readOptions(raw any) error {
	m, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("'%s' must be a map", keyOptions)
	}
	for key, v := range m {
		z.Options[strings.ToLower(key)] = v
	}
	return nil
}

func (z *Zone) readOwner(name string, raw any) error {
	rawMap, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("owner %q must map record types to values", name)
	}
	var errs error
	for mnemonic, val := range rawMap {
		t := domain.RRTypeFromString(mnemonic)
		if !t.IsValid() {
			errs = multierr.Append(errs, fmt.Errorf("owner %q: unsupported record type %q", name, mnemonic))
			continue
		}
		values := toStringValues(val)
		if len(values) == 0 { // skip silently (empty or invalid elements)
			continue
		}
		if z.Owners[name] == nil {
			z.Owners[name] = make(map[domain.RRType][]string)
		}
		z.Owners[name][t] = append(z.Owners[name][t], values...)
	}
	return errs
}

// merge folds another file of the same zone into z. Later options win.
func (z *Zone) merge(o Zone) {
	for k, v := range o.Options {
		z.Options[k] = v
	}
	for name, types := range o.Owners {
		if z.Owners[name] == nil {
			z.Owners[name] = make(map[domain.RRType][]string)
		}
		for t, values := range types {
			z.Owners[name][t] = append(z.Owners[name][t], values...)
		}
	}
	z.Files = append(z.Files, o.Files...)
}

// toStringValues converts a raw parsed value (string or []any of strings) into a slice of
// non-empty strings, skipping empty or non-string elements.
func toStringValues(val any) []string {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return []string{s}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
