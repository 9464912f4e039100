package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LoggingConfig    `koanf:"log"`
	Admin     AdminConfig      `koanf:"admin"`
	Directory DirectoryConfig  `koanf:"directory"`
	Import    ImportConfig     `koanf:"import"`
	Glue      GlueConfig       `koanf:"glue"`
	SOA       domain.SOATimers `koanf:"soa"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level controls log verbosity: "debug", "info", "warn", or "error".
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// AdminConfig configures the command transport.
type AdminConfig struct {
	// Listen is the ip:port the HTTP command surface binds to.
	Listen string `koanf:"listen" validate:"required,ip_port"`
}

// DirectoryConfig selects and tunes the entry store.
type DirectoryConfig struct {
	// BaseDN is the directory suffix; the DNS container is created below it.
	BaseDN string `koanf:"base_dn" validate:"required,dn"`
	// Store is "bolt" for a persistent database file or "memory" for a throwaway store.
	Store string `koanf:"store" validate:"required,oneof=bolt memory"`
	// DBPath is the bbolt database file, required for the bolt store.
	DBPath string `koanf:"db_path" validate:"required_if=Store bolt"`
	// Cache is the entry read cache. A size of 0 disables it.
	Cache CacheConfig `koanf:"cache"`
	// SizeLimit caps the results of find commands; 0 is unlimited.
	SizeLimit int `koanf:"size_limit" validate:"gte=0"`
}

// CacheConfig sizes an LRU cache.
type CacheConfig struct {
	Size uint `koanf:"size"`
}

// ImportConfig locates zone files imported at startup.
type ImportConfig struct {
	// Directory holds YAML, JSON and TOML zone files. Empty disables the import.
	Directory string `koanf:"directory"`
	// Watch re-imports the directory whenever a file in it changes.
	Watch bool `koanf:"watch" validate:"excluded_without=Directory"`
}

// GlueConfig configures the upstream lookup for nameservers outside managed zones.
type GlueConfig struct {
	// Servers is a list of upstream DNS servers in ip:port format. Empty disables the lookup.
	Servers  []string      `koanf:"servers" validate:"omitempty,dive,ip_port"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
	Parallel bool          `koanf:"parallel"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings for the admin service.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{Level: "info"},
	Admin: AdminConfig{
		Listen: "127.0.0.1:8053",
	},
	Directory: DirectoryConfig{
		BaseDN:    "dc=example,dc=com",
		Store:     "bolt",
		DBPath:    "/var/lib/rr-dnsadm/directory.db",
		Cache:     CacheConfig{Size: 1000},
		SizeLimit: 100,
	},
	Import: ImportConfig{},
	Glue: GlueConfig{
		Servers: []string{},
		Timeout: 5 * time.Second,
	},
	SOA: domain.DefaultSOATimers,
}

// envKeys maps DNS_-prefixed variable names (lowercased, prefix removed) to config paths.
var envKeys = map[string]string{
	"env":           "env",
	"log_level":     "log.level",
	"listen":        "admin.listen",
	"base_dn":       "directory.base_dn",
	"store":         "directory.store",
	"db_path":       "directory.db_path",
	"cache_size":    "directory.cache.size",
	"size_limit":    "directory.size_limit",
	"import_dir":    "import.directory",
	"import_watch":  "import.watch",
	"glue_servers":  "glue.servers",
	"glue_timeout":  "glue.timeout",
	"glue_parallel": "glue.parallel",
	"soa_refresh":   "soa.refresh",
	"soa_retry":     "soa.retry",
	"soa_expire":    "soa.expire",
	"soa_minimum":   "soa.minimum",
}

// listKeys are split on spaces and commas.
var listKeys = map[string]bool{
	"glue.servers": true,
}

// validIPPort validates whether the provided field value is a valid IP address and port combination.
// It expects the value to be in the format "IP:Port". The function returns true if the IP address
// is valid and both the IP and port are non-empty; otherwise, it returns false.
func validIPPort(fl validator.FieldLevel) bool {
	// stringify the field value to get the IP:Port format.
	addr := fl.Field().String()
	// Split the address into IP and port.
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	// Check if the IP address is valid.
	if net.ParseIP(ip) == nil {
		return false
	}
	// Check if the port is a valid number between 1 and 65535.
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// validDN accepts a non-empty distinguished name such as "dc=example,dc=com".
func validDN(fl validator.FieldLevel) bool {
	dn, err := domain.ParseDN(fl.Field().String())
	return err == nil && len(dn) > 0
}

// envLoader is a function that loads environment variables with the prefix "DNS_".
// Known names are mapped onto the nested config paths; others are ignored on unmarshal.
// It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			if path, ok := envKeys[key]; ok {
				key = path
			}
			value = strings.TrimSpace(value)

			if listKeys[key] {
				return key, strings.FieldsFunc(value, func(r rune) bool {
					return r == ' ' || r == ','
				})
			}
			return key, value
		},
	}), nil)
}

// defaultLoader loads default configuration values into the provided Koanf instance
// using the structs provider and the DEFAULT_APP_CONFIG struct. It returns an error
// if loading fails.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "ip_port" and "dn" validations with the provided validator.
// Returns an error if registration fails.
var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		return err
	}
	return v.RegisterValidation("dn", validDN)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	// Load default values using structs provider.
	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	// Load environment variables with prefix "DNS_", using koanf/providers/env/v2 and Opt pattern.
	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig

	// Unmarshal the loaded configuration into AppConfig struct.
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Validate the configuration.
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Register the custom validation functions.
	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// ParsedBaseDN returns the validated base DN.
func (c *AppConfig) ParsedBaseDN() (domain.DN, error) {
	return domain.ParseDN(c.Directory.BaseDN)
}
