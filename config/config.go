package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/vostfs/internal/util"
	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultFsName = "vostfs"
	DefaultName   = "vostfs"
	DefaultLogLvl = util.InfoLevel

	DefaultAPI      = "https://api.animetop.info/v1"
	DefaultQuality  = QualityHD
	DefaultLimit    = 40
	DefaultPageSize = 99
	DefaultGroup    = GroupEachToLast
	DefaultPurity   = PuritySimple

	// Listing caches follow a frequently updated catalog
	DefaultListingTTL = 120 * time.Second
	// Tokens are expensive to issue and long-lived server side
	DefaultTokenTTL = 30000 * time.Second
	// Reachable stream URLs are remembered this long
	DefaultProbeTTL = 3000 * time.Second

	DefaultProbeCacheSize   = 4096
	DefaultProbeConcurrency = 8
	DefaultRequestTimeout   = 15 * time.Second
	DefaultRateLimit        = 5.0
	DefaultRateBurst        = 10
	DefaultMaxRetries       = 3

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultDirectIO determines whether to bypass the page cache for playlists
	DefaultDirectIO = true
)

// Config contains runtime configuration values for the catalog filesystem.
// It is treated as immutable once the filesystem is built.
type Config struct {
	MountOptions
	LogLvl util.LogLevel

	API      string      // Base URL of the catalog API
	Quality  Quality     // Preferred stream quality (Default hd)
	Limit    int         // Episodes per playlist directory before chunking (Default 40)
	PageSize int         // Titles requested per catalog page (Default 99)
	Group    GroupPolicy // Playlist grouping policy (Default each-to-last)
	Purity   Purity      // Filename escaping policy (Default simple)
	Username string      // Optional; required for favorites
	Password string      // Optional; required for favorites

	ListingTTL       time.Duration // Validity of cached directory listings (Default 2m)
	TokenTTL         time.Duration // Validity of a cached auth token (Default 30000s)
	ProbeTTL         time.Duration // Validity of a cached reachable stream URL (Default 3000s)
	ProbeCacheSize   int           // Maximum number of remembered stream URLs (Default 4096)
	ProbeConcurrency int           // Parallel stream probes per title (Default 8)
	RequestTimeout   time.Duration // Upper bound for every remote call (Default 15s)
	RateLimit        float64       // Catalog requests per second (Default 5)
	RateBurst        int           // Catalog request burst size (Default 10)
	MaxRetries       int           // Retries for failed catalog requests (Default 3)

	// NOTE: Low-level FUSE config (strongly recommend defaults unless you really know what you're doing):

	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 1.0)
	DirectIO     bool    // Whether to bypass page cache for playlist files (Default true)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
// Durations are given in seconds.
type ConfigOverride struct {
	FsName         *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name           *string `yaml:"name,omitempty" json:"name,omitempty"`
	AllowOther     *bool   `yaml:"allow_other,omitempty" json:"allow_other,omitempty"`
	SingleThreaded *bool   `yaml:"single_threaded,omitempty" json:"single_threaded,omitempty"`
	// CLI style verbosity between 1 (error) and 5 (trace)
	LogLvl *int `yaml:"log_lvl,omitempty" json:"log_lvl,omitempty"`

	API      *string `yaml:"api,omitempty" json:"api,omitempty"`
	Quality  *string `yaml:"quality,omitempty" json:"quality,omitempty"`
	Limit    *int    `yaml:"limit,omitempty" json:"limit,omitempty"`
	PageSize *int    `yaml:"page_size,omitempty" json:"page_size,omitempty"`
	Group    *string `yaml:"group,omitempty" json:"group,omitempty"`
	Purity   *string `yaml:"sanitize,omitempty" json:"sanitize,omitempty"`
	Username *string `yaml:"username,omitempty" json:"username,omitempty"`
	Password *string `yaml:"password,omitempty" json:"password,omitempty"`

	ListingTTL       *int     `yaml:"listing_ttl,omitempty" json:"listing_ttl,omitempty"`
	TokenTTL         *int     `yaml:"token_ttl,omitempty" json:"token_ttl,omitempty"`
	ProbeTTL         *int     `yaml:"probe_ttl,omitempty" json:"probe_ttl,omitempty"`
	ProbeCacheSize   *int     `yaml:"probe_cache_size,omitempty" json:"probe_cache_size,omitempty"`
	ProbeConcurrency *int     `yaml:"probe_concurrency,omitempty" json:"probe_concurrency,omitempty"`
	RequestTimeout   *int     `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty"`
	RateLimit        *float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	RateBurst        *int     `yaml:"rate_burst,omitempty" json:"rate_burst,omitempty"`
	MaxRetries       *int     `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	DirectIO     *bool    `yaml:"direct_io,omitempty" json:"direct_io,omitempty"`
}

// NewConfig creates a new Config with default values and applies any
// non-nil override values on top.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:           DefaultLogLvl,
		API:              DefaultAPI,
		Quality:          DefaultQuality,
		Limit:            DefaultLimit,
		PageSize:         DefaultPageSize,
		Group:            DefaultGroup,
		Purity:           DefaultPurity,
		ListingTTL:       DefaultListingTTL,
		TokenTTL:         DefaultTokenTTL,
		ProbeTTL:         DefaultProbeTTL,
		ProbeCacheSize:   DefaultProbeCacheSize,
		ProbeConcurrency: DefaultProbeConcurrency,
		RequestTimeout:   DefaultRequestTimeout,
		RateLimit:        DefaultRateLimit,
		RateBurst:        DefaultRateBurst,
		MaxRetries:       DefaultMaxRetries,
		AttrTimeout:      DefaultAttrTimeout,
		EntryTimeout:     DefaultEntryTimeout,
		DirectIO:         DefaultDirectIO,
	}
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.AllowOther != nil {
		c.AllowOther = *override.AllowOther
	}
	if override.SingleThreaded != nil {
		c.SingleThreaded = *override.SingleThreaded
	}
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.API != nil {
		c.API = strings.TrimRight(*override.API, "/")
	}
	if override.Quality != nil {
		c.Quality = Quality(*override.Quality)
	}
	if override.Limit != nil {
		c.Limit = *override.Limit
	}
	if override.PageSize != nil {
		c.PageSize = *override.PageSize
	}
	if override.Group != nil {
		c.Group = GroupPolicy(*override.Group)
	}
	if override.Purity != nil {
		c.Purity = Purity(*override.Purity)
	}
	if override.Username != nil {
		c.Username = *override.Username
	}
	if override.Password != nil {
		c.Password = *override.Password
	}
	if override.ListingTTL != nil {
		c.ListingTTL = seconds(*override.ListingTTL)
	}
	if override.TokenTTL != nil {
		c.TokenTTL = seconds(*override.TokenTTL)
	}
	if override.ProbeTTL != nil {
		c.ProbeTTL = seconds(*override.ProbeTTL)
	}
	if override.ProbeCacheSize != nil {
		c.ProbeCacheSize = *override.ProbeCacheSize
	}
	if override.ProbeConcurrency != nil {
		c.ProbeConcurrency = *override.ProbeConcurrency
	}
	if override.RequestTimeout != nil {
		c.RequestTimeout = seconds(*override.RequestTimeout)
	}
	if override.RateLimit != nil {
		c.RateLimit = *override.RateLimit
	}
	if override.RateBurst != nil {
		c.RateBurst = *override.RateBurst
	}
	if override.MaxRetries != nil {
		c.MaxRetries = *override.MaxRetries
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.DirectIO != nil {
		c.DirectIO = *override.DirectIO
	}
}

// Validate reports every setting that the filesystem cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.API == "" {
		errs = append(errs, errors.New("api must not be empty"))
	}
	if !validQuality(c.Quality) {
		errs = append(errs, fmt.Errorf("unknown quality %q (want one of %v)", c.Quality, KnownQualities))
	}
	if !validGroup(c.Group) {
		errs = append(errs, fmt.Errorf("unknown group %q (want one of %v)", c.Group, GroupPolicies))
	}
	if !validPurity(c.Purity) {
		errs = append(errs, fmt.Errorf("unknown sanitize purity %q (want one of %v)", c.Purity, Purities))
	}
	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.ProbeConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("probe_concurrency must be positive, got %d", c.ProbeConcurrency))
	}
	if c.ProbeCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("probe_cache_size must be positive, got %d", c.ProbeCacheSize))
	}
	return errors.Join(errs...)
}

// HasCredentials reports whether both username and password are set
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// VerboseToLogLevel converts CLI verbosity (1 error .. 5 trace) to a
// [util.LogLevel], clamping out of range values.
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	lvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return lvls[verbose-1]
}

func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}

// ExpandHome replaces a leading "~" with the current user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
