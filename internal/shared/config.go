package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Destination DestinationConfig `toml:"destination"`
	Paths       PathsConfig       `toml:"paths"`
	Download    DownloadConfig    `toml:"download"`
	Upload      UploadConfig      `toml:"upload"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
}

// SourceConfig holds the credential for the workspace emoji are read from.
type SourceConfig struct {
	Token string `toml:"token"`
}

// DestinationConfig holds the browser session credentials for the workspace emoji are written to.
type DestinationConfig struct {
	TeamID string `toml:"team_id"`
	Cookie string `toml:"cookie"`
	Token  string `toml:"token"`
}

// PathsConfig contains the default locations of local artifacts.
type PathsConfig struct {
	OutputDir string `toml:"output_dir"`
	ListFile  string `toml:"list_file"`
}

// DownloadConfig tunes the parallel asset fetcher.
type DownloadConfig struct {
	Workers   int     `toml:"workers" validate:"gt=0"`
	RateLimit float64 `toml:"rate_limit" validate:"gte=0"`
}

// UploadConfig tunes the sequential asset publisher.
type UploadConfig struct {
	MaxAttempts    int           `toml:"max_attempts" validate:"gt=0"`
	InitialBackoff time.Duration `toml:"initial_backoff"`
	PaceBase       time.Duration `toml:"pace_base"`
	JitterMin      time.Duration `toml:"jitter_min"`
	JitterMax      time.Duration `toml:"jitter_max" validate:"gtefield=JitterMin"`
}

// APIConfig contains the remote endpoints. Overridable for testing against a local server.
type APIConfig struct {
	DirectoryURL string        `toml:"directory_url"`
	UploadURL    string        `toml:"upload_url" validate:"contains=%s"`
	Timeout      time.Duration `toml:"timeout"`
}

// DatabaseConfig contains run ledger settings.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configValidator reports fields by their TOML key so messages match the file.
var configValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
})

// Validate reports tuning values that would stall or break a run.
func (c *Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	fe := verrs[0]
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "gt":
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, key)
	case "gte":
		return fmt.Errorf("%w: %s cannot be negative", ErrInvalidConfig, key)
	case "gtefield":
		return fmt.Errorf("%w: %s is less than %s", ErrInvalidConfig, key, siblingKey(key, fe.Param()))
	case "contains":
		return fmt.Errorf("%w: %s needs a %s placeholder for the team", ErrInvalidConfig, key, fe.Param())
	default:
		return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, key, fe.Tag())
	}
}

// siblingKey converts a Go field name into the TOML key next to key, e.g. JitterMin -> upload.jitter_min.
func siblingKey(key, field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	if section, _, ok := strings.Cut(key, "."); ok {
		return section + "." + b.String()
	}
	return b.String()
}
