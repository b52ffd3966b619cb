// Package config holds the settings of a conversion run: where packages
// are written, where images are looked up, and how many articles are
// converted at once.
//
// Settings come from, in increasing precedence: Default, an optional YAML
// file read by Load, and OAEPUB_* environment variables applied by
// FromEnv. A Config is a plain value; nothing in this package keeps global
// state.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is named.
const DefaultFile = "oaepub.yml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OAEPUB_"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the configuration of a conversion run.
type Config struct {
	// OutputDir receives the written packages. It is created on demand.
	OutputDir string `yaml:"output_dir"`

	// ImagePatterns are directory patterns searched for article images. A
	// "*" is replaced with the DOI suffix of the article.
	ImagePatterns []string `yaml:"image_patterns,omitempty"`

	// Workers bounds the number of articles converted concurrently.
	Workers int `yaml:"workers"`

	// Language is the dc:language used when an article declares none.
	Language string `yaml:"language"`

	// Validate runs the structural checker on every written package.
	Validate bool `yaml:"validate"`

	// Overwrite allows replacing an existing output file.
	Overwrite bool `yaml:"overwrite"`

	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: ".",
		Workers:   runtime.NumCPU(),
		Language:  "en",
		Validate:  true,
		Overwrite: true,
		LogLevel:  "info",
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error: the defaults are returned as they are.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads the named .env files into the process environment
// without overriding variables that are already set. With no names it
// loads ".env" from the working directory. Missing files are ignored.
func LoadDotEnv(names ...string) error {
	if len(names) == 0 {
		names = []string{".env"}
	}
	for _, name := range names {
		if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("config: loading %s: %w", name, err)
		}
	}
	return nil
}

// FromEnv returns cfg with the OAEPUB_* overrides found by lookup applied.
// Pass os.LookupEnv for the process environment.
//
//	OAEPUB_OUTPUT_DIR      output directory
//	OAEPUB_IMAGE_PATTERNS  image patterns, separated by the list separator
//	OAEPUB_WORKERS         worker count
//	OAEPUB_LANGUAGE        fallback language
//	OAEPUB_VALIDATE        true/false
//	OAEPUB_OVERWRITE       true/false
//	OAEPUB_LOG_LEVEL       log level
func FromEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("OUTPUT_DIR"); ok {
		cfg.OutputDir = v
	}
	if v, ok := get("IMAGE_PATTERNS"); ok {
		cfg.ImagePatterns = splitList(v)
	}
	if v, ok := get("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %sWORKERS: %v", ErrInvalid, EnvPrefix, err)
		}
		cfg.Workers = n
	}
	if v, ok := get("LANGUAGE"); ok {
		cfg.Language = v
	}
	for key, dst := range map[string]*bool{"VALIDATE": &cfg.Validate, "OVERWRITE": &cfg.Overwrite} {
		v, ok := get(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, key, err)
		}
		*dst = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return cfg, cfg.Validate()
}

// Validate reports settings no run can use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, string(os.PathListSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
