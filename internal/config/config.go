package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/joho/godotenv"
)

// Publishing modes.
const (
	ModeChecks  = "checks"
	ModeComment = "comment"
)

// Config represents the tgreport configuration.
type Config struct {
	SearchPath          string    `json:"searchPath"`
	DiffFileSuffix      string    `json:"diffFileSuffix"`
	PrettyNameRegex     string    `json:"prettyNameRegex,omitempty"`
	PrettyNameSeparator string    `json:"prettyNameSeparator,omitempty"`
	NoDiffConclusion    string    `json:"noDiffConclusion"`
	Mode                string    `json:"mode"`
	SkipDirs            []string  `json:"skipDirs,omitempty"`
	RedactSecrets       bool      `json:"redactSecrets"`
	Log                 LogConfig `json:"log"`

	// Token and APIURL come from the environment or flags only.
	Token  string `json:"-"`
	APIURL string `json:"-"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		NoDiffConclusion: "failure",
		Mode:             ModeChecks,
		SkipDirs:         []string{".git", ".terragrunt-cache", ".terraform"},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for tgreport.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tgreport"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "tgreport"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tgreport"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "tgreport"), nil
	default:
		return filepath.Join(home, ".config", "tgreport"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadFileWithDefaults returns the defaults overlaid with the config file.
func LoadFileWithDefaults() (Config, error) {
	cfg := Default()
	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- .env/env <- overrides,
// then validates it. The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := Resolve(overrides)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve merges all sources like Load without validating the result.
func Resolve(overrides map[string]string) (Config, error) {
	cfg, err := LoadFileWithDefaults()
	if err != nil {
		return Config{}, apperr.Wrap(err, apperr.KindConfiguration, "loading config file")
	}

	// .env is optional.
	_ = godotenv.Load(".env")
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required inputs and enumerated values.
func (c Config) Validate() error {
	if c.SearchPath == "" {
		return apperr.New(apperr.KindConfiguration, "search path is required")
	}
	if c.DiffFileSuffix == "" {
		return apperr.New(apperr.KindConfiguration, "diff file suffix is required")
	}
	return c.ValidateValues()
}

// ValidateValues checks the enumerated values only. A config file may leave
// the required inputs to the environment, so this is what a file must pass.
func (c Config) ValidateValues() error {
	switch c.NoDiffConclusion {
	case "success", "failure":
	default:
		return apperr.Newf(apperr.KindConfiguration, "no diff conclusion must be success or failure, got %q", c.NoDiffConclusion)
	}
	switch c.Mode {
	case ModeChecks, ModeComment:
	default:
		return apperr.Newf(apperr.KindConfiguration, "mode must be %s or %s, got %q", ModeChecks, ModeComment, c.Mode)
	}
	switch c.Log.Format {
	case "", "json", "text", "actions":
	default:
		return apperr.Newf(apperr.KindConfiguration, "unknown log format %q", c.Log.Format)
	}
	return nil
}

func mergeFile(dst *Config, src Config) {
	if src.SearchPath != "" {
		dst.SearchPath = src.SearchPath
	}
	if src.DiffFileSuffix != "" {
		dst.DiffFileSuffix = src.DiffFileSuffix
	}
	if src.PrettyNameRegex != "" {
		dst.PrettyNameRegex = src.PrettyNameRegex
	}
	if src.PrettyNameSeparator != "" {
		dst.PrettyNameSeparator = src.PrettyNameSeparator
	}
	if src.NoDiffConclusion != "" {
		dst.NoDiffConclusion = src.NoDiffConclusion
	}
	if src.Mode != "" {
		dst.Mode = src.Mode
	}
	if len(src.SkipDirs) > 0 {
		dst.SkipDirs = src.SkipDirs
	}
	dst.RedactSecrets = src.RedactSecrets || dst.RedactSecrets
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

// lookupEnv returns the first non-empty value among the GitHub Actions input
// (INPUT_<NAME>) and TGREPORT_<NAME>.
func lookupEnv(name string) string {
	for _, key := range []string{"INPUT_" + name, "TGREPORT_" + name} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func mergeEnv(cfg *Config) error {
	if v := lookupEnv("SEARCH_PATH"); v != "" {
		cfg.SearchPath = v
	}
	if v := lookupEnv("DIFF_FILE_SUFFIX"); v != "" {
		cfg.DiffFileSuffix = v
	}
	if v := lookupEnv("PRETTY_NAME_REGEX"); v != "" {
		cfg.PrettyNameRegex = v
	}
	if v := lookupEnv("PRETTY_NAME_SEPARATOR"); v != "" {
		cfg.PrettyNameSeparator = v
	}
	if v := lookupEnv("NO_DIFF_CONCLUSION"); v != "" {
		cfg.NoDiffConclusion = v
	}
	if v := lookupEnv("MODE"); v != "" {
		cfg.Mode = v
	}
	if v := lookupEnv("SKIP_DIRS"); v != "" {
		cfg.SkipDirs = SplitComma(v)
	}
	if v := lookupEnv("REDACT_SECRETS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apperr.Wrapf(err, apperr.KindConfiguration, "invalid REDACT_SECRETS %q", v)
		}
		cfg.RedactSecrets = b
	}
	if v := lookupEnv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	} else if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := lookupEnv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := lookupEnv("GITHUB_TOKEN"); v != "" {
		cfg.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		cfg.APIURL = v
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	if overrides == nil {
		return nil
	}
	for _, key := range Keys {
		if v, ok := overrides[key]; ok && v != "" {
			if err := SetField(cfg, key, v); err != nil {
				return err
			}
		}
	}
	if v, ok := overrides["token"]; ok && v != "" {
		cfg.Token = v
	}
	if v, ok := overrides["apiURL"]; ok && v != "" {
		cfg.APIURL = v
	}
	return nil
}

// Keys lists the keys SetField accepts, in config file order.
var Keys = []string{
	"searchPath", "diffFileSuffix", "prettyNameRegex", "prettyNameSeparator",
	"noDiffConclusion", "mode", "skipDirs", "redactSecrets", "logLevel", "logFormat",
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "searchPath":
		cfg.SearchPath = value
	case "diffFileSuffix":
		cfg.DiffFileSuffix = value
	case "prettyNameRegex":
		cfg.PrettyNameRegex = value
	case "prettyNameSeparator":
		cfg.PrettyNameSeparator = value
	case "noDiffConclusion":
		cfg.NoDiffConclusion = value
	case "mode":
		cfg.Mode = value
	case "skipDirs":
		cfg.SkipDirs = SplitComma(value)
	case "redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperr.Wrapf(err, apperr.KindConfiguration, "redactSecrets must be a boolean")
		}
		cfg.RedactSecrets = b
	case "logLevel":
		cfg.Log.Level = value
	case "logFormat":
		cfg.Log.Format = value
	default:
		return apperr.Newf(apperr.KindConfiguration, "unknown config key: %s", key)
	}
	return nil
}

// SplitComma splits a comma-separated list, trimming blanks.
func SplitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
