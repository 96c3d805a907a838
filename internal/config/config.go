// Package config loads assetcache configuration from JSONC files and flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config")
	ErrAssetDirEmpty      = errors.New("asset_dir cannot be empty")
	ErrInvalidLogLevel    = errors.New("log_level must be debug, info, warn or error")
	ErrInvalidCapacity    = errors.New("sample_capacity must be positive")
	ErrInvalidDepth       = errors.New("search_parents and search_kids cannot be negative")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	AssetDir       string `json:"asset_dir"`
	SearchParents  *int   `json:"search_parents,omitempty"`
	SearchKids     *int   `json:"search_kids,omitempty"`
	SampleCapacity *int   `json:"sample_capacity,omitempty"`
	LogLevel       string `json:"log_level,omitempty"`
	Mmap           *bool  `json:"mmap,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Defaults for optional fields.
const (
	DefaultAssetDir       = "assets"
	DefaultSearchParents  = 2
	DefaultSearchKids     = 2
	DefaultSampleCapacity = 64
	DefaultLogLevel       = "info"
)

// Default returns the default configuration.
func Default() Config {
	parents, kids, capacity, mmap := DefaultSearchParents, DefaultSearchKids, DefaultSampleCapacity, false

	return Config{
		AssetDir:       DefaultAssetDir,
		SearchParents:  &parents,
		SearchKids:     &kids,
		SampleCapacity: &capacity,
		LogLevel:       DefaultLogLevel,
		Mmap:           &mmap,
	}
}

// FileName is the default project config file name.
const FileName = ".assetcache.json"

// Parents returns the configured parent search depth.
func (c Config) Parents() int {
	if c.SearchParents == nil {
		return DefaultSearchParents
	}

	return *c.SearchParents
}

// Kids returns the configured descendant search depth.
func (c Config) Kids() int {
	if c.SearchKids == nil {
		return DefaultSearchKids
	}

	return *c.SearchKids
}

// Capacity returns the number of timing samples kept per command.
func (c Config) Capacity() int {
	if c.SampleCapacity == nil {
		return DefaultSampleCapacity
	}

	return *c.SampleCapacity
}

// UseMmap reports whether assets are mapped instead of read into memory.
func (c Config) UseMmap() bool {
	return c.Mmap != nil && *c.Mmap
}

// SlogLevel returns the log level as a [slog.Level].
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)

	return level
}

// globalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/assetcache/config.json if set, otherwise
// ~/.config/assetcache/config.json. Returns empty string if neither is known.
func globalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetcache", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "assetcache", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	AssetDirOverride string            // --asset-dir flag value; empty means no override
	LogLevelOverride string            // --log-level flag value; empty means no override
	Env              map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/assetcache/config.json or $XDG_CONFIG_HOME/assetcache/config.json)
// 3. Project config file at default location (.assetcache.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	globalCfg, globalFile, err := loadGlobal(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalFile
	cfg = merge(cfg, globalCfg)

	projectCfg, projectFile, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectFile
	cfg = merge(cfg, projectCfg)

	if input.AssetDirOverride != "" {
		cfg.AssetDir = input.AssetDirOverride
	}

	if input.LogLevelOverride != "" {
		cfg.LogLevel = input.LogLevelOverride
	}

	validateErr := validate(cfg)
	if validateErr != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigInvalid, validateErr)
	}

	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// loadGlobal loads the global user config file if it exists.
func loadGlobal(env map[string]string) (Config, string, error) {
	path := globalPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadFile(path, false)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, path, nil
}

// loadProject loads the project config file (.assetcache.json) or an explicit
// config file.
func loadProject(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
	}

	cfg, loaded, err := loadFile(cfgFile, mustExist)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return cfg, cfgFile, nil
}

// loadFile loads a config file. If mustExist is false, a file that does not
// exist yields a zero config; any other read failure is an error.
// Returns the config, whether the file was loaded, and any error.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, parseErr := parse(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// "asset_dir": "" is an explicit mistake, not "keep the default".
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["asset_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return Config{}, ErrAssetDirEmpty
		}
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.AssetDir != "" {
		base.AssetDir = overlay.AssetDir
	}

	if overlay.SearchParents != nil {
		base.SearchParents = overlay.SearchParents
	}

	if overlay.SearchKids != nil {
		base.SearchKids = overlay.SearchKids
	}

	if overlay.SampleCapacity != nil {
		base.SampleCapacity = overlay.SampleCapacity
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.Mmap != nil {
		base.Mmap = overlay.Mmap
	}

	return base
}

func validate(cfg Config) error {
	if cfg.AssetDir == "" {
		return ErrAssetDirEmpty
	}

	if cfg.Capacity() <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, cfg.Capacity())
	}

	if cfg.Parents() < 0 || cfg.Kids() < 0 {
		return ErrInvalidDepth
	}

	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	return nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Format returns the config as indented JSON for display.
func Format(cfg Config) (string, error) {
	out := cfg
	parents, kids, capacity, mmap := cfg.Parents(), cfg.Kids(), cfg.Capacity(), cfg.UseMmap()
	out.SearchParents = &parents
	out.SearchKids = &kids
	out.SampleCapacity = &capacity
	out.Mmap = &mmap

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
