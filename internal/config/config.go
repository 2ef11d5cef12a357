// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/genscene-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete genscene configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend connection
	Server ServerConfig `toml:"server" json:"server"`

	// Chat identity and stream tuning
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Local thread cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// URL is the backend root, e.g. http://127.0.0.1:8000
	URL string `toml:"url" json:"url"`
	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// ChatConfig contains chat settings.
type ChatConfig struct {
	// User is the backend user id that owns threads
	User string `toml:"user" json:"user"`
	// Actor is selected on startup
	Actor string `toml:"actor" json:"actor"`
	// BufferSize asks the backend to flush after this many deltas
	BufferSize int `toml:"buffer_size" json:"buffer_size"`
	// ReadSize is the maximum size of one read from a reply stream
	ReadSize int `toml:"read_size" json:"read_size"`
}

// CacheConfig contains thread cache configuration.
type CacheConfig struct {
	// Enabled controls whether transcripts are cached locally
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite file; empty means ~/.genscene/threads.db
	Path string `toml:"path" json:"path,omitempty"`
	// MaxThreads caps how many threads are listed from the cache
	MaxThreads int `toml:"max_threads" json:"max_threads"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the markdown style: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown wrap width
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// ImageDir is where /save writes images; empty means the working directory
	ImageDir string `toml:"image_dir" json:"image_dir,omitempty"`
	// ShowStats prints stream statistics after each reply
	ShowStats bool `toml:"show_stats" json:"show_stats"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Path is the log file; empty means ~/.genscene/genscene.log
	Path string `toml:"path" json:"path,omitempty"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			URL:         "http://127.0.0.1:8000",
			TimeoutSecs: 30,
		},

		Chat: ChatConfig{
			User:       "user_id",
			Actor:      "home",
			BufferSize: 10,
			ReadSize:   4096,
		},

		Cache: CacheConfig{
			Enabled:    true,
			MaxThreads: 50,
		},

		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 80,
		},

		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the genscene configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".genscene"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// CachePath returns the effective SQLite cache path.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return util.ExpandHome(c.Cache.Path), nil
	}
	return inConfigDir("threads.db")
}

// LogPath returns the effective log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return util.ExpandHome(c.Log.Path), nil
	}
	return inConfigDir("genscene.log")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []struct {
		path func() (string, error)
		load func(*Config, string) error
		kind string
	}{
		{ConfigPathTOML, LoadTOML, "TOML"},
		{ConfigPathJSON, LoadJSON, "JSON"},
	} {
		path, err := candidate.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := candidate.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", candidate.kind, err)
			continue
		}
		return finalize(cfg)
	}

	cfg, err := finalize(Default())
	if err != nil {
		return nil, err
	}
	// Defaults are usable; loadErr is informational.
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finalize(cfg)
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaults.Server.URL
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}

	// Chat
	if cfg.Chat.User == "" {
		cfg.Chat.User = defaults.Chat.User
	}
	if cfg.Chat.Actor == "" {
		cfg.Chat.Actor = defaults.Chat.Actor
	}
	if cfg.Chat.BufferSize == 0 {
		cfg.Chat.BufferSize = defaults.Chat.BufferSize
	}
	if cfg.Chat.ReadSize == 0 {
		cfg.Chat.ReadSize = defaults.Chat.ReadSize
	}

	// Cache
	if cfg.Cache.MaxThreads == 0 {
		cfg.Cache.MaxThreads = defaults.Cache.MaxThreads
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# genscene configuration file\n")
	buf.WriteString("# Generated by genscene - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file atomically.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Server.URL); err != nil || u.Host == "" {
		add("server.url", "invalid URL '%s'", c.Server.URL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.url", "unsupported scheme '%s', must be http or https", u.Scheme)
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 600 {
		add("server.timeout_secs", "must be between 1 and 600, got %d", c.Server.TimeoutSecs)
	}

	if strings.TrimSpace(c.Chat.User) == "" {
		add("chat.user", "must not be empty")
	}
	if c.Chat.BufferSize < 1 || c.Chat.BufferSize > 1000 {
		add("chat.buffer_size", "must be between 1 and 1000, got %d", c.Chat.BufferSize)
	}
	if c.Chat.ReadSize < 16 || c.Chat.ReadSize > 1<<20 {
		add("chat.read_size", "must be between 16 and 1048576, got %d", c.Chat.ReadSize)
	}

	if c.Cache.MaxThreads < 1 {
		add("cache.max_threads", "must be positive, got %d", c.Cache.MaxThreads)
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true, "notty": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto, notty", c.UI.Theme)
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 500 {
		add("ui.word_wrap", "must be between 20 and 500, got %d", c.UI.WordWrap)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - GENSCENE_SERVER_URL: overrides server.url
//   - GENSCENE_USER: overrides chat.user
//   - GENSCENE_ACTOR: overrides chat.actor
//   - GENSCENE_BUFFER_SIZE: overrides chat.buffer_size
//   - GENSCENE_LOG_LEVEL: overrides log.level
//   - GENSCENE_CACHE: "0"/"false"/"off" disables the cache
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GENSCENE_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("GENSCENE_USER"); v != "" {
		c.Chat.User = v
	}
	if v := os.Getenv("GENSCENE_ACTOR"); v != "" {
		c.Chat.Actor = v
	}
	if v := os.Getenv("GENSCENE_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.BufferSize = n
		}
	}
	if v := os.Getenv("GENSCENE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GENSCENE_CACHE"); v != "" {
		switch strings.ToLower(v) {
		case "0", "false", "off", "no":
			c.Cache.Enabled = false
		default:
			c.Cache.Enabled = true
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML key path (e.g. "chat.actor").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value by its TOML key path. String values are
// converted to the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	return setFieldValue(field, value)
}

// lookup walks the struct by toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	v := reflect.ValueOf(c).Elem()
	parts := strings.Split(key, ".")
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		next, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = next
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int:
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(int64(n))
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(b)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
			if t.Field(i).Type.Kind() == reflect.Struct {
				walk(t.Field(i).Type, prefix+tag+".")
				continue
			}
			keys = append(keys, prefix+tag)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
