package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.ocuprofile.yaml",               // Project-specific config (highest priority)
	"~/.config/ocuprofile/config.yaml", // User config
	"/etc/ocuprofile/config.yaml",      // System config (lowest priority)
}

// DefaultEnvFile is read for OCUPROFILE_* values missing from the environment
const DefaultEnvFile = ".env"

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	envFile     string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		envFile:     DefaultEnvFile,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. .env file in the working directory
// 4. ./.ocuprofile.yaml
// 5. ~/.config/ocuprofile/config.yaml
// 6. /etc/ocuprofile/config.yaml
// 7. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	// If custom path is provided, use only that path
	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Lowest priority first
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)
	return nil
}

// lookupEnv consults the process environment first and the .env file second
func (l *Loader) lookupEnv() func(string) string {
	var dotenv map[string]string
	if l.envFile != "" && fileExists(l.envFile) {
		values, err := godotenv.Read(l.envFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to read %s: %v\n", l.envFile, err)
		}
		dotenv = values
	}
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// EnvVar documents one OCUPROFILE_* override
type EnvVar struct {
	Name        string
	Description string
	apply       func(cfg *Config, value string) error
}

// envVars is applied in order, so the first invalid variable is the one reported
var envVars = []EnvVar{
	{"OCUPROFILE_SERVICE_ENDPOINT", "analysis service base URL",
		func(c *Config, v string) error { c.Service.Endpoint = strings.TrimRight(v, "/"); return nil }},
	{"OCUPROFILE_SERVICE_TIMEOUT", "per-attempt request timeout",
		func(c *Config, v string) error { return parseDuration(v, &c.Service.Timeout) }},
	{"OCUPROFILE_SERVICE_MAX_RETRIES", "retries after a transient failure",
		func(c *Config, v string) error { return parseInt(v, &c.Service.MaxRetries) }},
	{"OCUPROFILE_SERVICE_RETRY_DELAY", "first backoff delay, doubled per retry",
		func(c *Config, v string) error { return parseDuration(v, &c.Service.RetryDelay) }},
	{"OCUPROFILE_SERVICE_UPLOAD_FIELD", "multipart field carrying the spreadsheet",
		func(c *Config, v string) error { c.Service.UploadField = v; return nil }},
	{"OCUPROFILE_UPLOAD_ALLOWED_EXTENSIONS", "comma-separated accepted extensions",
		func(c *Config, v string) error { c.Upload.AllowedExtensions = splitExtensions(v); return nil }},
	{"OCUPROFILE_UPLOAD_MAX_BYTES", "largest spreadsheet accepted, in bytes",
		func(c *Config, v string) error { return parseInt64(v, &c.Upload.MaxBytes) }},
	{"OCUPROFILE_OUTPUT_DEFAULT_FORMAT", "text, json, markdown or csv",
		func(c *Config, v string) error { c.Output.DefaultFormat = v; return nil }},
	{"OCUPROFILE_OUTPUT_COLOR_MODE", "auto, always or never",
		func(c *Config, v string) error { c.Output.ColorMode = v; return nil }},
	{"OCUPROFILE_OUTPUT_VERBOSE", "enable debug logging",
		func(c *Config, v string) error { return parseBool(v, &c.Output.Verbose) }},
	{"OCUPROFILE_OUTPUT_THEME", "interactive UI theme",
		func(c *Config, v string) error { c.Output.Theme = v; return nil }},
	{"OCUPROFILE_CHARTS_WIDTH", "PNG chart width in pixels",
		func(c *Config, v string) error { return parseInt(v, &c.Charts.Width) }},
	{"OCUPROFILE_CHARTS_HEIGHT", "PNG chart height in pixels",
		func(c *Config, v string) error { return parseInt(v, &c.Charts.Height) }},
	{"OCUPROFILE_CHARTS_DIRECTORY", "default directory for --charts output",
		func(c *Config, v string) error { c.Charts.Directory = v; return nil }},
}

// EnvVariables lists the supported overrides in the order they are applied
func EnvVariables() []EnvVar {
	return append([]EnvVar(nil), envVars...)
}

// LookupEnv returns the value the loader would see for name, and whether it
// came from the .env file rather than the process environment
func (l *Loader) LookupEnv(name string) (value string, fromFile bool) {
	if v := os.Getenv(name); v != "" {
		return v, false
	}
	v := l.lookupEnv()(name)
	return v, v != ""
}

func (l *Loader) applyEnvOverrides(config *Config) error {
	getenv := l.lookupEnv()
	for _, ev := range envVars {
		if value := getenv(ev.Name); value != "" {
			if err := ev.apply(config, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", ev.Name, err)
			}
		}
	}
	return nil
}

func splitExtensions(list string) []string {
	var exts []string
	for _, ext := range strings.Split(list, ",") {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, strings.ToLower(ext))
		}
	}
	return exts
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config.
// Only non-zero values from source overwrite destination.
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeServiceConfig(&dst.Service, &src.Service)
	mergeUploadConfig(&dst.Upload, &src.Upload)
	mergeOutputConfig(&dst.Output, &src.Output)
	mergeChartsConfig(&dst.Charts, &src.Charts)
}

func mergeServiceConfig(dst, src *ServiceConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = strings.TrimRight(src.Endpoint, "/")
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
	if src.RetryDelay != 0 {
		dst.RetryDelay = src.RetryDelay
	}
	if src.UploadField != "" {
		dst.UploadField = src.UploadField
	}
}

func mergeUploadConfig(dst, src *UploadConfig) {
	if len(src.AllowedExtensions) > 0 {
		dst.AllowedExtensions = src.AllowedExtensions
	}
	if src.MaxBytes != 0 {
		dst.MaxBytes = src.MaxBytes
	}
}

func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.Theme != "" {
		dst.Theme = src.Theme
	}
	mergeIfSet(&dst.Verbose, src.Verbose)
}

func mergeChartsConfig(dst, src *ChartsConfig) {
	if src.Width != 0 {
		dst.Width = src.Width
	}
	if src.Height != 0 {
		dst.Height = src.Height
	}
	if src.Directory != "" {
		dst.Directory = src.Directory
	}
}

// mergeIfSet turns a flag on when a file enables it. A file cannot turn a
// flag off that a lower priority source enabled; the environment can.
func mergeIfSet(dst *bool, src bool) {
	if src {
		*dst = true
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseInt64(s string, dst *int64) error {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
