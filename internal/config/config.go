package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/client"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Service ServiceConfig `yaml:"service" json:"service"`
	Upload  UploadConfig  `yaml:"upload" json:"upload"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Charts  ChartsConfig  `yaml:"charts" json:"charts"`
}

// ServiceConfig configures the remote analysis service
type ServiceConfig struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint"`         // base URL, /analyze is appended
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`           // per-attempt timeout
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`   // retries after the first attempt
	RetryDelay  time.Duration `yaml:"retry_delay" json:"retry_delay"`   // base backoff delay
	UploadField string        `yaml:"upload_field" json:"upload_field"` // multipart field name
}

// UploadConfig restricts which spreadsheets can be submitted
type UploadConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions" json:"allowed_extensions"`
	MaxBytes          int64    `yaml:"max_bytes" json:"max_bytes"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	Theme         string `yaml:"theme" json:"theme"` // default|dark|light|minimal
}

// ChartsConfig configures rendered chart files
type ChartsConfig struct {
	Width     int    `yaml:"width" json:"width"`
	Height    int    `yaml:"height" json:"height"`
	Directory string `yaml:"directory" json:"directory"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	svc := client.DefaultConfig()
	return &Config{
		Version: "1.0",
		Service: ServiceConfig{
			Endpoint:    svc.Endpoint,
			Timeout:     svc.Timeout,
			MaxRetries:  svc.MaxRetries,
			RetryDelay:  svc.RetryDelay,
			UploadField: svc.UploadField,
		},
		Upload: UploadConfig{
			AllowedExtensions: append([]string(nil), analysis.DefaultAllowedExtensions...),
			MaxBytes:          analysis.DefaultMaxUploadBytes,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
			Theme:         "default",
		},
		Charts: ChartsConfig{
			Width:     1024,
			Height:    768,
			Directory: "",
		},
	}
}

// ClientConfig converts the service section for the analysis client
func (c *Config) ClientConfig() *client.Config {
	return &client.Config{
		Endpoint:    c.Service.Endpoint,
		Timeout:     c.Service.Timeout,
		MaxRetries:  c.Service.MaxRetries,
		RetryDelay:  c.Service.RetryDelay,
		UploadField: c.Service.UploadField,
	}
}

// UploadOptions converts the upload section for analysis.LoadUpload
func (c *Config) UploadOptions() analysis.LoadOptions {
	return analysis.LoadOptions{
		AllowedExtensions: c.Upload.AllowedExtensions,
		MaxBytes:          c.Upload.MaxBytes,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServiceConfig(); err != nil {
		return err
	}
	if err := c.validateUploadConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateChartsConfig(); err != nil {
		return err
	}
	return nil
}

// validateServiceConfig validates the analysis service section
func (c *Config) validateServiceConfig() error {
	if c.Service.Endpoint != "" {
		u, err := url.Parse(c.Service.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid service endpoint: %s (must be an http or https URL)", c.Service.Endpoint)
		}
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if c.Service.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.Service.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}
	return nil
}

// validateUploadConfig validates the upload section
func (c *Config) validateUploadConfig() error {
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid allowed extension: %q (must start with a dot)", ext)
		}
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("max_bytes must be non-negative")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	if c.Output.Theme != "" {
		validThemes := map[string]bool{
			"default": true,
			"dark":    true,
			"light":   true,
			"minimal": true,
		}
		if !validThemes[c.Output.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, dark, light, minimal)", c.Output.Theme)
		}
	}
	return nil
}

// validateChartsConfig validates chart rendering sizes
func (c *Config) validateChartsConfig() error {
	if c.Charts.Width < 0 || c.Charts.Height < 0 {
		return fmt.Errorf("chart width and height must be non-negative")
	}
	if c.Charts.Width > 8192 || c.Charts.Height > 8192 {
		return fmt.Errorf("chart width and height must not exceed 8192")
	}
	return nil
}
