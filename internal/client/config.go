package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

const (
	DefaultEndpoint    = "https://eye-clustering.onrender.com"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = time.Second
	DefaultUploadField = "file"

	analyzePath = "/analyze"
)

// Config configures the analysis service client
type Config struct {
	Endpoint    string        `json:"endpoint"`
	Timeout     time.Duration `json:"timeout"`
	MaxRetries  int           `json:"max_retries"`
	RetryDelay  time.Duration `json:"retry_delay"`
	UploadField string        `json:"upload_field"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
		UploadField: DefaultUploadField,
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return analysis.NewValidationError("endpoint", "", "service endpoint is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return analysis.NewValidationError("endpoint", c.Endpoint, fmt.Sprintf("invalid endpoint: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return analysis.NewValidationError("endpoint", c.Endpoint, "endpoint must use http or https")
	}
	if u.Host == "" {
		return analysis.NewValidationError("endpoint", c.Endpoint, "endpoint must include a host")
	}

	if c.Timeout <= 0 {
		return analysis.NewValidationError("timeout", c.Timeout.String(), "timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return analysis.NewValidationError("max_retries", fmt.Sprint(c.MaxRetries), "max retries cannot be negative")
	}

	if c.RetryDelay < 0 {
		return analysis.NewValidationError("retry_delay", c.RetryDelay.String(), "retry delay cannot be negative")
	}

	if strings.TrimSpace(c.UploadField) == "" {
		return analysis.NewValidationError("upload_field", "", "upload field name is required")
	}

	return nil
}
