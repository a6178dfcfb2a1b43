package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolatedLoader reads only files under dir
func isolatedLoader(dir string) *Loader {
	return &Loader{
		configPaths: []string{
			filepath.Join(dir, "project.yaml"),
			filepath.Join(dir, "user.yaml"),
			filepath.Join(dir, "system.yaml"),
		},
		envFile: filepath.Join(dir, ".env"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
	if loader.envFile != DefaultEnvFile {
		t.Errorf("Expected env file %s, got %s", DefaultEnvFile, loader.envFile)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := isolatedLoader(t.TempDir()).LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Service.Endpoint != DefaultConfig().Service.Endpoint {
		t.Errorf("Expected default endpoint, got %s", cfg.Service.Endpoint)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default output format text, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	writeFile(t, configPath, `version: "1.0"
service:
  endpoint: "http://localhost:8000"
  timeout: 15s
  upload_field: "planilha"
upload:
  allowed_extensions: [".xlsx"]
output:
  default_format: "json"
  verbose: true
charts:
  width: 640
`)

	cfg, err := (&Loader{}).LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.Service.Endpoint != "http://localhost:8000" {
		t.Errorf("Expected endpoint from file, got %s", cfg.Service.Endpoint)
	}
	if cfg.Service.Timeout != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", cfg.Service.Timeout)
	}
	if cfg.Service.UploadField != "planilha" {
		t.Errorf("Expected upload field planilha, got %s", cfg.Service.UploadField)
	}
	if len(cfg.Upload.AllowedExtensions) != 1 {
		t.Errorf("Expected 1 extension, got %v", cfg.Upload.AllowedExtensions)
	}
	if cfg.Output.DefaultFormat != "json" || !cfg.Output.Verbose {
		t.Errorf("Unexpected output section: %+v", cfg.Output)
	}
	if cfg.Charts.Width != 640 || cfg.Charts.Height != 768 {
		t.Errorf("Unexpected charts section: %+v", cfg.Charts)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	loader := isolatedLoader(dir)

	writeFile(t, filepath.Join(dir, "system.yaml"), `service:
  endpoint: "http://system:8000"
  timeout: 5s
output:
  theme: dark
`)
	writeFile(t, filepath.Join(dir, "user.yaml"), `service:
  endpoint: "http://user:8000"
`)
	writeFile(t, filepath.Join(dir, "project.yaml"), `output:
  default_format: markdown
`)
	writeFile(t, filepath.Join(dir, ".env"), "OCUPROFILE_SERVICE_TIMEOUT=9s\nOCUPROFILE_OUTPUT_THEME=light\n")
	t.Setenv("OCUPROFILE_OUTPUT_THEME", "minimal")

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Service.Endpoint != "http://user:8000" {
		t.Errorf("User file should override system file, got %s", cfg.Service.Endpoint)
	}
	if cfg.Output.DefaultFormat != "markdown" {
		t.Errorf("Project file should apply, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Service.Timeout != 9*time.Second {
		t.Errorf(".env should override files, got %v", cfg.Service.Timeout)
	}
	if cfg.Output.Theme != "minimal" {
		t.Errorf("Environment should override .env, got %s", cfg.Output.Theme)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid-config.yaml")
	writeFile(t, configPath, "service:\n  endpoint: [unclosed\n")

	_, err := (&Loader{}).LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, but got none")
	}
}

func TestLoadConfigInvalidValue(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, configPath, "output:\n  default_format: pdf\n")

	_, err := (&Loader{}).LoadConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("Expected validation failure, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	envVars := map[string]string{
		"OCUPROFILE_SERVICE_ENDPOINT":          "http://127.0.0.1:8000",
		"OCUPROFILE_SERVICE_MAX_RETRIES":       "0",
		"OCUPROFILE_SERVICE_RETRY_DELAY":       "250ms",
		"OCUPROFILE_UPLOAD_MAX_BYTES":          "1024",
		"OCUPROFILE_UPLOAD_ALLOWED_EXTENSIONS": ".XLSX, .xls ,",
		"OCUPROFILE_OUTPUT_VERBOSE":            "true",
		"OCUPROFILE_CHARTS_DIRECTORY":          "graficos",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg := DefaultConfig()
	if err := isolatedLoader(t.TempDir()).applyEnvOverrides(cfg); err != nil {
		t.Fatalf("Failed to apply env overrides: %v", err)
	}

	if cfg.Service.Endpoint != "http://127.0.0.1:8000" {
		t.Errorf("Expected endpoint override, got %s", cfg.Service.Endpoint)
	}
	if cfg.Service.MaxRetries != 0 {
		t.Errorf("Expected max retries 0, got %d", cfg.Service.MaxRetries)
	}
	if cfg.Service.RetryDelay != 250*time.Millisecond {
		t.Errorf("Expected retry delay 250ms, got %v", cfg.Service.RetryDelay)
	}
	if cfg.Upload.MaxBytes != 1024 {
		t.Errorf("Expected max bytes 1024, got %d", cfg.Upload.MaxBytes)
	}
	expected := []string{".xlsx", ".xls"}
	if strings.Join(cfg.Upload.AllowedExtensions, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected extensions %v, got %v", expected, cfg.Upload.AllowedExtensions)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	if cfg.Charts.Directory != "graficos" {
		t.Errorf("Expected charts directory graficos, got %s", cfg.Charts.Directory)
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid int", "OCUPROFILE_SERVICE_MAX_RETRIES", "not-a-number"},
		{"invalid int64", "OCUPROFILE_UPLOAD_MAX_BYTES", "20MB"},
		{"invalid bool", "OCUPROFILE_OUTPUT_VERBOSE", "not-a-bool"},
		{"invalid duration", "OCUPROFILE_SERVICE_TIMEOUT", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)

			err := isolatedLoader(t.TempDir()).applyEnvOverrides(DefaultConfig())
			if err == nil {
				t.Error("Expected error for invalid env var value, but got none")
			} else if !strings.Contains(err.Error(), tt.envVar) {
				t.Errorf("Expected error to name %s, got %v", tt.envVar, err)
			}
		})
	}
}

func TestEnvVariables(t *testing.T) {
	vars := EnvVariables()
	seen := make(map[string]bool)
	for _, ev := range vars {
		if !strings.HasPrefix(ev.Name, "OCUPROFILE_") {
			t.Errorf("unexpected variable name %s", ev.Name)
		}
		if ev.Description == "" {
			t.Errorf("%s has no description", ev.Name)
		}
		if seen[ev.Name] {
			t.Errorf("%s listed twice", ev.Name)
		}
		seen[ev.Name] = true
	}
	if !seen["OCUPROFILE_SERVICE_ENDPOINT"] || !seen["OCUPROFILE_UPLOAD_ALLOWED_EXTENSIONS"] {
		t.Error("expected service endpoint and allowed extensions overrides")
	}

	vars[0].Name = "changed"
	if EnvVariables()[0].Name == "changed" {
		t.Error("EnvVariables should return a copy")
	}
}

func TestLoaderLookupEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "OCUPROFILE_CHARTS_WIDTH=640\nOCUPROFILE_CHARTS_HEIGHT=480\n")
	loader := isolatedLoader(dir)
	t.Setenv("OCUPROFILE_CHARTS_WIDTH", "")
	t.Setenv("OCUPROFILE_CHARTS_HEIGHT", "500")
	t.Setenv("OCUPROFILE_CHARTS_DIRECTORY", "")

	if v, fromFile := loader.LookupEnv("OCUPROFILE_CHARTS_WIDTH"); v != "640" || !fromFile {
		t.Errorf("width = %q (from file %v), want 640 from .env", v, fromFile)
	}
	if v, fromFile := loader.LookupEnv("OCUPROFILE_CHARTS_HEIGHT"); v != "500" || fromFile {
		t.Errorf("height = %q (from file %v), want 500 from process env", v, fromFile)
	}
	if v, _ := loader.LookupEnv("OCUPROFILE_CHARTS_DIRECTORY"); v != "" {
		t.Errorf("unset variable = %q", v)
	}
}

func TestParseHelpers(t *testing.T) {
	var d time.Duration
	if err := parseDuration("30s", &d); err != nil || d != 30*time.Second {
		t.Errorf("parseDuration = %v, %v", d, err)
	}
	if err := parseDuration("soon", &d); err == nil {
		t.Error("Expected error for invalid duration")
	}

	var n int
	if err := parseInt("42", &n); err != nil || n != 42 {
		t.Errorf("parseInt = %d, %v", n, err)
	}
	if err := parseInt("4.2", &n); err == nil {
		t.Error("Expected error for invalid int")
	}

	var n64 int64
	if err := parseInt64("20971520", &n64); err != nil || n64 != 20971520 {
		t.Errorf("parseInt64 = %d, %v", n64, err)
	}

	var b bool
	if err := parseBool("true", &b); err != nil || !b {
		t.Errorf("parseBool = %v, %v", b, err)
	}
	if err := parseBool("yes please", &b); err == nil {
		t.Error("Expected error for invalid bool")
	}
}

func TestFindConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	writeFile(t, ".ocuprofile.yaml", "version: \"1.0\"\n")

	configPath, found := FindConfigFile()
	if !found {
		t.Fatal("Expected config file to be found, but none was found")
	}
	if configPath != "./.ocuprofile.yaml" {
		t.Errorf("Expected config path ./.ocuprofile.yaml, got %s", configPath)
	}
}

func TestFileExists(t *testing.T) {
	if fileExists("/path/that/does/not/exist") {
		t.Error("Expected file to not exist, but fileExists returned true")
	}

	tempFile := filepath.Join(t.TempDir(), "test-file")
	writeFile(t, tempFile, "test")
	if !fileExists(tempFile) {
		t.Error("Expected file to exist, but fileExists returned false")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{name: "valid yaml file", path: "config.yaml"},
		{name: "valid yml file", path: "config.yml"},
		{name: "path traversal attempt", path: "../../../etc/ocuprofile.yaml", wantErr: true, errMsg: "path traversal not allowed"},
		{name: "non-yaml file", path: "config.txt", wantErr: true, errMsg: "config file must have .yaml or .yml extension"},
		{name: "procfs", path: "/proc/self/environ.yaml", wantErr: true, errMsg: "access to system files not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}
