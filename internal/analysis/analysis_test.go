package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", ErrNoFileSelected(), MsgNoFileSelected},
		{"service detail verbatim", NewServiceError(400, "Formato inválido"), "Formato inválido"},
		{"service without detail", NewServiceError(500, "  "), MsgProcessingFailed},
		{"wrapped service", fmt.Errorf("analyze: %w", NewServiceError(422, "Colunas ausentes")), "Colunas ausentes"},
		{"transport", NewTransportError(errors.New("dial tcp")), MsgTransportFailed},
		{"schema hidden", NewSchemaError("clusters", "length 2 does not match num_clusters 3"), MsgProcessingFailed},
		{"unknown", errors.New("weird"), MsgProcessingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	transport := fmt.Errorf("submit: %w", NewTransportError(cause))

	if !IsTransportError(transport) {
		t.Error("expected transport error")
	}
	if !errors.Is(transport, cause) {
		t.Error("transport error should unwrap to its cause")
	}
	if IsServiceError(transport) || IsSchemaError(transport) || IsValidationError(transport) {
		t.Error("transport error matched another kind")
	}
	if !IsSchemaError(NewSchemaError("features", "empty")) {
		t.Error("expected schema error")
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	err := NewSchemaError("clusters[1].AL", "min %v greater than mean %v", 3.0, 2.0)
	want := "schema error at clusters[1].AL: min 3 greater than mean 2"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestNewUploadRejectsEmpty(t *testing.T) {
	if _, err := NewUpload("eyes.xlsx", nil); !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := NewUpload("", []byte("x")); !IsValidationError(err) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestLoadUpload(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "biometria.xlsx")
	if err := os.WriteFile(good, []byte("PK\x03\x04data"), 0o600); err != nil {
		t.Fatal(err)
	}
	csvFile := filepath.Join(dir, "biometria.csv")
	if err := os.WriteFile(csvFile, []byte("a,b"), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "vazio.xls")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		opts    LoadOptions
		wantErr bool
	}{
		{name: "valid spreadsheet", path: good},
		{name: "empty path", path: "", wantErr: true},
		{name: "wrong extension", path: csvFile, wantErr: true},
		{name: "custom extension allowed", path: csvFile, opts: LoadOptions{AllowedExtensions: []string{".CSV"}}},
		{name: "empty file", path: empty, wantErr: true},
		{name: "too large", path: good, opts: LoadOptions{MaxBytes: 2}, wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "nope.xlsx"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload, err := LoadUpload(tt.path, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadUpload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && upload.Size() == 0 {
				t.Error("expected content")
			}
		})
	}
}

func TestUploadSame(t *testing.T) {
	a := &Upload{Name: "a.xlsx", Content: []byte("1")}
	b := &Upload{Name: "a.xlsx", Content: []byte("1")}
	c := &Upload{Name: "a.xlsx", Content: []byte("2")}
	d := &Upload{Name: "b.xlsx", Content: []byte("1")}

	if !a.Same(b) {
		t.Error("expected equal uploads to be the same")
	}
	if a.Same(c) {
		t.Error("different content must not be the same")
	}
	if a.Same(d) {
		t.Error("different names must not be the same")
	}
	if a.Same(nil) {
		t.Error("nil upload must not be the same")
	}
	if a.Checksum() != b.Checksum() {
		t.Error("checksums differ for equal content")
	}
}

func TestClusterStatMarshalFlattens(t *testing.T) {
	freq := 87.5
	c := ClusterStat{
		Count:      50,
		Percentage: 33.3,
		Features: map[string]FeatureSummary{
			"AL": {Mean: 22.1, Std: 0.5, Min: 21, Max: 23},
		},
		CorrectFrequency: &freq,
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["count"].(float64) != 50 {
		t.Errorf("count = %v", decoded["count"])
	}
	al, ok := decoded["AL"].(map[string]interface{})
	if !ok || al["mean"].(float64) != 22.1 {
		t.Errorf("AL not flattened: %v", decoded)
	}
	if decoded["correct_frequency"].(float64) != 87.5 {
		t.Errorf("correct_frequency = %v", decoded["correct_frequency"])
	}
}
