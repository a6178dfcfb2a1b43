package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/ocuprofile/internal/report"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Format(rep *report.Report) ([]byte, error)
}

// Names lists the supported output formats
var Names = []string{"text", "json", "markdown", "csv"}

// New returns the formatter registered under name
func New(name string, color bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text", "terminal":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: %s)", name, strings.Join(Names, ", "))
	}
}
