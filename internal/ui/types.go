package ui

import (
	"context"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/workflow"
)

// View represents different UI views
type View int

const (
	ViewPicker View = iota
	ViewSubmitting
	ViewResults
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewPicker:
		return "picker"
	case ViewSubmitting:
		return "submitting"
	case ViewResults:
		return "results"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Options configures the TUI
type Options struct {
	// Workflow performs the submissions. Required.
	Workflow *workflow.Workflow

	// Upload restricts the files offered by the picker and LoadUpload
	Upload analysis.LoadOptions

	// StartDir is where the picker opens; the working directory when empty
	StartDir string

	// Initial is selected and submitted right away when set
	Initial *analysis.Upload

	Context context.Context
}
