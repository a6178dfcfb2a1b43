package workflow

import (
	"fmt"

	"github.com/yildizm/ocuprofile/internal/analysis"
)

// Kind identifies a workflow state variant
type Kind int

const (
	KindIdle Kind = iota
	KindFileSelected
	KindSubmitting
	KindSucceeded
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindFileSelected:
		return "file_selected"
	case KindSubmitting:
		return "submitting"
	case KindSucceeded:
		return "succeeded"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is one of Idle, FileSelected, Submitting, Succeeded or Failed.
// Only this package can add variants.
type State interface {
	Kind() Kind
	String() string
	state()
}

// Idle means nothing has been selected yet
type Idle struct{}

// FileSelected holds the file that the next submission will upload
type FileSelected struct {
	File *analysis.Upload
}

// Submitting means the request for File is in flight
type Submitting struct {
	File *analysis.Upload
}

// Succeeded holds a validated result
type Succeeded struct {
	File   *analysis.Upload
	Result *analysis.Result
}

// Failed holds the message shown to the user. Err keeps the underlying
// error for diagnostics.
type Failed struct {
	Message string
	Err     error
}

func (Idle) Kind() Kind         { return KindIdle }
func (FileSelected) Kind() Kind { return KindFileSelected }
func (Submitting) Kind() Kind   { return KindSubmitting }
func (Succeeded) Kind() Kind    { return KindSucceeded }
func (Failed) Kind() Kind       { return KindFailed }

func (Idle) state()         {}
func (FileSelected) state() {}
func (Submitting) state()   {}
func (Succeeded) state()    {}
func (Failed) state()       {}

func (Idle) String() string { return "Idle" }

func (s FileSelected) String() string {
	return fmt.Sprintf("FileSelected(%s)", fileName(s.File))
}

func (s Submitting) String() string {
	return fmt.Sprintf("Submitting(%s)", fileName(s.File))
}

func (s Succeeded) String() string {
	if s.Result == nil {
		return "Succeeded"
	}
	return fmt.Sprintf("Succeeded(%d clusters)", len(s.Result.Clusters))
}

func (s Failed) String() string {
	return fmt.Sprintf("Failed(%s)", s.Message)
}

func fileName(u *analysis.Upload) string {
	if u == nil {
		return ""
	}
	return u.Name
}
