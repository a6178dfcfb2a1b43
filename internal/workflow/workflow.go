// Package workflow holds the upload and analysis state machine. It is the
// only place that owns mutable analysis state and the only caller of the
// analysis service.
package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/logger"
	"github.com/yildizm/ocuprofile/internal/schema"
)

// ErrSubmissionInFlight is returned for any request made while Submitting
var ErrSubmissionInFlight = errors.New("an analysis is already in progress")

// Analyzer is the external analysis boundary. It returns the decoded
// response body, which the workflow validates before trusting it.
type Analyzer interface {
	Analyze(ctx context.Context, upload *analysis.Upload) (interface{}, error)
}

// Listener observes transitions. It is called outside the workflow lock.
type Listener func(from, to State)

// Option customizes a Workflow
type Option func(*Workflow)

// WithLogger logs every transition at debug level
func WithLogger(l *logger.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.log = l.WithComponent("workflow")
		}
	}
}

// Workflow is safe for concurrent use
type Workflow struct {
	analyzer Analyzer
	log      *logger.Logger

	mu        sync.Mutex
	state     State
	inflight  *Submission
	listeners []Listener
}

func New(analyzer Analyzer, opts ...Option) *Workflow {
	w := &Workflow{
		analyzer: analyzer,
		state:    Idle{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// OnTransition registers a listener
func (w *Workflow) OnTransition(l Listener) {
	if l == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// SelectFile makes upload the current selection, clearing any previous
// result or error. Selecting the file already selected changes nothing.
func (w *Workflow) SelectFile(upload *analysis.Upload) error {
	if upload == nil || upload.Size() == 0 {
		return analysis.ErrNoFileSelected()
	}

	w.mu.Lock()
	switch s := w.state.(type) {
	case Submitting:
		w.mu.Unlock()
		return ErrSubmissionInFlight
	case FileSelected:
		if s.File.Same(upload) {
			w.mu.Unlock()
			return nil
		}
	}
	from, listeners := w.transitionLocked(FileSelected{File: upload})
	w.mu.Unlock()

	w.log.DebugWithFields("file selected", []logger.Field{
		logger.File(upload.Name),
		logger.F("sha256", upload.Checksum()[:12]),
	})

	w.notify(listeners, from, FileSelected{File: upload})
	return nil
}

// Start moves FileSelected to Submitting and launches the request in the
// background under ctx. The workflow leaves Submitting when the request
// finishes, whether or not anyone waits on the returned submission.
func (w *Workflow) Start(ctx context.Context) (*Submission, error) {
	w.mu.Lock()
	switch s := w.state.(type) {
	case Submitting:
		w.mu.Unlock()
		w.log.Debug("submit ignored, request in flight")
		return nil, ErrSubmissionInFlight
	case FileSelected:
		sub := &Submission{workflow: w, file: s.File, done: make(chan struct{})}
		next := Submitting{File: s.File}
		w.inflight = sub
		from, listeners := w.transitionLocked(next)
		w.mu.Unlock()

		w.notify(listeners, from, next)
		go sub.run(ctx)
		return sub, nil
	default:
		w.mu.Unlock()
		return nil, analysis.ErrNoFileSelected()
	}
}

// Submit starts a submission and waits for its outcome. Rejected submits
// return the unchanged state and the rejection error.
func (w *Workflow) Submit(ctx context.Context) (State, error) {
	sub, err := w.Start(ctx)
	if err != nil {
		return w.State(), err
	}
	return sub.Await(), nil
}

func (w *Workflow) transitionLocked(next State) (State, []Listener) {
	from := w.state
	w.state = next
	w.log.DebugWithFields("transition", []logger.Field{
		logger.F("from", from.String()),
		logger.State(next),
	})
	return from, append([]Listener(nil), w.listeners...)
}

func (w *Workflow) notify(listeners []Listener, from, to State) {
	for _, l := range listeners {
		l(from, to)
	}
}

func (w *Workflow) finish(sub *Submission, outcome State) {
	w.mu.Lock()
	if w.inflight != sub {
		w.mu.Unlock()
		return
	}
	w.inflight = nil
	from, listeners := w.transitionLocked(outcome)
	w.mu.Unlock()

	w.notify(listeners, from, outcome)
}

// Submission is one in-flight analysis request
type Submission struct {
	workflow *Workflow
	file     *analysis.Upload

	done    chan struct{}
	outcome State
}

// File returns the upload being analyzed
func (s *Submission) File() *analysis.Upload {
	return s.file
}

// Done is closed once the outcome has been applied to the workflow
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Await blocks until the request finishes and returns its outcome. It may
// be called any number of times.
func (s *Submission) Await() State {
	<-s.done
	return s.outcome
}

func (s *Submission) run(ctx context.Context) {
	s.outcome = s.execute(ctx)
	s.workflow.finish(s, s.outcome)
	close(s.done)
}

// execute issues the request and validates the response
func (s *Submission) execute(ctx context.Context) State {
	log := s.workflow.log.With(logger.File(s.file.Name))
	start := time.Now()

	raw, err := s.workflow.analyzer.Analyze(ctx, s.file)
	if err == nil {
		var result *analysis.Result
		if result, err = schema.Validate(raw); err == nil {
			log.InfoWithFields("analysis succeeded", []logger.Field{
				logger.Count(len(result.Clusters)),
				logger.Duration(time.Since(start)),
			})
			return Succeeded{File: s.file, Result: result}
		}
	}

	if !analysis.IsTransportError(err) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		err = analysis.NewCancelledError(err)
	}

	log.WarnWithFields("analysis failed", []logger.Field{logger.Error(err), logger.Duration(time.Since(start))})
	return Failed{Message: analysis.UserMessage(err), Err: err}
}
