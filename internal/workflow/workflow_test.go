package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/yildizm/ocuprofile/internal/analysis"
	"github.com/yildizm/ocuprofile/internal/client"
	"github.com/yildizm/ocuprofile/internal/shaper"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const scenarioBody = `{
  "total_records": 150,
  "num_clusters": 3,
  "features": ["AL", "ACD", "WTW", "K1", "K2"],
  "clusters": [
    {"count": 50, "percentage": 33.3,
     "AL": {"mean": 22.1, "std": 0.5, "min": 21, "max": 23},
     "ACD": {"mean": 2.9, "std": 0.3, "min": 2.2, "max": 3.4},
     "WTW": {"mean": 11.6, "std": 0.4, "min": 10.9, "max": 12.3},
     "K1": {"mean": 43.8, "std": 1.2, "min": 41.5, "max": 46.0},
     "K2": {"mean": 44.9, "std": 1.3, "min": 42.4, "max": 47.2}},
    {"count": 60, "percentage": 40.0,
     "AL": {"mean": 23.4, "std": 0.6, "min": 22.3, "max": 24.6},
     "ACD": {"mean": 3.2, "std": 0.3, "min": 2.6, "max": 3.8},
     "WTW": {"mean": 11.9, "std": 0.4, "min": 11.1, "max": 12.6},
     "K1": {"mean": 43.1, "std": 1.1, "min": 40.8, "max": 45.2},
     "K2": {"mean": 44.2, "std": 1.2, "min": 41.9, "max": 46.5}},
    {"count": 40, "percentage": 26.7,
     "AL": {"mean": 25.3, "std": 0.9, "min": 24.0, "max": 27.8},
     "ACD": {"mean": 3.6, "std": 0.3, "min": 3.0, "max": 4.1},
     "WTW": {"mean": 12.1, "std": 0.4, "min": 11.4, "max": 12.9},
     "K1": {"mean": 42.6, "std": 1.3, "min": 40.1, "max": 45.0},
     "K2": {"mean": 43.7, "std": 1.4, "min": 41.0, "max": 46.3}}
  ]
}`

// fakeAnalyzer blocks until release is closed when release is set
type fakeAnalyzer struct {
	calls   int32
	release chan struct{}
	raw     interface{}
	err     error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, upload *analysis.Upload) (interface{}, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.raw, f.err
}

func (f *fakeAnalyzer) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

func upload(t *testing.T, name, content string) *analysis.Upload {
	t.Helper()
	u, err := analysis.NewUpload(name, []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func minimalResult() map[string]interface{} {
	return map[string]interface{}{
		"total_records": 1,
		"num_clusters":  1,
		"features":      []interface{}{"AL"},
		"clusters": []interface{}{
			map[string]interface{}{
				"count":      1,
				"percentage": 100,
				"AL":         map[string]interface{}{"mean": 23, "std": 0, "min": 23, "max": 23},
			},
		},
	}
}

func serverClient(t *testing.T, handler http.HandlerFunc) (*client.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := client.DefaultConfig()
	cfg.Endpoint = server.URL
	cfg.MaxRetries = 0
	c, err := client.New(cfg, client.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c, server
}

func TestSelectFileTransitions(t *testing.T) {
	w := New(&fakeAnalyzer{raw: minimalResult()})
	if w.State().Kind() != KindIdle {
		t.Fatalf("initial state = %s", w.State())
	}

	first := upload(t, "a.xlsx", "1")
	if err := w.SelectFile(first); err != nil {
		t.Fatal(err)
	}
	s, ok := w.State().(FileSelected)
	if !ok || s.File != first {
		t.Fatalf("state = %s, want FileSelected(a.xlsx)", w.State())
	}

	second := upload(t, "b.xlsx", "2")
	if err := w.SelectFile(second); err != nil {
		t.Fatal(err)
	}
	if s := w.State().(FileSelected); s.File != second {
		t.Errorf("selection not replaced: %s", w.State())
	}
}

func TestSelectFileRejectsEmpty(t *testing.T) {
	w := New(&fakeAnalyzer{})
	if err := w.SelectFile(nil); !analysis.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if err := w.SelectFile(&analysis.Upload{Name: "x.xlsx"}); !analysis.IsValidationError(err) {
		t.Errorf("expected validation error for empty content, got %v", err)
	}
	if w.State().Kind() != KindIdle {
		t.Errorf("state changed to %s", w.State())
	}
}

func TestSelectSameFileIsIdempotent(t *testing.T) {
	w := New(&fakeAnalyzer{})
	var transitions int
	w.OnTransition(func(from, to State) { transitions++ })

	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}
	before := w.State()
	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}

	if transitions != 1 {
		t.Errorf("expected 1 transition, got %d", transitions)
	}
	if w.State().(FileSelected).File != before.(FileSelected).File {
		t.Error("reselecting the same file replaced the selection")
	}
}

func TestSubmitWithoutFile(t *testing.T) {
	fake := &fakeAnalyzer{}
	w := New(fake)

	state, err := w.Submit(context.Background())
	if !analysis.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if analysis.UserMessage(err) != "Por favor, selecione um arquivo primeiro." {
		t.Errorf("message = %q", analysis.UserMessage(err))
	}
	if state.Kind() != KindIdle {
		t.Errorf("state = %s, want Idle", state)
	}
	if fake.Calls() != 0 {
		t.Errorf("expected no network call, got %d", fake.Calls())
	}
}

func TestDoubleSubmitIssuesOneRequest(t *testing.T) {
	fake := &fakeAnalyzer{release: make(chan struct{}), raw: minimalResult()}
	w := New(fake)
	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}

	sub, err := w.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan State)
	go func() { done <- sub.Await() }()

	if _, err := w.Start(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("second Start() error = %v, want ErrSubmissionInFlight", err)
	}
	if _, err := w.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("Submit() while submitting error = %v", err)
	}
	if err := w.SelectFile(upload(t, "b.xlsx", "2")); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("SelectFile() while submitting error = %v", err)
	}
	if w.State().Kind() != KindSubmitting {
		t.Errorf("state = %s, want Submitting", w.State())
	}

	close(fake.release)
	final := <-done

	if final.Kind() != KindSucceeded {
		t.Errorf("final = %s", final)
	}
	if fake.Calls() != 1 {
		t.Errorf("expected exactly one request, got %d", fake.Calls())
	}
	if again := sub.Await(); again != final {
		t.Errorf("second Await() = %s", again)
	}
	if fake.Calls() != 1 {
		t.Errorf("second Await() issued a request")
	}
}

func TestStartedSubmissionFinishesWithoutAwait(t *testing.T) {
	w := New(&fakeAnalyzer{raw: minimalResult()})
	finished := make(chan State, 1)
	w.OnTransition(func(_, to State) {
		if to.Kind() == KindSucceeded || to.Kind() == KindFailed {
			finished <- to
		}
	})
	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-finished:
		if s.Kind() != KindSucceeded {
			t.Errorf("outcome = %s", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("workflow stayed in Submitting")
	}
	if err := w.SelectFile(upload(t, "b.xlsx", "2")); err != nil {
		t.Errorf("SelectFile() after an unawaited submission = %v", err)
	}
}

func TestConcurrentSubmit(t *testing.T) {
	fake := &fakeAnalyzer{release: make(chan struct{}), raw: minimalResult()}
	w := New(fake)
	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}

	var (
		wg       sync.WaitGroup
		accepted int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.Submit(context.Background()); err == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}()
	}

	// Hold the accepted request until it reaches the analyzer.
	deadline := time.Now().Add(2 * time.Second)
	for fake.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(fake.release)
	wg.Wait()

	if fake.Calls() != 1 || accepted != 1 {
		t.Errorf("calls = %d accepted = %d, want 1 and 1", fake.Calls(), accepted)
	}
}

func TestRestartAfterOutcome(t *testing.T) {
	fake := &fakeAnalyzer{err: analysis.NewServiceError(400, "Formato inválido")}
	w := New(fake)
	_ = w.SelectFile(upload(t, "a.xlsx", "1"))

	state, err := w.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.Kind() != KindFailed {
		t.Fatalf("state = %s", state)
	}

	if _, err := w.Submit(context.Background()); !analysis.IsValidationError(err) {
		t.Errorf("submit from Failed should need a new selection, got %v", err)
	}

	fake.err, fake.raw = nil, minimalResult()
	if err := w.SelectFile(upload(t, "a.xlsx", "1")); err != nil {
		t.Fatal(err)
	}
	if w.State().Kind() != KindFileSelected {
		t.Errorf("Failed + SelectFile = %s", w.State())
	}
	state, _ = w.Submit(context.Background())
	if state.Kind() != KindSucceeded {
		t.Errorf("retry state = %s", state)
	}

	if err := w.SelectFile(upload(t, "b.xlsx", "2")); err != nil || w.State().Kind() != KindFileSelected {
		t.Errorf("Succeeded + SelectFile = %s (%v)", w.State(), err)
	}
}

func TestInvalidResponseFails(t *testing.T) {
	raw := minimalResult()
	raw["num_clusters"] = 2
	w := New(&fakeAnalyzer{raw: raw})
	_ = w.SelectFile(upload(t, "a.xlsx", "1"))

	state, _ := w.Submit(context.Background())
	failed, ok := state.(Failed)
	if !ok {
		t.Fatalf("state = %s", state)
	}
	if failed.Message != analysis.MsgProcessingFailed {
		t.Errorf("message = %q", failed.Message)
	}
	if !analysis.IsSchemaError(failed.Err) {
		t.Errorf("cause = %v, want schema error", failed.Err)
	}
}

func TestCancelledSubmission(t *testing.T) {
	fake := &fakeAnalyzer{release: make(chan struct{})}
	w := New(fake)
	_ = w.SelectFile(upload(t, "a.xlsx", "1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := w.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	failed, ok := state.(Failed)
	if !ok || failed.Message != analysis.MsgCancelled {
		t.Errorf("state = %s", state)
	}
	if !analysis.IsTransportError(failed.Err) {
		t.Errorf("cause = %v", failed.Err)
	}
}

func TestListenersSeeEveryTransition(t *testing.T) {
	w := New(&fakeAnalyzer{raw: minimalResult()})
	var kinds []Kind
	w.OnTransition(func(from, to State) {
		kinds = append(kinds, to.Kind())
		if w.State().Kind() != to.Kind() {
			t.Errorf("listener saw stale state")
		}
	})

	_ = w.SelectFile(upload(t, "a.xlsx", "1"))
	_, _ = w.Submit(context.Background())

	want := []Kind{KindFileSelected, KindSubmitting, KindSucceeded}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    Kind
		wantMessage string
	}{
		{name: "B valid result", status: http.StatusOK, body: scenarioBody, wantKind: KindSucceeded},
		{name: "C service detail", status: http.StatusBadRequest, body: `{"detail": "Formato inválido"}`, wantKind: KindFailed, wantMessage: "Formato inválido"},
		{name: "D cluster count mismatch", status: http.StatusOK, body: `{"total_records": 10, "num_clusters": 3, "features": ["AL"], "clusters": []}`, wantKind: KindFailed, wantMessage: analysis.MsgProcessingFailed},
		{name: "gateway page", status: http.StatusInternalServerError, body: "<html>oops</html>", wantKind: KindFailed, wantMessage: analysis.MsgProcessingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := serverClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			w := New(c)
			if err := w.SelectFile(upload(t, "biometria.xlsx", "PK")); err != nil {
				t.Fatal(err)
			}

			state, err := w.Submit(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if state.Kind() != tt.wantKind {
				t.Fatalf("state = %s, want %s", state, tt.wantKind)
			}

			switch s := state.(type) {
			case Succeeded:
				if got := len(shaper.DistributionSeries(s.Result)); got != 3 {
					t.Errorf("distribution has %d entries", got)
				}
				radar := shaper.RadarSeries(s.Result)
				if len(radar) != 5 {
					t.Errorf("radar has %d entries", len(radar))
				}
				for _, p := range radar {
					if len(p.Values) != 3 {
						t.Errorf("axis %s has %d values", p.Axis, len(p.Values))
					}
				}
			case Failed:
				if s.Message != tt.wantMessage {
					t.Errorf("message = %q, want %q", s.Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestScenarioTransportFailure(t *testing.T) {
	c, server := serverClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	w := New(c)
	_ = w.SelectFile(upload(t, "biometria.xlsx", "PK"))
	state, _ := w.Submit(context.Background())

	failed, ok := state.(Failed)
	if !ok || failed.Message != analysis.MsgTransportFailed {
		t.Errorf("state = %s", state)
	}
}
