package apiwrapper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/apiwrapper/internal/xmltree"
)

const pollURL = "https://api.example.com/v1/sessions/abc"

// noWait removes the poll sleeps so tests run fast.
var noWait = []PollOption{WithInitialDelay(0), WithDelay(0)}

func pollOpts(extra ...PollOption) []PollOption {
	return append(append([]PollOption(nil), noWait...), extra...)
}

func TestPoll_CompletesOnNthResponse(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON,
		scripted{body: `{"Status":"Pending"}`},
		scripted{body: `{"Status":"Pending"}`},
		scripted{body: `{"Status":"COMPLETE","Itineraries":[1,2]}`},
	)

	result, err := client.Poll(context.Background(), pollURL, pollOpts(WithMaxTries(5))...)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if ft.calls() != 3 {
		t.Errorf("calls = %d, want 3", ft.calls())
	}
	status, _ := result.Status()
	if status != "COMPLETE" {
		t.Errorf("status = %v, want COMPLETE", status)
	}
}

func TestPoll_SendsAcceptHeaderAndParams(t *testing.T) {
	tests := []struct {
		format ResponseFormat
		body   string
		accept string
	}{
		{FormatJSON, `{"status":true}`, "application/json"},
		{FormatXML, `<S><Status>UpdatesComplete</Status></S>`, "application/xml"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			client, ft, _ := newTestClient(t, tt.format, scripted{body: tt.body})

			_, err := client.Poll(context.Background(), pollURL, pollOpts(
				WithPollParam("apiKey", "secret"),
				WithPollParams(map[string]any{"pageIndex": 0}),
			)...)
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}

			req := ft.request(0)
			if req.Headers["Accept"] != tt.accept {
				t.Errorf("Accept = %q, want %q", req.Headers["Accept"], tt.accept)
			}
			if req.Method != "GET" {
				t.Errorf("Method = %q, want GET", req.Method)
			}
			if req.Params.Get("apiKey") != "secret" || req.Params.Get("pageIndex") != "0" {
				t.Errorf("Params = %v", req.Params)
			}
		})
	}
}

func TestPoll_SendsHeadersOnEveryAttempt(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatXML,
		scripted{body: `<S><Status>Pending</Status></S>`},
		scripted{body: `<S><Status>UpdatesComplete</Status></S>`},
	)

	_, err := client.Poll(context.Background(), pollURL, pollOpts(
		WithPollHeader("X-Api-Key", "k"),
		WithPollHeaders("X-Trace", "1", "Accept", "text/plain"),
	)...)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	if ft.calls() != 2 {
		t.Fatalf("calls = %d, want 2", ft.calls())
	}
	for i := 0; i < ft.calls(); i++ {
		h := ft.request(i).Headers
		if h["X-Api-Key"] != "k" || h["X-Trace"] != "1" {
			t.Errorf("attempt %d headers = %v", i+1, h)
		}
		if h["Accept"] != "application/xml" {
			t.Errorf("attempt %d Accept = %q, want application/xml", i+1, h["Accept"])
		}
	}
}

func TestPoll_Exhausted(t *testing.T) {
	tests := []struct {
		mode       string
		wantErr    bool
		wantResult bool
	}{
		{"strict", true, false},
		{"graceful", false, true},
		{"ignore", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			client, ft, _ := newTestClient(t, FormatJSON,
				scripted{body: `{"Status":"Pending","n":1}`},
				scripted{body: `{"Status":"Pending","n":2}`},
				scripted{body: `{"Status":"Pending","n":3}`},
				scripted{body: `{"Status":"Pending","n":4}`},
			)

			result, err := client.Poll(context.Background(), pollURL, pollOpts(
				WithMaxTries(4),
				WithPollErrorMode(tt.mode),
			)...)

			if ft.calls() != 4 {
				t.Errorf("calls = %d, want 4", ft.calls())
			}
			if tt.wantErr {
				var ee *ExceededRetriesError
				if !errors.As(err, &ee) {
					t.Fatalf("Poll() error = %v, want *ExceededRetriesError", err)
				}
				if ee.Tries != 4 {
					t.Errorf("Tries = %d, want 4", ee.Tries)
				}
				if !errors.Is(err, ErrExceededRetries) {
					t.Error("error should match ErrExceededRetries")
				}
				return
			}
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			obj := result.Payload.(map[string]any)
			if obj["n"] != float64(4) {
				t.Errorf("returned result n = %v, want the last one (4)", obj["n"])
			}
		})
	}
}

func TestPoll_DispatchErrorAbortsImmediately(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON,
		scripted{body: `{"Status":"Pending"}`},
		scripted{status: 500, body: `{}`},
		scripted{body: `{"Status":"COMPLETE"}`},
	)

	_, err := client.Poll(context.Background(), pollURL, pollOpts(WithPollErrorMode("graceful"))...)
	if !IsHTTPStatus(err, 500) {
		t.Fatalf("Poll() error = %v, want 500 *HTTPError", err)
	}
	if ft.calls() != 2 {
		t.Errorf("calls = %d, want 2", ft.calls())
	}
}

func TestPoll_GracefulRetriesThroughTransientFailures(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON,
		scripted{status: 200},
		scripted{status: 429},
		scripted{status: 429, body: `{"Status":"Pending"}`},
		scripted{body: `{"Status":"UpdatesComplete"}`},
	)

	result, err := client.Poll(context.Background(), pollURL, pollOpts(WithPollErrorMode("graceful"))...)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if ft.calls() != 4 {
		t.Errorf("calls = %d, want 4", ft.calls())
	}
	if status, _ := result.Status(); status != "UpdatesComplete" {
		t.Errorf("status = %v", status)
	}
}

func TestPoll_StrictEmptyResponseAborts(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON,
		scripted{status: 200},
		scripted{body: `{"Status":"COMPLETE"}`},
	)

	_, err := client.Poll(context.Background(), pollURL, noWait...)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Poll() error = %v, want ErrEmptyResponse", err)
	}
	if ft.calls() != 1 {
		t.Errorf("calls = %d, want 1", ft.calls())
	}
}

func TestPoll_MissingStatusFails(t *testing.T) {
	client, _, _ := newTestClient(t, FormatJSON, scripted{body: `{"state":"done"}`})

	_, err := client.Poll(context.Background(), pollURL, pollOpts(WithPollErrorMode("ignore"))...)
	if !errors.Is(err, ErrMissingStatus) {
		t.Fatalf("Poll() error = %v, want ErrMissingStatus", err)
	}
}

func TestPoll_CustomCompletion(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON,
		scripted{body: `{"job":{"state":"running"}}`},
		scripted{body: `{"job":{"state":"done"}}`},
	)

	_, err := client.Poll(context.Background(), pollURL, pollOpts(
		WithCompletion(JSONFieldIn("job.state", "done")),
	)...)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if ft.calls() != 2 {
		t.Errorf("calls = %d, want 2", ft.calls())
	}
}

func TestPoll_PredicateErrorAborts(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON, scripted{body: `{}`})
	boom := errors.New("boom")

	_, err := client.Poll(context.Background(), pollURL, pollOpts(
		WithCompletion(func(*Result) (bool, error) { return false, boom }),
	)...)
	if !errors.Is(err, boom) {
		t.Fatalf("Poll() error = %v, want boom", err)
	}
	if ft.calls() != 1 {
		t.Errorf("calls = %d, want 1", ft.calls())
	}
}

func TestPoll_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts []PollOption
	}{
		{"unknown mode", pollURL, []PollOption{WithPollErrorMode("STRICTER")}},
		{"zero tries", pollURL, []PollOption{WithMaxTries(0)}},
		{"negative delay", pollURL, []PollOption{WithDelay(-time.Second)}},
		{"negative initial delay", pollURL, []PollOption{WithInitialDelay(-time.Second)}},
		{"nil predicate", pollURL, []PollOption{WithCompletion(nil)}},
		{"empty param name", pollURL, []PollOption{WithPollParam("", 1)}},
		{"empty header name", pollURL, []PollOption{WithPollHeader("", "v")}},
		{"odd header pairs", pollURL, []PollOption{WithPollHeaders("X-Api-Key")}},
		{"relative url", "sessions/abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, ft, _ := newTestClient(t, FormatJSON, scripted{body: `{"Status":"COMPLETE"}`})

			if _, err := client.Poll(context.Background(), tt.url, tt.opts...); err == nil {
				t.Error("Poll() expected error, got nil")
			}
			if ft.calls() != 0 {
				t.Errorf("calls = %d, want 0", ft.calls())
			}
		})
	}
}

func TestPoll_UppercaseModeAccepted(t *testing.T) {
	client, _, _ := newTestClient(t, FormatJSON, scripted{body: `{"Status":"Pending"}`})

	_, err := client.Poll(context.Background(), pollURL, pollOpts(
		WithMaxTries(1),
		WithPollErrorMode("STRICT"),
	)...)
	if !errors.Is(err, ErrExceededRetries) {
		t.Fatalf("Poll() error = %v, want ErrExceededRetries", err)
	}
}

func TestPoll_Timing(t *testing.T) {
	client, _, _ := newTestClient(t, FormatJSON, scripted{body: `{"Status":"Pending"}`})

	initial := 30 * time.Millisecond
	delay := 10 * time.Millisecond
	tries := 3

	start := time.Now()
	_, err := client.Poll(context.Background(), pollURL,
		WithInitialDelay(initial),
		WithDelay(delay),
		WithMaxTries(tries),
		WithPollErrorMode("graceful"),
	)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	lower := initial + time.Duration(tries-1)*delay
	if elapsed < lower {
		t.Errorf("elapsed = %v, want at least %v", elapsed, lower)
	}
}

func TestPoll_ContextCancelledDuringSleep(t *testing.T) {
	client, ft, _ := newTestClient(t, FormatJSON, scripted{body: `{"Status":"Pending"}`})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Poll(ctx, pollURL, WithInitialDelay(0), WithDelay(time.Hour))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Poll() error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Poll() did not return promptly after cancellation")
	}
	if ft.calls() != 1 {
		t.Errorf("calls = %d, want 1", ft.calls())
	}
}

func TestPoll_LogsPollID(t *testing.T) {
	client, _, logs := newTestClient(t, FormatJSON, scripted{body: `{"Status":"COMPLETE"}`})

	if _, err := client.Poll(context.Background(), pollURL, noWait...); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !strings.Contains(logs.String(), "poll_id=") {
		t.Errorf("logs missing poll_id: %s", logs.String())
	}
}

func TestSleep(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("sleep(0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleep() on cancelled ctx error = %v, want context.Canceled", err)
	}
}

func TestPoll_XMLDeclaredCharset(t *testing.T) {
	const (
		pending  = "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><PollSessionResponseDto><Status>UpdatesPending</Status></PollSessionResponseDto>"
		complete = "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><PollSessionResponseDto><Status>UpdatesComplete</Status><Agent>Caf\xe9</Agent></PollSessionResponseDto>"
	)

	for _, mode := range []string{"strict", "graceful"} {
		t.Run(mode, func(t *testing.T) {
			client, ft, _ := newTestClient(t, FormatXML,
				scripted{body: pending},
				scripted{body: complete},
			)

			result, err := client.Poll(context.Background(), pollURL,
				pollOpts(WithMaxTries(3), WithPollErrorMode(mode))...)
			if err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			if ft.calls() != 2 {
				t.Errorf("calls = %d, want 2", ft.calls())
			}
			root, ok := result.Payload.(*xmltree.Node)
			if !ok {
				t.Fatalf("Payload = %T, want *xmltree.Node", result.Payload)
			}
			if agent, _ := root.FindText("./Agent"); agent != "Café" {
				t.Errorf("Agent = %q, want Café", agent)
			}
		})
	}
}
