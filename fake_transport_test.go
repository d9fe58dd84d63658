package apiwrapper

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
)

// scripted is one canned answer of fakeTransport.
type scripted struct {
	status int
	body   string
	header http.Header
	err    error
}

// fakeTransport answers requests from a script and records them. Once the
// script runs out the last entry repeats.
type fakeTransport struct {
	mu     sync.Mutex
	script []scripted
	reqs   []*Request
}

func newFakeTransport(script ...scripted) *fakeTransport {
	return &fakeTransport{script: script}
}

func (f *fakeTransport) Do(_ context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.reqs)
	f.reqs = append(f.reqs, req)
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	s := f.script[idx]
	if s.err != nil {
		return nil, s.err
	}

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	header := s.header
	if header == nil {
		header = make(http.Header)
	}
	return &Response{
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       []byte(s.body),
	}, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeTransport) request(i int) *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[i]
}

// newTestClient builds a client over the scripted transport with logs
// captured in the returned buffer.
func newTestClient(t *testing.T, format ResponseFormat, script ...scripted) (*Client, *fakeTransport, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ft := newFakeTransport(script...)

	client, err := New(
		WithResponseFormat(format),
		WithTransport(ft),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client, ft, &buf
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
