package apiwrapper

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	client, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	if client.Format() != FormatJSON {
		t.Errorf("Format() = %v, want %v", client.Format(), FormatJSON)
	}
	if client.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want %v", client.timeout, 30*time.Second)
	}
	if !client.verify {
		t.Error("verify = false, want true")
	}
	if client.limiter != nil {
		t.Error("limiter should be nil without WithRateLimit")
	}
	if _, ok := client.transport.(*httpTransport); !ok {
		t.Errorf("transport = %T, want *httpTransport", client.transport)
	}
}

func TestNew_WithOptions(t *testing.T) {
	ft := newFakeTransport(scripted{body: "{}"})

	client, err := New(
		WithResponseFormat(FormatXML),
		WithTransport(ft),
		WithLogger(discardLogger()),
		WithTimeout(5*time.Second),
		WithTLSVerification(false),
		WithRateLimit(10, 2),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Format() != FormatXML {
		t.Errorf("Format() = %v, want %v", client.Format(), FormatXML)
	}
	if client.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", client.timeout, 5*time.Second)
	}
	if client.verify {
		t.Error("verify = true, want false")
	}
	if client.limiter == nil {
		t.Fatal("limiter is nil")
	}
	if client.limiter.Burst() != 2 {
		t.Errorf("limiter.Burst() = %d, want 2", client.limiter.Burst())
	}
	if client.transport != Transport(ft) {
		t.Error("transport was not replaced")
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"unknown format", WithResponseFormat("yaml")},
		{"nil logger", WithLogger(nil)},
		{"nil transport", WithTransport(nil)},
		{"nil http client", WithHTTPClient(nil)},
		{"zero timeout", WithTimeout(0)},
		{"negative timeout", WithTimeout(-time.Second)},
		{"zero rate", WithRateLimit(0, 1)},
		{"zero burst", WithRateLimit(1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestWithResponseFormat_ConfigError(t *testing.T) {
	_, err := New(WithResponseFormat("csv"))
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("errors.Is(err, ErrConfiguration) = false for %v", err)
	}
}

func TestNew_WithHTTPClient(t *testing.T) {
	client, err := New(WithHTTPClient(&http.Client{Timeout: time.Second}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	if _, ok := client.transport.(*httpTransport); !ok {
		t.Errorf("transport = %T, want *httpTransport", client.transport)
	}
}

func TestClient_Headers(t *testing.T) {
	tests := []struct {
		format ResponseFormat
		want   string
	}{
		{FormatJSON, "application/json"},
		{FormatXML, "application/xml"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			client, err := New(WithResponseFormat(tt.format), WithTransport(newFakeTransport()))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			h := client.Headers()
			if h["Accept"] != tt.want {
				t.Errorf("Headers()[Accept] = %q, want %q", h["Accept"], tt.want)
			}

			// callers may mutate the map freely
			h["Accept"] = "text/plain"
			if client.Headers()["Accept"] != tt.want {
				t.Error("Headers() returned shared map")
			}
		})
	}
}

type closingTransport struct {
	fakeTransport
	closed bool
}

func (c *closingTransport) Close() { c.closed = true }

func TestClient_Close(t *testing.T) {
	ct := &closingTransport{}
	client, err := New(WithTransport(ct))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	client.Close()
	if !ct.closed {
		t.Error("Close() did not close the transport")
	}

	// transports without Close are left alone
	plain, _ := New(WithTransport(newFakeTransport()))
	plain.Close()
}
