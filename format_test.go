package apiwrapper

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseResponseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ResponseFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"XML", FormatXML, false},
		{" Json ", FormatJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResponseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResponseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not match ErrConfiguration", err)
			}
			if got != tt.want {
				t.Errorf("ParseResponseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestJSONCodec_Status(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   any
		wantOK bool
	}{
		{"capitalised key", `{"Status":"UpdatesComplete"}`, "UpdatesComplete", true},
		{"lowercase key", `{"status":"COMPLETE"}`, "COMPLETE", true},
		{"capitalised preferred", `{"Status":"A","status":"B"}`, "A", true},
		{"boolean", `{"status":true}`, true, true},
		{"number", `{"status":1}`, float64(1), true},
		{"null counts as missing", `{"Status":null}`, nil, false},
		{"no status", `{"state":"done"}`, nil, false},
		{"array payload", `[1,2]`, nil, false},
	}

	c := FormatJSON.codec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := c.parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			got, ok := c.status(payload)
			if ok != tt.wantOK {
				t.Fatalf("status() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestXMLCodec_Status(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   any
		wantOK bool
	}{
		{"present", `<Session><Status>UpdatesComplete</Status></Session>`, "UpdatesComplete", true},
		{"whitespace kept", `<S><Status>Pending</Status><Other/></S>`, "Pending", true},
		{"empty element", `<S><Status/></S>`, nil, false},
		{"missing", `<S><State>done</State></S>`, nil, false},
		{"nested only", `<S><Job><Status>x</Status></Job></S>`, nil, false},
	}

	c := FormatXML.codec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := c.parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			got, ok := c.status(payload)
			if ok != tt.wantOK {
				t.Fatalf("status() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodec_ValidationMessages(t *testing.T) {
	tests := []struct {
		name   string
		format ResponseFormat
		body   string
		want   []string
	}{
		{
			name:   "json",
			format: FormatJSON,
			body:   `{"ValidationErrors":[{"ParameterName":"from","Message":"Invalid date"},{"Message":"Unknown market"}]}`,
			want:   []string{"Invalid date", "Unknown market"},
		},
		{
			name:   "json without collection",
			format: FormatJSON,
			body:   `{"error":"bad"}`,
			want:   nil,
		},
		{
			name:   "json skips entries without message",
			format: FormatJSON,
			body:   `{"ValidationErrors":[{"ParameterName":"x"},{"Message":"kept"}]}`,
			want:   []string{"kept"},
		},
		{
			name:   "xml",
			format: FormatXML,
			body: `<ApiResponseDto><ValidationErrors>
				<ValidationErrorDto><Message>Invalid date</Message></ValidationErrorDto>
				<ValidationErrorDto><Message>Unknown market</Message></ValidationErrorDto>
			</ValidationErrors></ApiResponseDto>`,
			want: []string{"Invalid date", "Unknown market"},
		},
		{
			name:   "xml without collection",
			format: FormatXML,
			body:   `<ApiResponseDto/>`,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.format.codec()
			payload, err := c.parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("parse() error = %v", err)
			}
			got := c.validationMessages(payload)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("validationMessages() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMode_Parse(t *testing.T) {
	tests := []struct {
		in      string
		want    ErrorMode
		wantErr bool
	}{
		{"strict", Strict, false},
		{"STRICT", Strict, false},
		{"Graceful", Graceful, false},
		{"ignore", Ignore, false},
		{"", Graceful, false},
		{"lenient", "", true},
		{" strict", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseErrorMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseErrorMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Fatalf("error %T is not *ConfigError", err)
				}
				if ce.Reason != "possible values are: strict, graceful, ignore" {
					t.Errorf("Reason = %q", ce.Reason)
				}
			}
			if got != tt.want {
				t.Errorf("ParseErrorMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
