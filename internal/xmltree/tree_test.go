package xmltree

import (
	"strings"
	"testing"
)

const pollDoc = `<?xml version="1.0" encoding="utf-8"?>
<PollSessionResponseDto xmlns="http://example.com/api">
  <SessionKey>abc-123</SessionKey>
  <Status>UpdatesComplete</Status>
  <ValidationErrors>
    <ValidationErrorDto><ParameterName>From</ParameterName><Message>From is required</Message></ValidationErrorDto>
    <ValidationErrorDto><ParameterName>To</ParameterName><Message>To is required</Message></ValidationErrorDto>
  </ValidationErrors>
</PollSessionResponseDto>`

func TestParse_Root(t *testing.T) {
	root, err := Parse([]byte(pollDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Name != "PollSessionResponseDto" {
		t.Errorf("root.Name = %q, want %q", root.Name, "PollSessionResponseDto")
	}
	if len(root.Children) != 3 {
		t.Errorf("len(root.Children) = %d, want 3", len(root.Children))
	}
}

func TestNode_FindText(t *testing.T) {
	root, err := Parse([]byte(pollDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"./Status", "UpdatesComplete", true},
		{"Status", "UpdatesComplete", true},
		{"SessionKey", "abc-123", true},
		{"./ValidationErrors/ValidationErrorDto/Message", "From is required", true},
		{"./Missing", "", false},
		{"Status/Deeper", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := root.FindText(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("FindText(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FindText(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNode_FindAll(t *testing.T) {
	root, err := Parse([]byte(pollDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	dtos := root.FindAll("./ValidationErrors/ValidationErrorDto")
	if len(dtos) != 2 {
		t.Fatalf("FindAll() returned %d nodes, want 2", len(dtos))
	}
	if msg, _ := dtos[1].FindText("./Message"); msg != "To is required" {
		t.Errorf("second message = %q, want %q", msg, "To is required")
	}

	if all := root.FindAll("*"); len(all) != 3 {
		t.Errorf("FindAll(*) returned %d nodes, want 3", len(all))
	}
}

func TestNode_FindSelf(t *testing.T) {
	root, err := Parse([]byte(`<a><b/></a>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Find(".") != root {
		t.Error(`Find(".") should return the node itself`)
	}
}

func TestNode_NilSafe(t *testing.T) {
	var n *Node
	if n.Find("x") != nil {
		t.Error("Find on nil node should return nil")
	}
}

func TestParse_Attributes(t *testing.T) {
	root, err := Parse([]byte(`<Result code="7" ok="true">done</Result>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Attrs["code"] != "7" {
		t.Errorf(`Attrs["code"] = %q, want "7"`, root.Attrs["code"])
	}
	if root.Text != "done" {
		t.Errorf("Text = %q, want %q", root.Text, "done")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"not xml", `{"status": "ok"}`},
		{"unclosed", `<Status>COMPLETE`},
		{"mismatched", `<a><b></a></b>`},
		{"two roots", `<a/><b/>`},
		{"trailing text", `<a/>junk`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tt.data)
			}
		})
	}
}

func TestParse_DeclaredCharset(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     string
	}{
		// 0xE9 is "é" in both encodings
		{"iso-8859-1", "ISO-8859-1", []byte{'C', 'a', 'f', 0xE9}, "Café"},
		{"windows-1252", "windows-1252", []byte{'C', 'a', 'f', 0xE9, ' ', 0x80}, "Café €"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := []byte(`<?xml version="1.0" encoding="` + tt.encoding + `"?><Root><Status>UpdatesComplete</Status><Agent>`)
			doc = append(doc, tt.body...)
			doc = append(doc, "</Agent></Root>"...)

			root, err := Parse(doc)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got, _ := root.FindText("./Status"); got != "UpdatesComplete" {
				t.Errorf("Status = %q, want UpdatesComplete", got)
			}
			if got, _ := root.FindText("./Agent"); got != tt.want {
				t.Errorf("Agent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_UnknownCharset(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0" encoding="no-such-charset"?><Root/>`))
	if err == nil {
		t.Fatal("Parse() expected error for unknown encoding, got nil")
	}
}

func TestParse_ErrorPrefix(t *testing.T) {
	_, err := Parse([]byte(`<a><b></a></b>`))
	if err == nil {
		t.Fatal("Parse() expected error, got nil")
	}
	if strings.Contains(err.Error(), "xml: xml:") {
		t.Errorf("error repeats its prefix: %v", err)
	}
}
