package apiwrapper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jpalmerr/apiwrapper/internal/xmltree"
)

// ResponseFormat is the body format an API responds with.
//
// The format is selected when the [Client] is constructed and fixed for its
// lifetime. It governs how bodies are parsed, where the completion status is
// located, and which Accept header the poller sends.
type ResponseFormat string

const (
	// FormatJSON parses bodies into generic JSON values. Objects become
	// map[string]any and the status is read from the "Status" or "status" key.
	FormatJSON ResponseFormat = "json"

	// FormatXML parses bodies into an element tree and the status is read
	// from the text of the root's "Status" child.
	FormatXML ResponseFormat = "xml"
)

// ParseResponseFormat converts a case-insensitive name into a [ResponseFormat].
func ParseResponseFormat(s string) (ResponseFormat, error) {
	switch f := ResponseFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatXML:
		return f, nil
	default:
		return "", &ConfigError{Field: "response format", Value: s, Reason: "must be json or xml"}
	}
}

// String returns the format name.
func (f ResponseFormat) String() string {
	return string(f)
}

// MediaType returns the Accept header value for the format,
// "application/json" or "application/xml".
func (f ResponseFormat) MediaType() string {
	return "application/" + string(f)
}

// Valid reports whether f is a supported format.
func (f ResponseFormat) Valid() bool {
	return f == FormatJSON || f == FormatXML
}

// codec is the per-format behaviour. Each format variant implements it once,
// so the dispatcher and poller never branch on the format.
type codec interface {
	parse(body []byte) (any, error)
	status(payload any) (any, bool)
	validationMessages(payload any) []string
}

func (f ResponseFormat) codec() codec {
	if f == FormatXML {
		return xmlCodec{}
	}
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) parse(body []byte) (any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// status prefers "Status" over "status"; a null value counts as absent.
func (jsonCodec) status(payload any) (any, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj["Status"]
	if !ok {
		v = obj["status"]
	}
	if v == nil {
		return nil, false
	}
	return v, true
}

func (jsonCodec) validationMessages(payload any) []string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := obj["ValidationErrors"].([]any)
	if !ok {
		return nil
	}

	var messages []string
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch m := entry["Message"].(type) {
		case nil:
		case string:
			messages = append(messages, m)
		default:
			messages = append(messages, fmt.Sprint(m))
		}
	}
	return messages
}

type xmlCodec struct{}

func (xmlCodec) parse(body []byte) (any, error) {
	return xmltree.Parse(body)
}

// status returns the text of ./Status; a missing or empty element counts as absent.
func (xmlCodec) status(payload any) (any, bool) {
	root, ok := payload.(*xmltree.Node)
	if !ok || root == nil {
		return nil, false
	}
	text, ok := root.FindText("./Status")
	if !ok || text == "" {
		return nil, false
	}
	return text, true
}

func (xmlCodec) validationMessages(payload any) []string {
	root, ok := payload.(*xmltree.Node)
	if !ok || root == nil {
		return nil
	}

	var messages []string
	for _, dto := range root.FindAll("./ValidationErrors/ValidationErrorDto") {
		if msg, ok := dto.FindText("./Message"); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
