package formatter

import (
	"encoding/json"
	"io"
)

// JSONFormatter prints indented JSON, or one line per document with
// FormatOptions.Compact.
type JSONFormatter struct{ structured }

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{structured{
		name:        "json",
		description: "JSON documents for scripting",
		encode:      encodeJSON,
	}}
}

func encodeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
