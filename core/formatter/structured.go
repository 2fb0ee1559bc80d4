package formatter

import "io"

// listDocument is the body of a structured list.
type listDocument struct {
	Kind  string           `json:"kind" yaml:"kind"`
	Count int              `json:"count" yaml:"count"`
	Data  []map[string]any `json:"data" yaml:"data"`
}

// recordDocument is the body of a structured single record.
type recordDocument struct {
	Kind string         `json:"kind" yaml:"kind"`
	Data map[string]any `json:"data" yaml:"data"`
}

type errorDocument struct {
	Error string `json:"error" yaml:"error"`
}

// encodeFunc writes v to w. compact is a hint; encoders without a compact
// form ignore it.
type encodeFunc func(w io.Writer, v any, compact bool) error

// structured renders listings as kind/count/data documents through an
// encoder. JSON and YAML only differ in the encoder.
type structured struct {
	name        string
	description string
	encode      encodeFunc
}

func (s *structured) Name() string        { return s.name }
func (s *structured) Description() string { return s.description }

// FormatList writes {kind, count, data}. An empty list keeps data as [].
func (s *structured) FormatList(w io.Writer, l Listing, records []map[string]any, opts FormatOptions) error {
	data := projectAll(records, opts.Columns)
	return s.encode(w, listDocument{Kind: l.Name, Count: len(data), Data: data}, opts.Compact)
}

// FormatRecord writes {kind, data}; a nil record encodes data as null.
func (s *structured) FormatRecord(w io.Writer, l Listing, record map[string]any, opts FormatOptions) error {
	return s.encode(w, recordDocument{Kind: l.Name, Data: project(record, opts.Columns)}, opts.Compact)
}

func (s *structured) FormatError(w io.Writer, err error) error {
	return s.encode(w, errorDocument{Error: err.Error()}, false)
}
