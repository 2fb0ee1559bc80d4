package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter prints YAML with two-space indentation.
type YAMLFormatter struct{ structured }

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{structured{
		name:        "yaml",
		description: "YAML documents",
		encode:      encodeYAML,
	}}
}

func encodeYAML(w io.Writer, v any, _ bool) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	return enc.Encode(v)
}
