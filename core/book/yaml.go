package book

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlBook struct {
	Name     string        `yaml:"name"`
	Defaults defaultsEntry `yaml:"defaults"`
	Options  []entry       `yaml:"options"`
}

// ParseYAML parses a book written in YAML. JSON books are read by the same
// decoder since JSON is a subset of YAML.
func ParseYAML(src []byte, filename string, base Defaults) (*Book, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc yamlBook
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty document", ErrInvalidBook, filename)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBook, filename, err)
	}

	return assemble(doc.Name, filename, base, doc.Defaults, doc.Options)
}
