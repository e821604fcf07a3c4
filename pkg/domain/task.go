package domain

import (
	"encoding"
	"fmt"
	"strings"
)

// Format is the file suffix of a supported model encoding.
type Format string

const (
	FormatSBMLGzip Format = ".xml.gz"
	FormatSBML     Format = ".xml"
	FormatJSON     Format = ".json"
	FormatMAT      Format = ".mat"
)

// DefaultFormat is used when no format is configured.
const DefaultFormat = FormatSBMLGzip

var (
	_ encoding.TextMarshaler = Format("")
	_ encoding.TextMarshaler = Outcome("")
)

func (f Format) MarshalText() ([]byte, error) { return []byte(string(f)), nil }

// Formats returns the supported model encodings.
func Formats() []Format {
	return []Format{FormatSBMLGzip, FormatSBML, FormatJSON, FormatMAT}
}

// ParseFormat accepts a suffix with or without the leading dot ("xml.gz", ".mat").
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFormat, nil
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported file format %q (use .xml.gz, .xml, .json or .mat)", s)
}

// Task is one unit of work: a model file and the base path of its two artifacts.
type Task struct {
	ID         string `json:"id"`
	Input      string `json:"input"`
	OutputBase string `json:"outputBase"`
	Format     Format `json:"format"`
}

// Results is the path of the machine-readable results artifact.
func (t Task) Results() string { return t.OutputBase + ".json" }

// Report is the path of the human-readable report artifact.
func (t Task) Report() string { return t.OutputBase + ".html" }
