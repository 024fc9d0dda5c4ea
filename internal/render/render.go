// Package render formats a Solution for external consumption: a colored
// console table, JSON, or the Tables/Schedule/Slice XML schema.
package render

import (
	"fmt"
	"io"

	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
)

// Format names an output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatRaw, FormatJSON, FormatXML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Render writes the solution to w in the requested format.
func Render(w io.Writer, sol *schedule.Solution, f Format) error {
	switch f {
	case FormatJSON:
		return renderJSON(w, sol)
	case FormatXML:
		return renderXML(w, sol)
	default:
		return renderRaw(w, sol)
	}
}
