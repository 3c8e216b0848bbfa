package formatters

import "strings"

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatMermaid OutputFormat = "mermaid"
)

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

var supportedFormats = []OutputFormat{OutputFormatDOT, OutputFormatMermaid}

// ParseOutputFormat matches a user-supplied format name.
func ParseOutputFormat(format string) (OutputFormat, bool) {
	for _, f := range supportedFormats {
		if strings.EqualFold(format, f.String()) {
			return f, true
		}
	}
	return "", false
}

// SupportedFormats returns the format names joined for help and error text.
func SupportedFormats() string {
	names := make([]string, 0, len(supportedFormats))
	for _, f := range supportedFormats {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}
