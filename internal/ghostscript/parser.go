package ghostscript

import (
	"fmt"
	"regexp"
)

// PageMarkerPattern matches the progress line ghostscript prints each time it
// finishes writing a page, e.g. "Page 3". The engine prints nothing that
// states a total, so the number of pages written is the number of markers.
const PageMarkerPattern = `(?m)^Page\s+\d+\s*$`

// SplitOutputParser recovers how many pages a split invocation wrote from its
// combined output. The count is advisory: it bounds which page files are
// looked for on disk, it does not prove they exist.
type SplitOutputParser struct {
	marker *regexp.Regexp
}

// DefaultSplitOutputParser counts PageMarkerPattern lines.
var DefaultSplitOutputParser = &SplitOutputParser{marker: regexp.MustCompile(PageMarkerPattern)}

// NewSplitOutputParser builds a parser for a custom per-page marker.
func NewSplitOutputParser(pattern string) (*SplitOutputParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid page marker pattern %q: %w", pattern, err)
	}
	return &SplitOutputParser{marker: re}, nil
}

// Count returns the number of per-page markers in output, 0 when there are
// none.
func (p *SplitOutputParser) Count(output string) int {
	return len(p.marker.FindAllStringIndex(output, -1))
}

// ParseSplitOutput counts markers with DefaultSplitOutputParser.
func ParseSplitOutput(output string) int {
	return DefaultSplitOutputParser.Count(output)
}
