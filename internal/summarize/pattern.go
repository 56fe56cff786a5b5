package summarize

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dshills/contextview/internal/engine/offsets"
	"github.com/dshills/contextview/internal/engine/patch"
)

// PatternSummarizer excludes every line whose content matches one of its
// patterns. An excluded line takes its terminator with it.
type PatternSummarizer struct {
	patterns []*regexp.Regexp
}

// NewPatternSummarizer compiles the given regular expressions.
func NewPatternSummarizer(patterns ...string) (*PatternSummarizer, error) {
	s := &PatternSummarizer{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, re)
	}
	return s, nil
}

// Summarize implements Summarizer.
func (s *PatternSummarizer) Summarize(ctx context.Context, text string) (patch.Patch, error) {
	if len(s.patterns) == 0 {
		return patch.Identity(), nil
	}

	t := offsets.New(text)
	var ranges []patch.Range
	for line := 0; line < t.LineCount(); line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return patch.Patch{}, err
			}
		}
		if !s.matches(t.Line(line)) {
			continue
		}
		start := t.Offset(offsets.Position{Line: line})
		end := t.Len()
		if line+1 < t.LineCount() {
			end = t.Offset(offsets.Position{Line: line + 1})
		}
		ranges = append(ranges, patch.NewRange(start, end))
	}
	return Normalize(ranges, len(text))
}

func (s *PatternSummarizer) matches(line string) bool {
	for _, re := range s.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
