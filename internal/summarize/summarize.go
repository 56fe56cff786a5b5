// Package summarize decides which regions of a document a projection leaves
// out.
//
// A [Summarizer] looks at a full document and returns a deletion-only patch
// whose ranges are the excluded regions. Three implementations exist:
//
//   - [PatternSummarizer] drops whole lines matching regular expressions
//   - [LuaSummarizer] runs a sandboxed Lua script
//   - [Reloader] wraps a Lua script file and reloads it when it changes
//
// [Project] combines a summarizer with the projection package to build the
// initial view of a document.
package summarize

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/contextview/internal/engine/patch"
	"github.com/dshills/contextview/internal/engine/projection"
)

// Errors returned by summarizers.
var (
	// ErrScript indicates a summarizer script failed to load or run.
	ErrScript = errors.New("summarizer script failed")

	// ErrInvalidRange indicates a summarizer produced an inverted range.
	ErrInvalidRange = errors.New("invalid exclusion range")
)

// Summarizer chooses the excluded regions of a document.
type Summarizer interface {
	// Summarize returns a deletion-only patch over text.
	Summarize(ctx context.Context, text string) (patch.Patch, error)
}

// Func adapts a function to the Summarizer interface.
type Func func(ctx context.Context, text string) (patch.Patch, error)

// Summarize calls f.
func (f Func) Summarize(ctx context.Context, text string) (patch.Patch, error) {
	return f(ctx, text)
}

// None excludes nothing; its projection is the whole document.
var None Summarizer = Func(func(context.Context, string) (patch.Patch, error) {
	return patch.Identity(), nil
})

// Project summarizes text and builds its projection.
func Project(ctx context.Context, s Summarizer, text string) (*projection.View, error) {
	exclusions, err := s.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	return projection.NewView(text, exclusions)
}

// Normalize turns arbitrary exclusion ranges over a text of length n into a
// deletion patch. Ranges are clipped to the text, and ranges that overlap or
// touch are merged. Inverted ranges are rejected.
func Normalize(ranges []patch.Range, n int) (patch.Patch, error) {
	clipped := make([]patch.Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Start > r.End {
			return patch.Patch{}, fmt.Errorf("%w: %s", ErrInvalidRange, r)
		}
		r.Start = max(r.Start, 0)
		r.End = min(r.End, n)
		if r.Start < r.End {
			clipped = append(clipped, r)
		}
	}
	slices.SortFunc(clipped, func(a, b patch.Range) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var merged []patch.Range
	for _, r := range clipped {
		if last := len(merged) - 1; last >= 0 && r.Start <= merged[last].End {
			merged[last].End = max(merged[last].End, r.End)
			continue
		}
		merged = append(merged, r)
	}

	reps := make([]patch.Replacement, len(merged))
	for i, r := range merged {
		reps[i] = patch.Delete(r.Start, r.End)
	}
	return patch.New(reps...)
}
