package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/engine/offsets"
	"github.com/dshills/contextview/internal/session"
)

// ReplayCmd applies recorded edit batches to a file.
//
// The edits file holds a JSON array of batches. Each batch is an array of
// edits addressed against the text as left by the previous batch:
//
//	[[{"range": {"start": {"line": 0, "character": 0},
//	             "end":   {"line": 0, "character": 1}},
//	   "text": "X"}]]
//
// One JSON line is written per batch.
type ReplayCmd struct {
	File  string `arg:"" type:"existingfile" help:"Initial document"`
	Edits string `arg:"" type:"existingfile" help:"JSON file of edit batches"`
	Stats bool   `name:"stats" help:"Print a metrics summary after the last batch"`
}

// Run replays every batch through a session document.
func (c *ReplayCmd) Run(e *env) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(c.Edits)
	if err != nil {
		return err
	}
	batches, err := decodeBatches(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Edits, err)
	}

	m, closeFn, err := newManager(e)
	if err != nil {
		return err
	}
	defer closeFn()

	doc, err := m.Open(e.ctx, string(data))
	if err != nil {
		return err
	}
	defer m.Close(doc.ID())

	for i, batch := range batches {
		res, err := doc.Apply(e.ctx, batch)
		var opErr *app.OperationError
		if err != nil && (!errors.As(err, &opErr) || opErr.Op != "rebuild") {
			return fmt.Errorf("batch %d: %w", i, err)
		}
		line, jerr := resultJSON(i, res, err)
		if jerr != nil {
			return jerr
		}
		if _, err := fmt.Fprintln(e.stdout, line); err != nil {
			return err
		}
	}

	if c.Stats {
		line, err := statsJSON(e.metrics.Snapshot())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.stdout, line)
		return err
	}
	return nil
}

// decodeBatches parses the edits file.
func decodeBatches(data []byte) ([][]offsets.Edit, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("expected an array of batches")
	}

	var batches [][]offsets.Edit
	for i, b := range root.Array() {
		if !b.IsArray() {
			return nil, fmt.Errorf("batch %d: expected an array of edits", i)
		}
		edits := make([]offsets.Edit, 0, len(b.Array()))
		for j, ed := range b.Array() {
			start, err := decodePosition(ed.Get("range.start"))
			if err != nil {
				return nil, fmt.Errorf("batch %d edit %d: range.start: %w", i, j, err)
			}
			end, err := decodePosition(ed.Get("range.end"))
			if err != nil {
				return nil, fmt.Errorf("batch %d edit %d: range.end: %w", i, j, err)
			}
			text := ed.Get("text")
			if text.Exists() && text.Type != gjson.String {
				return nil, fmt.Errorf("batch %d edit %d: text must be a string", i, j)
			}
			edits = append(edits, offsets.Edit{
				Range:   offsets.Range{Start: start, End: end},
				NewText: text.String(),
			})
		}
		batches = append(batches, edits)
	}
	return batches, nil
}

func decodePosition(r gjson.Result) (offsets.Position, error) {
	if !r.IsObject() {
		return offsets.Position{}, errors.New("expected a position object")
	}
	line, char := r.Get("line"), r.Get("character")
	if !isInteger(line) || !isInteger(char) {
		return offsets.Position{}, errors.New("line and character must be integers")
	}
	return offsets.Position{Line: int(line.Int()), Character: int(char.Int())}, nil
}

func isInteger(v gjson.Result) bool {
	return v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0)
}

// resultJSON describes one applied batch. A rebuild carries the whole new
// projected text; a rebase carries only the projected edit.
func resultJSON(batch int, res session.Result, rebuildErr error) (string, error) {
	edit, err := res.Edit.MarshalJSON()
	if err != nil {
		return "", err
	}

	out := "{}"
	set := func(path string, v any) {
		if err == nil {
			out, err = sjson.Set(out, path, v)
		}
	}
	set("batch", batch)
	set("version", res.Version)
	set("rebuilt", res.Rebuilt)
	if err == nil {
		out, err = sjson.SetRaw(out, "edit", string(edit))
	}
	if res.Rebuilt {
		set("text", res.View.Text())
	}
	if rebuildErr != nil {
		set("error", rebuildErr.Error())
	}
	set("projected_len", len(res.View.Text()))
	return out, err
}

func statsJSON(s app.MetricsSnapshot) (string, error) {
	out := `{"stats":{}}`
	var err error
	for _, f := range []struct {
		key string
		val any
	}{
		{"rebases", s.Rebases},
		{"conflicts", s.Conflicts},
		{"rebuilds", s.Rebuilds},
		{"rejected", s.Rejected},
		{"conflict_rate", s.ConflictRate()},
		{"ratio", s.Ratio()},
	} {
		if out, err = sjson.Set(out, "stats."+f.key, f.val); err != nil {
			return "", err
		}
	}
	return out, nil
}
