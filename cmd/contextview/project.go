package main

import (
	"fmt"
	"os"

	"github.com/tidwall/sjson"

	"github.com/dshills/contextview/internal/engine/projection"
)

// ProjectCmd prints the projection of a file.
type ProjectCmd struct {
	File string `arg:"" type:"existingfile" help:"File to project"`
	Map  bool   `name:"map" help:"Print the segment map as JSON instead of the projected text"`
}

// Run summarizes the file and writes its projection.
func (c *ProjectCmd) Run(e *env) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
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
	view := doc.View()
	e.logger.Info("projected %s: %d of %d bytes kept", c.File, len(view.Text()), len(view.Original()))

	if !c.Map {
		_, err = fmt.Fprint(e.stdout, view.Text())
		return err
	}
	out, err := segmentMap(view)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, out)
	return err
}

// segmentMap describes a view's kept segments as JSON.
func segmentMap(v *projection.View) (string, error) {
	out := `{"segments":[]}`
	var err error
	if out, err = sjson.Set(out, "original_len", len(v.Original())); err != nil {
		return "", err
	}
	if out, err = sjson.Set(out, "projected_len", len(v.Text())); err != nil {
		return "", err
	}
	for i, seg := range v.Segments() {
		prefix := fmt.Sprintf("segments.%d.", i)
		fields := []struct {
			key string
			val int
		}{
			{"original.start", seg.Original.Start},
			{"original.end", seg.Original.End},
			{"projected.start", seg.Projected.Start},
			{"projected.end", seg.Projected.End},
		}
		for _, f := range fields {
			if out, err = sjson.Set(out, prefix+f.key, f.val); err != nil {
				return "", err
			}
		}
	}
	return out, nil
}
