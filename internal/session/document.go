package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/engine/offsets"
	"github.com/dshills/contextview/internal/engine/patch"
	"github.com/dshills/contextview/internal/engine/projection"
	"github.com/dshills/contextview/internal/summarize"
)

// Result describes the effect of one edit batch on a document's projection.
type Result struct {
	// Edit turns the previous projected text into View.Text().
	// It is empty when Rebuilt is set.
	Edit patch.Patch

	// View is the projection after the edit.
	View *projection.View

	// Rebuilt reports that the edit touched an excluded region and the
	// projection was produced again from scratch. Consumers must replace
	// their copy of the projected text instead of applying Edit.
	Rebuilt bool

	// Version is the document version after the edit.
	Version int64
}

// Document is an open document and its current projection.
// Methods are safe for concurrent use; edits are applied one at a time.
type Document struct {
	mu sync.Mutex

	id          uuid.UUID
	transformer *offsets.Transformer
	view        *projection.View
	version     int64

	summarizer summarize.Summarizer
	logger     *app.Logger
	metrics    *app.Metrics
}

func newDocument(ctx context.Context, id uuid.UUID, text string, s summarize.Summarizer, logger *app.Logger, metrics *app.Metrics) (*Document, error) {
	timer := app.StartTimer()
	view, err := summarize.Project(ctx, s, text)
	if err != nil {
		return nil, err
	}
	metrics.RecordRebuild(timer.Elapsed())
	metrics.ObserveSizes(len(view.Original()), len(view.Text()))

	return &Document{
		id:          id,
		transformer: offsets.New(text),
		view:        view,
		summarizer:  s,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// ID returns the document ID.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// View returns the current projection.
func (d *Document) View() *projection.View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Text returns the full document text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transformer.Text()
}

// Version returns the number of edit batches applied so far.
func (d *Document) Version() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Apply applies a batch of line/character edits, all addressed against the
// current text.
func (d *Document) Apply(ctx context.Context, edits []offsets.Edit) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, err := d.transformer.ToPatch(edits)
	if err != nil {
		d.metrics.RecordRejected()
		return Result{}, app.NewOperationError("apply", d.id.String(), err).AtVersion(d.version)
	}
	return d.applyLocked(ctx, p)
}

// ApplyPatch applies a patch over the current full text.
func (d *Document) ApplyPatch(ctx context.Context, p patch.Patch) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applyLocked(ctx, p)
}

func (d *Document) applyLocked(ctx context.Context, p patch.Patch) (Result, error) {
	timer := app.StartTimer()

	rb, ok := d.view.TryRebase(p)
	if err := d.transformer.Apply(p); err != nil {
		d.metrics.RecordRejected()
		return Result{}, app.NewOperationError("apply", d.id.String(), err).AtVersion(d.version)
	}
	d.version++

	if ok {
		d.view = rb.View
		d.metrics.RecordRebase(timer.Elapsed())
		d.metrics.ObserveSizes(len(rb.View.Original()), len(rb.View.Text()))
		d.logger.Debug("rebased %d replacements (version %d)", p.Len(), d.version)
		return Result{Edit: rb.Edit, View: rb.View, Version: d.version}, nil
	}

	d.metrics.RecordConflict()
	d.logger.Debug("edit touches an excluded region, rebuilding (version %d)", d.version)
	err := d.rebuildLocked(ctx)
	return Result{Edit: patch.Identity(), View: d.view, Rebuilt: true, Version: d.version}, err
}

// Rebuild summarizes the current text again and replaces the projection.
func (d *Document) Rebuild(ctx context.Context) (*projection.View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.rebuildLocked(ctx)
	return d.view, err
}

// rebuildLocked replaces the view with a fresh projection. If the summarizer
// fails the view falls back to the full text and the error is returned.
func (d *Document) rebuildLocked(ctx context.Context) error {
	timer := app.StartTimer()
	text := d.transformer.Text()

	view, err := summarize.Project(ctx, d.summarizer, text)
	if err != nil {
		d.logger.Warn("summarizer failed, projecting full text: %v", err)
		view, _ = projection.NewView(text, patch.Identity())
		d.view = view
		return app.NewOperationError("rebuild", d.id.String(), err).AtVersion(d.version)
	}

	d.view = view
	d.metrics.RecordRebuild(timer.Elapsed())
	d.metrics.ObserveSizes(len(view.Original()), len(view.Text()))
	return nil
}
