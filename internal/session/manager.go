// Package session keeps live documents together with their projections.
//
// A [Document] owns the full text of one document and the projected view
// handed to the external consumer. Edits against the full text are rebased
// onto the projection when they stay clear of excluded regions; otherwise
// the document is summarized again and a fresh projection is produced.
package session

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/summarize"
)

// Session errors.
var (
	// ErrDocumentNotFound indicates no open document has the given ID.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrTooManyDocuments indicates the document limit has been reached.
	ErrTooManyDocuments = errors.New("too many open documents")
)

// Manager tracks open documents by ID.
type Manager struct {
	mu      sync.RWMutex
	docs    map[uuid.UUID]*Document
	maxDocs int

	summarizer summarize.Summarizer
	logger     *app.Logger
	metrics    *app.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *app.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics sink shared by all documents.
func WithMetrics(metrics *app.Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithMaxDocuments limits the number of open documents. Zero means no limit.
func WithMaxDocuments(n int) Option {
	return func(m *Manager) {
		m.maxDocs = n
	}
}

// NewManager creates a manager that summarizes documents with s.
// A nil summarizer excludes nothing.
func NewManager(s summarize.Summarizer, opts ...Option) *Manager {
	if s == nil {
		s = summarize.None
	}
	m := &Manager{
		docs:       make(map[uuid.UUID]*Document),
		summarizer: s,
		logger:     app.NewNopLogger(),
		metrics:    app.NewMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithComponent("session")
	return m
}

// Open summarizes text and starts tracking it as a new document.
func (m *Manager) Open(ctx context.Context, text string) (*Document, error) {
	m.mu.RLock()
	full := m.maxDocs > 0 && len(m.docs) >= m.maxDocs
	m.mu.RUnlock()
	if full {
		return nil, ErrTooManyDocuments
	}

	id := uuid.New()
	doc, err := newDocument(ctx, id, text, m.summarizer, m.logger.WithField("doc", id.String()), m.metrics)
	if err != nil {
		return nil, app.NewOperationError("open", id.String(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check: summarizing happens outside the lock.
	if m.maxDocs > 0 && len(m.docs) >= m.maxDocs {
		return nil, ErrTooManyDocuments
	}
	m.docs[id] = doc
	m.logger.Debug("opened document %s (%d bytes)", id, len(text))
	return doc, nil
}

// Get returns the document with the given ID.
func (m *Manager) Get(id uuid.UUID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Close stops tracking a document.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(m.docs, id)
	m.logger.Debug("closed document %s", id)
	return nil
}

// Len returns the number of open documents.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// IDs returns the IDs of all open documents in a stable order.
func (m *Manager) IDs() []uuid.UUID {
	m.mu.RLock()
	ids := make([]uuid.UUID, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// Metrics returns the metrics sink.
func (m *Manager) Metrics() *app.Metrics {
	return m.metrics
}
