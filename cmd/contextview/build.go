package main

import (
	"fmt"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/config"
	"github.com/dshills/contextview/internal/session"
	"github.com/dshills/contextview/internal/summarize"
)

// newSummarizer builds the configured summarizer. The returned close
// function releases any file watcher and is never nil.
func newSummarizer(cfg config.SummarizerConfig, logger *app.Logger) (summarize.Summarizer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Kind {
	case config.SummarizerNone, "":
		return summarize.None, noop, nil

	case config.SummarizerPattern:
		s, err := summarize.NewPatternSummarizer(cfg.Patterns...)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case config.SummarizerLua:
		opts := []summarize.LuaOption{
			summarize.WithEntryPoint(cfg.EntryPoint),
			summarize.WithTimeout(cfg.Timeout()),
		}
		if cfg.Watch {
			r, err := summarize.NewReloader(cfg.Script, logger, opts...)
			if err != nil {
				return nil, nil, err
			}
			return r, r.Close, nil
		}
		s, err := summarize.LoadLuaSummarizer(cfg.Script, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
	return nil, nil, fmt.Errorf("%w: summarizer kind %q", config.ErrInvalidConfig, cfg.Kind)
}

// newManager builds a session manager from the configuration.
func newManager(e *env) (*session.Manager, func() error, error) {
	s, closeFn, err := newSummarizer(e.cfg.Summarizer, e.logger)
	if err != nil {
		return nil, nil, err
	}
	m := session.NewManager(s,
		session.WithLogger(e.logger),
		session.WithMetrics(e.metrics),
		session.WithMaxDocuments(e.cfg.Session.MaxDocuments),
	)
	return m, closeFn, nil
}
