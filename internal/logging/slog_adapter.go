// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler adapts zerolog to the log/slog Handler interface. The
// supervision tree speaks slog, and routing its records through this
// handler keeps every component on the single zerolog output stream.
//
// Groups flatten into dotted keys: an attribute "layer" logged under
// WithGroup("supervisor") renders as "supervisor.layer". Attributes
// attached with WithAttrs are qualified once, at attach time, with the
// group path open at that moment; groups opened later only qualify
// later attributes, matching slog's handler contract.
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr // keys already carry their group path
	prefix string      // dotted path of open groups, "" at the root
}

var _ slog.Handler = (*SlogHandler)(nil)

// NewSlogHandler returns a handler backed by the package logger.
func NewSlogHandler() *SlogHandler {
	return NewSlogHandlerWithLogger(Logger())
}

// NewSlogHandlerWithLogger returns a handler backed by the given logger.
func NewSlogHandlerWithLogger(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled reports whether the backing logger would emit at the
// equivalent zerolog level.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToZerologLevel(level) >= h.logger.GetLevel()
}

// Handle renders the record as a single zerolog event: handler
// attributes first, then the record's own.
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(slogToZerologLevel(record.Level))

	for _, attr := range h.attrs {
		writeAttr(event, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(event, h.prefix, attr)
		return true
	})

	event.Msg(record.Message)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record it
// handles. Keys are qualified with the current group path here, so a
// later WithGroup cannot retroactively re-qualify them.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	child := h.clone()
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		attr.Key = qualifyKey(h.prefix, attr.Key)
		child.attrs = append(child.attrs, attr)
	}
	return child
}

// WithGroup returns a handler that prefixes subsequent attribute keys
// with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	child := h.clone()
	child.prefix = qualifyKey(h.prefix, name)
	return child
}

func (h *SlogHandler) clone() *SlogHandler {
	return &SlogHandler{
		logger: h.logger,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		prefix: h.prefix,
	}
}

// writeAttr renders one attribute onto the event, flattening nested
// groups into dotted keys. LogValuer values resolve before rendering.
func writeAttr(event *zerolog.Event, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = qualifyKey(prefix, attr.Key)
		}
		for _, member := range attr.Value.Group() {
			writeAttr(event, groupPrefix, member)
		}
		return
	}

	if attr.Equal(slog.Attr{}) {
		return
	}

	key := qualifyKey(prefix, attr.Key)
	switch attr.Value.Kind() {
	case slog.KindString:
		event.Str(key, attr.Value.String())
	case slog.KindInt64:
		event.Int64(key, attr.Value.Int64())
	case slog.KindUint64:
		event.Uint64(key, attr.Value.Uint64())
	case slog.KindFloat64:
		event.Float64(key, attr.Value.Float64())
	case slog.KindBool:
		event.Bool(key, attr.Value.Bool())
	case slog.KindDuration:
		event.Dur(key, attr.Value.Duration())
	case slog.KindTime:
		event.Time(key, attr.Value.Time())
	default:
		event.Interface(key, attr.Value.Any())
	}
}

func qualifyKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// slogToZerologLevel maps slog levels onto zerolog's scale. Levels
// between the named slog constants round down; anything at or above
// slog.LevelError stays at error.
func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// NewSlogLogger returns a *slog.Logger whose records flow into the
// package zerolog logger. The supervision tree's restart telemetry
// uses this.
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}
