// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package loader bulk-loads the catalog from newline-delimited JSON files.
//
// Books load before users because user records reference books by id and
// resolve them eagerly. Load problems never abort startup: a missing or
// unreadable file degrades to an empty catalog with a warning, a malformed
// or incomplete record is skipped with a warning naming its line, and an
// unresolvable book reference inside a user record is dropped silently.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// maxLineBytes caps a single NDJSON line. Catalog records are small;
// anything beyond this is a corrupt file, not data.
const maxLineBytes = 1 << 20

// Result summarizes one load pass.
type Result struct {
	BooksLoaded  int           `json:"books_loaded"`
	BooksSkipped int           `json:"books_skipped"`
	UsersLoaded  int           `json:"users_loaded"`
	UsersSkipped int           `json:"users_skipped"`
	DroppedRefs  int           `json:"dropped_references"`
	Duration     time.Duration `json:"-"`
	DurationMS   float64       `json:"duration_ms"`
}

// Loader feeds NDJSON records into a catalog index.
type Loader struct {
	index  *catalog.Index
	logger zerolog.Logger
}

// New creates a loader for the given catalog.
func New(index *catalog.Index) *Loader {
	return &Loader{
		index:  index,
		logger: logging.WithComponent("loader"),
	}
}

// bookRecord mirrors the book line format. Pointer fields distinguish a
// missing key from a zero value so incomplete records can be skipped.
type bookRecord struct {
	ID     *string       `json:"id"`
	Title  *string       `json:"title"`
	Author *string       `json:"author"`
	Genre  *string       `json:"genre"`
	Year   *int          `json:"year"`
	Rating models.Rating `json:"rating"`
}

// userRecord mirrors the user line format. The book-id arrays are
// optional; absent arrays mean empty lists.
type userRecord struct {
	ID       *string  `json:"id"`
	Name     *string  `json:"name"`
	Borrowed []string `json:"borrowed_books"`
	History  []string `json:"history"`
}

// LoadAll loads books then users from the configured paths.
func (l *Loader) LoadAll(cfg config.LibraryConfig) Result {
	start := time.Now()

	result := Result{}
	l.LoadBooks(cfg.BooksPath, &result)
	l.LoadUsers(cfg.UsersPath, &result)

	result.Duration = time.Since(start)
	result.DurationMS = float64(result.Duration.Microseconds()) / 1000.0
	metrics.LoaderDuration.Observe(result.Duration.Seconds())

	l.logger.Info().
		Int("books_loaded", result.BooksLoaded).
		Int("books_skipped", result.BooksSkipped).
		Int("users_loaded", result.UsersLoaded).
		Int("users_skipped", result.UsersSkipped).
		Int("dropped_references", result.DroppedRefs).
		Dur("took", result.Duration).
		Msg("Bulk load finished")

	return result
}

// LoadBooks streams book records from path into the catalog.
func (l *Loader) LoadBooks(path string, result *Result) {
	l.loadFile(path, "books", func(line []byte, lineNo int) {
		loaded := l.loadBookLine(path, line, lineNo)
		if loaded {
			result.BooksLoaded++
		} else {
			result.BooksSkipped++
		}
		metrics.RecordLoaderRecord("book", loaded)
	})
}

// LoadUsers streams user records from path into the catalog.
func (l *Loader) LoadUsers(path string, result *Result) {
	l.loadFile(path, "users", func(line []byte, lineNo int) {
		loaded, dropped := l.loadUserLine(path, line, lineNo)
		if loaded {
			result.UsersLoaded++
		} else {
			result.UsersSkipped++
		}
		result.DroppedRefs += dropped
		metrics.RecordLoaderRecord("user", loaded)
	})
}

// loadFile opens path and hands each non-blank line to handle. A missing
// or unreadable file logs a warning and returns; it is never fatal.
func (l *Loader) loadFile(path, kind string, handle func(line []byte, lineNo int)) {
	if path == "" {
		l.logger.Warn().Str("kind", kind).Msg("No data file configured, starting empty")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		l.logger.Warn().
			Err(err).
			Str("path", path).
			Str("kind", kind).
			Msg("Data file unavailable, starting empty")
		return
	}
	defer f.Close() //nolint:errcheck // read-only file

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		handle(line, lineNo)
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warn().
			Err(err).
			Str("path", path).
			Int("line", lineNo).
			Msg("Stopped reading data file early")
	}
}

// loadBookLine parses and admits one book record. Reports whether the
// record made it into the catalog.
func (l *Loader) loadBookLine(path string, line []byte, lineNo int) bool {
	var rec bookRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		l.warnSkip(path, lineNo, "malformed book record", err)
		return false
	}

	if missing := missingBookFields(&rec); missing != "" {
		l.warnSkip(path, lineNo, fmt.Sprintf("book record missing %s", missing), nil)
		return false
	}

	var rating *float64
	if rec.Rating.Valid {
		rating = &rec.Rating.Value
	}

	if _, err := l.index.AddBook(*rec.ID, *rec.Title, *rec.Author, *rec.Genre, *rec.Year, rating); err != nil {
		l.warnSkip(path, lineNo, "book record rejected", err)
		return false
	}
	return true
}

// loadUserLine parses and admits one user record. Returns whether the
// record was admitted and how many book references were dropped.
func (l *Loader) loadUserLine(path string, line []byte, lineNo int) (bool, int) {
	var rec userRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		l.warnSkip(path, lineNo, "malformed user record", err)
		return false, 0
	}

	if missing := missingUserFields(&rec); missing != "" {
		l.warnSkip(path, lineNo, fmt.Sprintf("user record missing %s", missing), nil)
		return false, 0
	}

	user, err := l.index.AddUser(*rec.ID, *rec.Name, rec.Borrowed, rec.History)
	if err != nil {
		l.warnSkip(path, lineNo, "user record rejected", err)
		return false, 0
	}

	dropped := len(rec.Borrowed) + len(rec.History) - len(user.Borrowed) - len(user.History)
	if dropped > 0 {
		metrics.LoaderDroppedReferences.Add(float64(dropped))
	}
	return true, dropped
}

func (l *Loader) warnSkip(path string, lineNo int, reason string, err error) {
	event := l.logger.Warn().
		Str("path", path).
		Int("line", lineNo)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Skipping record: " + reason)
}

// missingBookFields names the required keys absent from a book record.
func missingBookFields(rec *bookRecord) string {
	var missing []string
	if rec.ID == nil {
		missing = append(missing, "id")
	}
	if rec.Title == nil {
		missing = append(missing, "title")
	}
	if rec.Author == nil {
		missing = append(missing, "author")
	}
	if rec.Genre == nil {
		missing = append(missing, "genre")
	}
	if rec.Year == nil {
		missing = append(missing, "year")
	}
	return strings.Join(missing, ", ")
}

// missingUserFields names the required keys absent from a user record.
func missingUserFields(rec *userRecord) string {
	var missing []string
	if rec.ID == nil {
		missing = append(missing, "id")
	}
	if rec.Name == nil {
		missing = append(missing, "name")
	}
	return strings.Join(missing, ", ")
}
