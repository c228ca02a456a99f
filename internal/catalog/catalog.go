// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package catalog implements the authoritative in-memory collection of
// books and users plus the derived lookup indices.
//
// The Index owns an ordered book collection (insertion order preserved)
// with two derived maps: id -> Book and normalized title -> Book. The maps
// are rebuilt in lock-step with the primary collection inside every
// mutation, under one exclusive lock, so lookups never observe a book the
// collection no longer holds.
//
// Books are keyed by id everywhere: removal, checkout, and checkin all
// take book ids. Titles are not guaranteed unique, so they only serve the
// search path. User lists store book-id handles rather than pointers;
// removing a book purges its handle from every user's lists in the same
// critical section.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// Sentinel errors for admission failures that are not validation problems.
var (
	ErrDuplicateBookID = errors.New("book id already in catalog")
	ErrDuplicateUserID = errors.New("user id already registered")
)

// Index is the catalog. All exported methods are safe for concurrent use;
// mutations take the write lock, reads take the read lock.
type Index struct {
	mu sync.RWMutex

	books   []*models.Book
	byID    map[string]*models.Book
	byTitle map[string]*models.Book // normalized title -> earliest-added holder

	users     []*models.User
	usersByID map[string]*models.User

	logger zerolog.Logger
}

// New creates an empty catalog index.
func New() *Index {
	return &Index{
		books:     make([]*models.Book, 0),
		byID:      make(map[string]*models.Book),
		byTitle:   make(map[string]*models.Book),
		users:     make([]*models.User, 0),
		usersByID: make(map[string]*models.User),
		logger:    logging.WithComponent("catalog"),
	}
}

// NormalizeTitle lowercases a title, trims it, and collapses internal
// whitespace runs to single spaces. Exact title lookups compare
// normalized forms.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// AddBook validates, constructs, and appends a book, updating both lookup
// maps in the same critical section. A duplicate id is rejected with
// ErrDuplicateBookID and leaves the catalog unchanged.
func (idx *Index) AddBook(id, title, author, genre string, year int, rating *float64) (*models.Book, error) {
	book, err := models.NewBook(id, title, author, genre, year, rating)
	if err != nil {
		metrics.RecordCatalogOperation("add_book", false)
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.byID[book.ID]; exists {
		metrics.RecordCatalogOperation("add_book", false)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateBookID, book.ID)
	}

	idx.books = append(idx.books, book)
	idx.byID[book.ID] = book

	norm := NormalizeTitle(book.Title)
	if _, taken := idx.byTitle[norm]; !taken {
		idx.byTitle[norm] = book
	}

	metrics.RecordCatalogOperation("add_book", true)
	metrics.RecordCatalogSize(len(idx.books), len(idx.users))

	idx.logger.Debug().
		Str("book_id", book.ID).
		Str("title", book.Title).
		Msg("Book added")

	return book, nil
}

// AddUser validates, constructs, and appends a user. Borrowed and history
// entries that do not resolve to a catalog book are dropped silently, not
// rejected; callers that care can compare list lengths. A duplicate id is
// rejected with ErrDuplicateUserID.
func (idx *Index) AddUser(id, name string, borrowed, history []string) (*models.User, error) {
	user, err := models.NewUser(id, name, borrowed, history)
	if err != nil {
		metrics.RecordCatalogOperation("add_user", false)
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.usersByID[user.ID]; exists {
		metrics.RecordCatalogOperation("add_user", false)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateUserID, user.ID)
	}

	user.Borrowed = idx.resolveHandlesLocked(user.ID, "borrowed_books", user.Borrowed)
	user.History = idx.resolveHandlesLocked(user.ID, "history", user.History)

	idx.users = append(idx.users, user)
	idx.usersByID[user.ID] = user

	metrics.RecordCatalogOperation("add_user", true)
	metrics.RecordCatalogSize(len(idx.books), len(idx.users))

	idx.logger.Debug().
		Str("user_id", user.ID).
		Str("name", user.Name).
		Msg("User added")

	return user.Clone(), nil
}

// resolveHandlesLocked filters a handle list down to ids present in the
// catalog. Must be called with the write lock held.
func (idx *Index) resolveHandlesLocked(userID, list string, ids []string) []string {
	resolved := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := idx.byID[id]; ok {
			resolved = append(resolved, id)
			continue
		}
		idx.logger.Debug().
			Str("user_id", userID).
			Str("list", list).
			Str("book_id", id).
			Msg("Dropping unresolvable book reference")
	}
	return resolved
}

// RemoveBook removes the book with the given id. It deletes the book from
// the primary collection and both lookup maps, and purges its handle from
// every user's borrowed and history lists. Returns false and leaves all
// state unchanged when the id is unknown.
func (idx *Index) RemoveBook(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	book, ok := idx.byID[id]
	if !ok {
		metrics.RecordCatalogOperation("remove_book", false)
		idx.logger.Info().Str("book_id", id).Msg("Remove failed, unknown book")
		return false
	}

	for i, b := range idx.books {
		if b.ID == id {
			idx.books = append(idx.books[:i], idx.books[i+1:]...)
			break
		}
	}
	delete(idx.byID, id)

	norm := NormalizeTitle(book.Title)
	if holder, ok := idx.byTitle[norm]; ok && holder.ID == id {
		delete(idx.byTitle, norm)
		// Repoint to the earliest remaining book sharing the normalized title.
		for _, b := range idx.books {
			if NormalizeTitle(b.Title) == norm {
				idx.byTitle[norm] = b
				break
			}
		}
	}

	purged := 0
	for _, u := range idx.users {
		purged += removeAll(&u.Borrowed, id)
		purged += removeAll(&u.History, id)
	}
	if purged > 0 {
		metrics.CatalogCascadePurges.Add(float64(purged))
	}

	metrics.RecordCatalogOperation("remove_book", true)
	metrics.RecordCatalogSize(len(idx.books), len(idx.users))

	idx.logger.Info().
		Str("book_id", id).
		Int("purged_references", purged).
		Msg("Book removed")

	return true
}

// RemoveUser removes the user with the given id. Does not touch books.
// Returns false when the id is unknown.
func (idx *Index) RemoveUser(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.usersByID[id]; !ok {
		metrics.RecordCatalogOperation("remove_user", false)
		idx.logger.Info().Str("user_id", id).Msg("Remove failed, unknown user")
		return false
	}

	for i, u := range idx.users {
		if u.ID == id {
			idx.users = append(idx.users[:i], idx.users[i+1:]...)
			break
		}
	}
	delete(idx.usersByID, id)

	metrics.RecordCatalogOperation("remove_user", true)
	metrics.RecordCatalogSize(len(idx.books), len(idx.users))

	idx.logger.Info().Str("user_id", id).Msg("User removed")
	return true
}

// Checkout appends the book to the user's borrowed list. Returns false
// when either id is unknown. History is deliberately left alone: it
// records load-time interactions, and a checkout is reflected there only
// by the load path that produced the data.
func (idx *Index) Checkout(bookID, userID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[bookID]; !ok {
		metrics.RecordCatalogOperation("checkout", false)
		idx.logger.Info().Str("book_id", bookID).Msg("Checkout failed, unknown book")
		return false
	}
	user, ok := idx.usersByID[userID]
	if !ok {
		metrics.RecordCatalogOperation("checkout", false)
		idx.logger.Info().Str("user_id", userID).Msg("Checkout failed, unknown user")
		return false
	}

	user.Borrowed = append(user.Borrowed, bookID)

	metrics.RecordCatalogOperation("checkout", true)
	idx.logger.Info().
		Str("book_id", bookID).
		Str("user_id", userID).
		Msg("Book checked out")

	return true
}

// Checkin removes one occurrence of the book from the user's borrowed
// list. History is retained: a return does not erase the fact the book was
// once borrowed. Returns false when either id is unknown or the user does
// not currently have the book.
func (idx *Index) Checkin(bookID, userID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.byID[bookID]; !ok {
		metrics.RecordCatalogOperation("checkin", false)
		idx.logger.Info().Str("book_id", bookID).Msg("Checkin failed, unknown book")
		return false
	}
	user, ok := idx.usersByID[userID]
	if !ok {
		metrics.RecordCatalogOperation("checkin", false)
		idx.logger.Info().Str("user_id", userID).Msg("Checkin failed, unknown user")
		return false
	}

	if !removeFirst(&user.Borrowed, bookID) {
		metrics.RecordCatalogOperation("checkin", false)
		idx.logger.Info().
			Str("book_id", bookID).
			Str("user_id", userID).
			Msg("Checkin failed, book not borrowed by user")
		return false
	}

	metrics.RecordCatalogOperation("checkin", true)
	idx.logger.Info().
		Str("book_id", bookID).
		Str("user_id", userID).
		Msg("Book checked in")

	return true
}

// GetBook returns the book with the given id.
func (idx *Index) GetBook(id string) (*models.Book, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	book, ok := idx.byID[id]
	return book, ok
}

// GetBookByTitle returns the earliest-added book whose normalized title
// matches the normalized query.
func (idx *Index) GetBookByTitle(title string) (*models.Book, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	book, ok := idx.byTitle[NormalizeTitle(title)]
	return book, ok
}

// GetBooksByTitle returns every book whose normalized title matches the
// normalized query, in insertion order. The title map is probed first so
// the common miss stays O(1); the scan only runs when a holder exists.
func (idx *Index) GetBooksByTitle(title string) []*models.Book {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	norm := NormalizeTitle(title)
	if _, ok := idx.byTitle[norm]; !ok {
		return nil
	}

	var matches []*models.Book
	for _, b := range idx.books {
		if NormalizeTitle(b.Title) == norm {
			matches = append(matches, b)
		}
	}
	return matches
}

// GetUser returns a copy of the user with the given id.
func (idx *Index) GetUser(id string) (*models.User, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	user, ok := idx.usersByID[id]
	if !ok {
		return nil, false
	}
	return user.Clone(), true
}

// Books returns the book collection in insertion order. The slice is a
// copy; the Book pointers are shared and immutable after construction.
func (idx *Index) Books() []*models.Book {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]*models.Book{}, idx.books...)
}

// Users returns copies of the user collection in insertion order.
func (idx *Index) Users() []*models.User {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	users := make([]*models.User, len(idx.users))
	for i, u := range idx.users {
		users[i] = u.Clone()
	}
	return users
}

// BookIDs returns all book ids in insertion order.
func (idx *Index) BookIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, len(idx.books))
	for i, b := range idx.books {
		ids[i] = b.ID
	}
	return ids
}

// Titles returns all book titles in insertion order, duplicates included.
func (idx *Index) Titles() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	titles := make([]string, len(idx.books))
	for i, b := range idx.books {
		titles[i] = b.Title
	}
	return titles
}

// UserIDs returns all user ids in insertion order.
func (idx *Index) UserIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, len(idx.users))
	for i, u := range idx.users {
		ids[i] = u.ID
	}
	return ids
}

// UserNames returns all user names in insertion order.
func (idx *Index) UserNames() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := make([]string, len(idx.users))
	for i, u := range idx.users {
		names[i] = u.Name
	}
	return names
}

// UserBorrowed resolves the user's borrowed handles to books. The second
// return is false when the user id is unknown.
func (idx *Index) UserBorrowed(userID string) ([]*models.Book, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	user, ok := idx.usersByID[userID]
	if !ok {
		return nil, false
	}
	return idx.resolveBooksLocked(user.Borrowed), true
}

// UserHistory resolves the user's history handles to books. The second
// return is false when the user id is unknown.
func (idx *Index) UserHistory(userID string) ([]*models.Book, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	user, ok := idx.usersByID[userID]
	if !ok {
		return nil, false
	}
	return idx.resolveBooksLocked(user.History), true
}

// resolveBooksLocked maps handles to books. Handles are purged on removal,
// so every handle resolves; the guard is for safety, not an expected path.
func (idx *Index) resolveBooksLocked(ids []string) []*models.Book {
	books := make([]*models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := idx.byID[id]; ok {
			books = append(books, b)
		}
	}
	return books
}

// BookCount returns the number of books in the catalog.
func (idx *Index) BookCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.books)
}

// UserCount returns the number of registered users.
func (idx *Index) UserCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.users)
}

// Reset discards all books, users, and lookup maps in one critical
// section. The admin reload path resets before re-running the bulk load
// so the rebuilt catalog reflects only the data files.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dropped := len(idx.books)
	droppedUsers := len(idx.users)

	idx.books = make([]*models.Book, 0)
	idx.byID = make(map[string]*models.Book)
	idx.byTitle = make(map[string]*models.Book)
	idx.users = make([]*models.User, 0)
	idx.usersByID = make(map[string]*models.User)

	metrics.RecordCatalogSize(0, 0)
	idx.logger.Info().
		Int("books_dropped", dropped).
		Int("users_dropped", droppedUsers).
		Msg("Catalog reset")
}

// removeFirst removes the first occurrence of id from the list.
// Reports whether an occurrence was removed.
func removeFirst(list *[]string, id string) bool {
	for i, v := range *list {
		if v == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// removeAll removes every occurrence of id from the list and returns the
// number removed.
func removeAll(list *[]string, id string) int {
	kept := (*list)[:0]
	removed := 0
	for _, v := range *list {
		if v == id {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	*list = kept
	return removed
}
