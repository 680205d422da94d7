// Package storage defines the hierarchical document store the budget
// aggregates live in, plus typed helpers for events, categories and expenses.
//
// Documents are addressed by slash-separated paths made of alternating
// collection and document ids, e.g.
//
//	workspace/{owner}/events/{eventID}/categories/{categoryID}
//
// A document's collection is its path without the last segment.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("document not found")

// Document is a raw JSON document and its path.
type Document struct {
	Path string
	Data []byte
}

// Reader reads committed documents.
type Reader interface {
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns the direct children of a collection ordered by path.
	List(ctx context.Context, collection string) ([]Document, error)
}

// Tx is an atomic unit of work. Reads inside a transaction observe the
// transaction's own writes. Either every write commits or none does.
type Tx interface {
	Reader
	Set(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
}

// Store is a document store backend.
type Store interface {
	Reader
	// RunTransaction runs fn in a transaction and commits when fn returns nil.
	// fn must use only the Tx and ctx it is given; backends may retry fn.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Parent returns the collection path of a document path.
func Parent(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}
