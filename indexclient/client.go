/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexclient

import (
	"context"
	"encoding/json"
)

// Client is the search-engine boundary used by the registry. Every method is a
// single blocking round trip; section names are expected in normalized form.
type Client interface {
	OpenOrCreateIndex(ctx context.Context, section string) (Index, error)

	AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error

	UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error

	RemoveDocuments(ctx context.Context, section string, ids []string) error

	// GetDocument reports a missing document through Lookup, not through the error.
	GetDocument(ctx context.Context, section, id string) (Lookup, error)

	ListDocuments(ctx context.Context, section string, limit int) ([]Document, error)

	// DeleteIndex returns an error matching errors.ErrIndexNotFound when the index is absent.
	DeleteIndex(ctx context.Context, section string) error
}

// Index is the handle returned when a section's backing index is opened.
type Index struct {
	Name string
	// Created is true when the index did not exist and was created by the open call.
	Created bool
}

// Document is a stored entry as returned by the backend.
type Document struct {
	ID      string
	Section string
	Source  json.RawMessage
}

// Lookup is the outcome of fetching a document by identifier.
type Lookup struct {
	Document Document
	found    bool
}

// Found wraps a fetched document.
func Found(doc Document) Lookup {
	return Lookup{Document: doc, found: true}
}

// NotFound is the lookup result for an absent identifier.
func NotFound() Lookup {
	return Lookup{}
}

// Found reports whether the document exists.
func (l Lookup) Found() bool {
	return l.found
}

// DefaultListLimit caps ListDocuments when the caller passes a non-positive limit.
const DefaultListLimit = 1000
