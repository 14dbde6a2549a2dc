/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of indexclient.Client for testing
package mock

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
)

// Operation names used for error injection and call recording.
const (
	OpOpen   = "OpenOrCreateIndex"
	OpAdd    = "AddDocument"
	OpUpdate = "UpdateDocument"
	OpRemove = "RemoveDocuments"
	OpGet    = "GetDocument"
	OpList   = "ListDocuments"
	OpDelete = "DeleteIndex"
)

// Call records a single invocation of the client.
type Call struct {
	Op      string
	Section string
	IDs     []string
}

// Client is a mock implementation of indexclient.Client for testing
type Client struct {
	mu      sync.RWMutex
	indices map[string]map[string]json.RawMessage
	errs    map[string]error
	calls   []Call

	// untracked disables the call log for long-lived in-memory use.
	untracked bool
}

var _ indexclient.Client = (*Client)(nil)

// New creates a new mock Client
func New() *Client {
	return &Client{
		indices: make(map[string]map[string]json.RawMessage),
		errs:    make(map[string]error),
	}
}

// NewUntracked creates a Client that stores documents but keeps no call
// log, so it can back a long-running process without growing per call.
func NewUntracked() *Client {
	m := New()
	m.untracked = true
	return m
}

// WithError makes every call to op return err. A nil err clears the injection.
func (m *Client) WithError(op string, err error) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
	} else {
		m.errs[op] = err
	}
	return m
}

// OpenOrCreateIndex creates the in-memory index if needed
func (m *Client) OpenOrCreateIndex(ctx context.Context, section string) (indexclient.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpOpen, section)

	if err := m.errs[OpOpen]; err != nil {
		return indexclient.Index{}, err
	}

	if _, exists := m.indices[section]; exists {
		return indexclient.Index{Name: section}, nil
	}
	m.indices[section] = make(map[string]json.RawMessage)
	return indexclient.Index{Name: section, Created: true}, nil
}

// AddDocument stores a new document
func (m *Client) AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpAdd, section, id)

	if err := m.errs[OpAdd]; err != nil {
		return err
	}

	idx, err := m.index(section)
	if err != nil {
		return err
	}
	if _, exists := idx[id]; exists {
		return errors.NewAlreadyExistsError("document", id)
	}
	idx[id] = clone(doc)
	return nil
}

// UpdateDocument overwrites an existing document
func (m *Client) UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpUpdate, section, id)

	if err := m.errs[OpUpdate]; err != nil {
		return err
	}

	idx, err := m.index(section)
	if err != nil {
		return err
	}
	if _, exists := idx[id]; !exists {
		return errors.NewNotFoundError("document", id)
	}
	idx[id] = clone(doc)
	return nil
}

// RemoveDocuments deletes the given documents; unknown ids are ignored
func (m *Client) RemoveDocuments(ctx context.Context, section string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpRemove, section, ids...)

	if err := m.errs[OpRemove]; err != nil {
		return err
	}

	idx, err := m.index(section)
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(idx, id)
	}
	return nil
}

// GetDocument fetches a document by id
func (m *Client) GetDocument(ctx context.Context, section, id string) (indexclient.Lookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpGet, section, id)

	if err := m.errs[OpGet]; err != nil {
		return indexclient.Lookup{}, err
	}

	idx, err := m.index(section)
	if err != nil {
		return indexclient.Lookup{}, err
	}
	doc, exists := idx[id]
	if !exists {
		return indexclient.NotFound(), nil
	}
	return indexclient.Found(indexclient.Document{ID: id, Section: section, Source: clone(doc)}), nil
}

// ListDocuments returns the documents of a section ordered by id
func (m *Client) ListDocuments(ctx context.Context, section string, limit int) ([]indexclient.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpList, section)

	if err := m.errs[OpList]; err != nil {
		return nil, err
	}

	idx, err := m.index(section)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = indexclient.DefaultListLimit
	}

	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	docs := make([]indexclient.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, indexclient.Document{ID: id, Section: section, Source: clone(idx[id])})
	}
	return docs, nil
}

// DeleteIndex drops the in-memory index
func (m *Client) DeleteIndex(ctx context.Context, section string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpDelete, section)

	if err := m.errs[OpDelete]; err != nil {
		return err
	}

	if _, exists := m.indices[section]; !exists {
		return errors.NewIndexNotFoundError(section)
	}
	delete(m.indices, section)
	return nil
}

// Helper methods for testing

// HasIndex reports whether the section's index exists
func (m *Client) HasIndex(section string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.indices[section]
	return exists
}

// GetData returns a copy of a section's documents
func (m *Client) GetData(section string) map[string]json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]json.RawMessage, len(m.indices[section]))
	for k, v := range m.indices[section] {
		result[k] = clone(v)
	}
	return result
}

// SetData replaces a section's documents, creating the index if necessary
func (m *Client) SetData(section string, data map[string]json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		idx[k] = clone(v)
	}
	m.indices[section] = idx
}

// Count returns the number of documents stored in a section
func (m *Client) Count(section string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indices[section])
}

// Calls returns the recorded invocations in order
func (m *Client) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many times op was invoked
func (m *Client) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Clear removes all indices, injected errors and recorded calls
func (m *Client) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices = make(map[string]map[string]json.RawMessage)
	m.errs = make(map[string]error)
	m.calls = nil
}

func (m *Client) index(section string) (map[string]json.RawMessage, error) {
	idx, exists := m.indices[section]
	if !exists {
		return nil, errors.NewIndexNotFoundError(section)
	}
	return idx, nil
}

func (m *Client) record(op, section string, ids ...string) {
	if m.untracked {
		return
	}
	m.calls = append(m.calls, Call{Op: op, Section: section, IDs: append([]string(nil), ids...)})
}

func clone(doc json.RawMessage) json.RawMessage {
	if doc == nil {
		return nil
	}
	return append(json.RawMessage(nil), doc...)
}
