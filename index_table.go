/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexregistry

import (
	"sort"
	"sync"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
)

// IndexTable maps section names to opened index handles. A Registry gets a
// private table unless one is passed with WithIndexTable; registries sharing
// a table cannot both initiate the same section.
type IndexTable struct {
	mu      sync.RWMutex
	indices map[string]indexclient.Index
}

// NewIndexTable creates an empty IndexTable
func NewIndexTable() *IndexTable {
	return &IndexTable{
		indices: make(map[string]indexclient.Index),
	}
}

// Register records the handle for section. A section may hold one live handle.
func (t *IndexTable) Register(section string, idx indexclient.Index) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.indices[section]; exists {
		return errors.NewDuplicateInitiationError(section)
	}

	t.indices[section] = idx
	return nil
}

// Get retrieves the handle for section
func (t *IndexTable) Get(section string) (indexclient.Index, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, exists := t.indices[section]
	return idx, exists
}

// Active reports whether section has a live handle
func (t *IndexTable) Active(section string) bool {
	_, exists := t.Get(section)
	return exists
}

// Remove drops the handle for section
func (t *IndexTable) Remove(section string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.indices[section]; !exists {
		return false
	}

	delete(t.indices, section)
	return true
}

// Clear drops every handle
func (t *IndexTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indices = make(map[string]indexclient.Index)
}

// List returns the active sections in sorted order
func (t *IndexTable) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sections := make([]string, 0, len(t.indices))
	for s := range t.indices {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	return sections
}

// Len returns the number of active sections
func (t *IndexTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.indices)
}
