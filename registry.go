/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
)

// State is the lifecycle position of a Registry
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Registry binds a section to a search index and stores values of type T as
// JSON documents keyed by identifier. A Registry is meant for a single owner;
// its methods are safe for concurrent use but the check-then-act sequences of
// Register, Replace and Unregister are not atomic against other writers.
type Registry[T any] struct {
	client  indexclient.Client
	section string
	table   *IndexTable
	logger  *slog.Logger
	limit   int

	mu    sync.RWMutex
	state State
}

// New validates the index client, normalizes the section and initiates the registry.
func New[T any](ctx context.Context, client indexclient.Client, section string, opts ...Option) (*Registry[T], error) {
	if client == nil {
		return nil, errors.NewMissingDependencyError("index client")
	}

	normalized := NormalizeSection(section)
	if err := ValidateSection(normalized); err != nil {
		return nil, err
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Table == nil {
		options.Table = NewIndexTable()
	}

	r := &Registry[T]{
		client:  client,
		section: normalized,
		table:   options.Table,
		logger:  options.Logger.With("section", normalized),
		limit:   options.ListLimit,
	}

	if err := r.Init(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// NormalizeSection lowercases a section name; search engines reject upper-case index names.
func NormalizeSection(section string) string {
	return strings.ToLower(strings.TrimSpace(section))
}

// maxSectionBytes is the index name length limit of Elasticsearch and OpenSearch.
const maxSectionBytes = 255

// ValidateSection rejects names that do not address exactly one index:
// wildcards, index lists, path separators and reserved prefixes such as _all.
func ValidateSection(section string) error {
	switch {
	case section == "":
		return errors.NewValidationError("section", "must not be empty")
	case section == "." || section == "..":
		return errors.NewValidationError("section", fmt.Sprintf("%q is not a valid index name", section))
	case len(section) > maxSectionBytes:
		return errors.NewValidationError("section", fmt.Sprintf("longer than %d bytes", maxSectionBytes))
	case strings.ContainsAny(section[:1], "_-+"):
		return errors.NewValidationError("section", fmt.Sprintf("%q must not start with '_', '-' or '+'", section))
	}
	if i := strings.IndexAny(section, `*,/\?"<>|# :`); i >= 0 {
		return errors.NewValidationError("section", fmt.Sprintf("%q contains reserved character %q", section, section[i]))
	}
	return nil
}

// Section returns the normalized section name
func (r *Registry[T]) Section() string {
	return r.section
}

// State returns the current lifecycle state
func (r *Registry[T]) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Init opens or creates the section's index. It fails with a duplicate
// initiation error while the section is active, and may be called again
// after Destroy.
func (r *Registry[T]) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table.Active(r.section) {
		return errors.NewDuplicateInitiationError(r.section)
	}

	idx, err := r.client.OpenOrCreateIndex(ctx, r.section)
	if err != nil {
		return fmt.Errorf("failed to open index for section %q: %w", r.section, err)
	}

	if err := r.table.Register(r.section, idx); err != nil {
		return err
	}

	r.state = StateActive
	r.logger.InfoContext(ctx, "registry initiated", "index", idx.Name, "created", idx.Created)
	return nil
}

// IsRegistered reports whether a document exists for id. Client failures
// other than a missing document are returned.
func (r *Registry[T]) IsRegistered(ctx context.Context, id string) (bool, error) {
	if err := r.check(id); err != nil {
		return false, err
	}
	return r.lookup(ctx, id)
}

// Register adds value under id
func (r *Registry[T]) Register(ctx context.Context, id string, value T) error {
	if err := r.check(id); err != nil {
		return err
	}

	registered, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if registered {
		return errors.NewDuplicateRegistrationError(r.section, id)
	}

	doc, err := encode(value)
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "adding document", "id", id)
	if err := r.client.AddDocument(ctx, r.section, id, doc); err != nil {
		return fmt.Errorf("failed to register %q: %w", id, err)
	}
	return nil
}

// Replace overwrites the value stored under id
func (r *Registry[T]) Replace(ctx context.Context, id string, value T) error {
	if err := r.check(id); err != nil {
		return err
	}

	registered, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !registered {
		return errors.NewModificationFailedError(r.section, id)
	}

	doc, err := encode(value)
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "updating document", "id", id)
	if err := r.client.UpdateDocument(ctx, r.section, id, doc); err != nil {
		return fmt.Errorf("failed to replace %q: %w", id, err)
	}
	return nil
}

// Unregister removes the document stored under id
func (r *Registry[T]) Unregister(ctx context.Context, id string) error {
	if err := r.check(id); err != nil {
		return err
	}

	registered, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if !registered {
		return errors.NewUnknownIdentifierError(r.section, id)
	}

	r.logger.DebugContext(ctx, "removing document", "id", id)
	if err := r.client.RemoveDocuments(ctx, r.section, []string{id}); err != nil {
		return fmt.Errorf("failed to unregister %q: %w", id, err)
	}
	return nil
}

// Get returns the value stored under id
func (r *Registry[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := r.check(id); err != nil {
		return nil, err
	}

	res, err := r.client.GetDocument(ctx, r.section, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", id, err)
	}
	if !res.Found() {
		return nil, errors.NewUnknownIdentifierError(r.section, id)
	}

	return decode[T](res.Document)
}

// Content returns every value of the section keyed by identifier. A section
// holding more documents than the list limit fails with a TruncatedError
// instead of returning a partial map.
func (r *Registry[T]) Content(ctx context.Context) (map[string]T, error) {
	if err := r.active(); err != nil {
		return nil, err
	}

	limit := r.limit
	if limit <= 0 {
		limit = indexclient.DefaultListLimit
	}

	// One extra document tells a full section from a cut-off one.
	docs, err := r.client.ListDocuments(ctx, r.section, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list section %q: %w", r.section, err)
	}
	if len(docs) > limit {
		return nil, errors.NewTruncatedError(r.section, limit)
	}

	content := make(map[string]T, len(docs))
	for _, doc := range docs {
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		content[doc.ID] = *v
	}
	return content, nil
}

// Destroy forgets the section and deletes its backing index. An index that
// is already gone is not an error.
func (r *Registry[T]) Destroy(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateActive || !r.table.Remove(r.section) {
		return errors.NewInactiveRegistryError(r.section)
	}
	r.state = StateDestroyed

	err := r.client.DeleteIndex(ctx, r.section)
	switch {
	case errors.IsIndexNotFound(err):
		r.logger.WarnContext(ctx, "index already absent on destroy")
	case err != nil:
		return fmt.Errorf("failed to delete index for section %q: %w", r.section, err)
	}

	r.logger.InfoContext(ctx, "registry destroyed")
	return nil
}

func (r *Registry[T]) lookup(ctx context.Context, id string) (bool, error) {
	res, err := r.client.GetDocument(ctx, r.section, id)
	if err != nil {
		return false, fmt.Errorf("failed to check registration of %q: %w", id, err)
	}
	return res.Found(), nil
}

func (r *Registry[T]) check(id string) error {
	if err := r.active(); err != nil {
		return err
	}
	if id == "" {
		return errors.NewValidationError("identifier", "must not be empty")
	}
	return nil
}

func (r *Registry[T]) active() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != StateActive || !r.table.Active(r.section) {
		return errors.NewInactiveRegistryError(r.section)
	}
	return nil
}

func encode[T any](value T) (json.RawMessage, error) {
	doc, err := json.Marshal(value)
	if err != nil {
		return nil, errors.NewValidationError("value", fmt.Sprintf("not serializable: %v", err))
	}
	return doc, nil
}

func decode[T any](doc indexclient.Document) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(doc.Source, v); err != nil {
		return nil, fmt.Errorf("failed to decode document %q: %w", doc.ID, err)
	}
	return v, nil
}
