/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
	"github.com/suparena/indexregistry/indexclient/internal/searchwire"
)

// Config holds the connection settings for an Elasticsearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	// Transport overrides the HTTP transport, e.g. for custom TLS.
	Transport http.RoundTripper
	// NoRefresh disables refresh=true on writes. Reads may then miss recent writes.
	NoRefresh bool
}

// Client implements indexclient.Client on top of go-elasticsearch.
type Client struct {
	es      *elasticsearch.Client
	refresh string
}

var _ indexclient.Client = (*Client)(nil)

// NewClient creates an Elasticsearch client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.NewValidationError("addresses", "at least one Elasticsearch address is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	c := New(es)
	if cfg.NoRefresh {
		c.refresh = "false"
	}
	return c, nil
}

// New wraps an existing go-elasticsearch client.
func New(es *elasticsearch.Client) *Client {
	return &Client{es: es, refresh: "true"}
}

// Ping verifies the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}
	return nil
}

// OpenOrCreateIndex creates the index unless it already exists.
func (c *Client) OpenOrCreateIndex(ctx context.Context, section string) (indexclient.Index, error) {
	res, err := c.es.Indices.Exists(
		[]string{section},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Index{}, fmt.Errorf("error checking index %s: %w", section, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return indexclient.Index{Name: section}, nil
	case http.StatusNotFound:
	default:
		return indexclient.Index{}, fmt.Errorf("unexpected status %d checking index %s", res.StatusCode, section)
	}

	res, err = c.es.Indices.Create(
		section,
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Index{}, fmt.Errorf("error creating index %s: %w", section, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		cause := searchwire.ParseError(res.Body)
		// Lost a creation race; the index is there.
		if cause.Type == searchwire.TypeAlreadyExists {
			return indexclient.Index{Name: section}, nil
		}
		return indexclient.Index{}, searchwire.Classify("create index", section, res.StatusCode, cause)
	}

	return indexclient.Index{Name: section, Created: true}, nil
}

// AddDocument creates a document and fails if the id is taken.
func (c *Client) AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	res, err := c.es.Create(
		section,
		searchwire.PathID(id),
		bytes.NewReader(doc),
		c.es.Create.WithContext(ctx),
		c.es.Create.WithRefresh(c.refresh),
	)
	if err != nil {
		return fmt.Errorf("error creating document %s in %s: %w", id, section, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		cause := searchwire.ParseError(res.Body)
		if res.StatusCode == http.StatusConflict || cause.Type == searchwire.TypeVersionConflict {
			return errors.NewAlreadyExistsError("document", id)
		}
		return searchwire.Classify("create document", section, res.StatusCode, cause)
	}
	return nil
}

// UpdateDocument overwrites the whole source of a document.
func (c *Client) UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	res, err := c.es.Index(
		section,
		bytes.NewReader(doc),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(searchwire.PathID(id)),
		c.es.Index.WithRefresh(c.refresh),
	)
	if err != nil {
		return fmt.Errorf("error updating document %s in %s: %w", id, section, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return searchwire.ResponseError("update document", section, res.StatusCode, res.Body)
	}
	return nil
}

// RemoveDocuments deletes ids with a single bulk request. Absent ids are ignored.
func (c *Client) RemoveDocuments(ctx context.Context, section string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	body, err := searchwire.DeleteActions(section, ids)
	if err != nil {
		return err
	}

	res, err := c.es.Bulk(
		bytes.NewReader(body),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(section),
		c.es.Bulk.WithRefresh(c.refresh),
	)
	if err != nil {
		return fmt.Errorf("error executing bulk request: %w", err)
	}
	defer res.Body.Close()

	return searchwire.DecodeBulk(section, res.StatusCode, res.Body)
}

// GetDocument fetches a document by id.
func (c *Client) GetDocument(ctx context.Context, section, id string) (indexclient.Lookup, error) {
	res, err := c.es.Get(
		section,
		searchwire.PathID(id),
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Lookup{}, fmt.Errorf("error fetching document %s from %s: %w", id, section, err)
	}
	defer res.Body.Close()

	return searchwire.DecodeGet(section, res.StatusCode, res.Body)
}

// ListDocuments returns up to limit documents of the index.
func (c *Client) ListDocuments(ctx context.Context, section string, limit int) ([]indexclient.Document, error) {
	body, err := searchwire.MatchAll(limit)
	if err != nil {
		return nil, fmt.Errorf("error encoding query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(section),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching index %s: %w", section, err)
	}
	defer res.Body.Close()

	return searchwire.DecodeSearch(section, res.StatusCode, res.Body)
}

// DeleteIndex removes the index.
func (c *Client) DeleteIndex(ctx context.Context, section string) error {
	res, err := c.es.Indices.Delete(
		[]string{section},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("error deleting index %s: %w", section, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errors.NewIndexNotFoundError(section)
	}
	if res.IsError() {
		return searchwire.ResponseError("delete index", section, res.StatusCode, res.Body)
	}
	return nil
}
