/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
	"github.com/suparena/indexregistry/indexclient/internal/searchwire"
)

// Config holds the connection settings for an OpenSearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	// InsecureSkipVerify disables TLS certificate verification; only for development clusters.
	InsecureSkipVerify bool
	Transport          http.RoundTripper
	NoRefresh          bool
}

// Client implements indexclient.Client on top of opensearch-go.
type Client struct {
	os      *opensearch.Client
	refresh string
}

var _ indexclient.Client = (*Client)(nil)

// NewClient creates an OpenSearch client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.NewValidationError("addresses", "at least one OpenSearch address is required")
	}

	transport := cfg.Transport
	if transport == nil && cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating OpenSearch client: %w", err)
	}

	c := New(client)
	if cfg.NoRefresh {
		c.refresh = "false"
	}
	return c, nil
}

// New wraps an existing opensearch-go client.
func New(client *opensearch.Client) *Client {
	return &Client{os: client, refresh: "true"}
}

// Ping verifies the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.os.Info(c.os.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error connecting to OpenSearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("connection test failed: %s", res.Status())
	}
	return nil
}

// OpenOrCreateIndex creates the index unless it already exists.
func (c *Client) OpenOrCreateIndex(ctx context.Context, section string) (indexclient.Index, error) {
	res, err := c.os.Indices.Exists(
		[]string{section},
		c.os.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Index{}, err
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return indexclient.Index{Name: section}, nil
	}
	if res.StatusCode != http.StatusNotFound {
		return indexclient.Index{}, fmt.Errorf("failed to check index: %s", res.Status())
	}

	res, err = c.os.Indices.Create(
		section,
		c.os.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Index{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		cause := searchwire.ParseError(res.Body)
		if cause.Type == searchwire.TypeAlreadyExists {
			return indexclient.Index{Name: section}, nil
		}
		return indexclient.Index{}, searchwire.Classify("create index", section, res.StatusCode, cause)
	}

	return indexclient.Index{Name: section, Created: true}, nil
}

// AddDocument creates a document and fails if the id is taken.
func (c *Client) AddDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	res, err := c.os.Create(
		section,
		searchwire.PathID(id),
		bytes.NewReader(doc),
		c.os.Create.WithContext(ctx),
		c.os.Create.WithRefresh(c.refresh),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return errors.NewAlreadyExistsError("document", id)
	}
	if res.IsError() {
		return searchwire.ResponseError("create document", section, res.StatusCode, res.Body)
	}
	return nil
}

// UpdateDocument overwrites the whole source of a document.
func (c *Client) UpdateDocument(ctx context.Context, section, id string, doc json.RawMessage) error {
	res, err := c.os.Index(
		section,
		bytes.NewReader(doc),
		c.os.Index.WithContext(ctx),
		c.os.Index.WithDocumentID(searchwire.PathID(id)),
		c.os.Index.WithRefresh(c.refresh),
	)
	if err != nil {
		return err
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

	res, err := c.os.Bulk(
		bytes.NewReader(body),
		c.os.Bulk.WithContext(ctx),
		c.os.Bulk.WithIndex(section),
		c.os.Bulk.WithRefresh(c.refresh),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return searchwire.DecodeBulk(section, res.StatusCode, res.Body)
}

// GetDocument fetches a document by id.
func (c *Client) GetDocument(ctx context.Context, section, id string) (indexclient.Lookup, error) {
	res, err := c.os.Get(
		section,
		searchwire.PathID(id),
		c.os.Get.WithContext(ctx),
	)
	if err != nil {
		return indexclient.Lookup{}, err
	}
	defer res.Body.Close()

	return searchwire.DecodeGet(section, res.StatusCode, res.Body)
}

// ListDocuments returns up to limit documents of the index.
func (c *Client) ListDocuments(ctx context.Context, section string, limit int) ([]indexclient.Document, error) {
	body, err := searchwire.MatchAll(limit)
	if err != nil {
		return nil, err
	}

	res, err := c.os.Search(
		c.os.Search.WithContext(ctx),
		c.os.Search.WithIndex(section),
		c.os.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	return searchwire.DecodeSearch(section, res.StatusCode, res.Body)
}

// DeleteIndex drops the OpenSearch index.
func (c *Client) DeleteIndex(ctx context.Context, section string) error {
	res, err := c.os.Indices.Delete(
		[]string{section},
		c.os.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errors.NewIndexNotFoundError(section)
	}
	if res.IsError() {
		return fmt.Errorf("failed to delete index: %s", res.Status())
	}
	return nil
}
