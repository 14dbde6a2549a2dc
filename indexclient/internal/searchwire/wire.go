/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package searchwire holds the JSON shapes shared by the Elasticsearch and
// OpenSearch REST bindings.
package searchwire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
)

const (
	TypeIndexNotFound      = "index_not_found_exception"
	TypeAlreadyExists      = "resource_already_exists_exception"
	TypeVersionConflict    = "version_conflict_engine_exception"
	resultNotFound         = "not_found"
	maxErrorBodyInMessages = 512
)

// PathID escapes a document id as a single URL path segment. The REST
// clients place ids in the path verbatim, so "/" or "?" would otherwise
// address a different resource.
func PathID(id string) string {
	return url.PathEscape(id)
}

// ErrorCause is the "error" object of a failed REST call.
type ErrorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

// GetResponse is the body of GET /{index}/_doc/{id}.
type GetResponse struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// Hit is one search hit.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// SearchResponse is the body of POST /{index}/_search.
type SearchResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// BulkItem is the per-action result of a bulk request.
type BulkItem struct {
	Index  string      `json:"_index"`
	ID     string      `json:"_id"`
	Status int         `json:"status"`
	Result string      `json:"result,omitempty"`
	Error  *ErrorCause `json:"error,omitempty"`
}

// BulkResponse is the body of POST /_bulk.
type BulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]BulkItem `json:"items"`
}

// Failed returns the items that did not succeed. Deleting an absent document
// is reported by the engine as 404 "not_found" and is not a failure.
func (b BulkResponse) Failed() []BulkItem {
	var failed []BulkItem
	for _, item := range b.Items {
		for _, it := range item {
			if it.Status >= 200 && it.Status < 300 {
				continue
			}
			if it.Status == http.StatusNotFound && it.Result == resultNotFound && it.Error == nil {
				continue
			}
			failed = append(failed, it)
		}
	}
	return failed
}

// DeleteActions builds the NDJSON body deleting ids from index.
func DeleteActions(index string, ids []string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		action := map[string]any{
			"delete": map[string]any{
				"_index": index,
				"_id":    id,
			},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("error encoding bulk action: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// MatchAll builds a match_all search body bounded by limit.
func MatchAll(limit int) ([]byte, error) {
	if limit <= 0 {
		limit = indexclient.DefaultListLimit
	}
	query := map[string]any{
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"size": limit,
	}
	return json.Marshal(query)
}

// Documents converts search hits to documents ordered by id.
func (s SearchResponse) Documents(section string) []indexclient.Document {
	docs := make([]indexclient.Document, 0, len(s.Hits.Hits))
	for _, h := range s.Hits.Hits {
		docs = append(docs, indexclient.Document{ID: h.ID, Section: section, Source: h.Source})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// ParseError reads the error cause of a failed response. Bodies that are not
// the usual error object yield a cause carrying the raw text as reason.
func ParseError(body io.Reader) ErrorCause {
	raw, _ := io.ReadAll(body)

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && len(eb.Error) > 0 {
		var cause ErrorCause
		if err := json.Unmarshal(eb.Error, &cause); err == nil {
			return cause
		}
		var text string
		if err := json.Unmarshal(eb.Error, &text); err == nil {
			return ErrorCause{Reason: text}
		}
	}

	reason := strings.TrimSpace(string(raw))
	if len(reason) > maxErrorBodyInMessages {
		reason = reason[:maxErrorBodyInMessages]
	}
	return ErrorCause{Reason: reason}
}

// ResponseError classifies a failed response for op on index.
func ResponseError(op, index string, status int, body io.Reader) error {
	return Classify(op, index, status, ParseError(body))
}

// Classify turns an already parsed cause into an error. A missing index maps
// to errors.ErrIndexNotFound.
func Classify(op, index string, status int, cause ErrorCause) error {
	if cause.Type == TypeIndexNotFound {
		return errors.NewIndexNotFoundError(index)
	}
	if cause.Type != "" {
		return fmt.Errorf("%s on index %q failed with status %d: %s: %s", op, index, status, cause.Type, cause.Reason)
	}
	return fmt.Errorf("%s on index %q failed with status %d: %s", op, index, status, cause.Reason)
}

// BulkError summarizes failed bulk items.
func BulkError(index string, failed []BulkItem) error {
	if len(failed) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(failed))
	for _, it := range failed {
		reason := fmt.Sprintf("status %d", it.Status)
		if it.Error != nil {
			reason = fmt.Sprintf("%s: %s", it.Error.Type, it.Error.Reason)
		}
		msgs = append(msgs, fmt.Sprintf("%s (%s)", it.ID, reason))
	}
	return fmt.Errorf("bulk request on index %q failed for %d item(s): %s", index, len(failed), strings.Join(msgs, "; "))
}

// DecodeGet interprets the response of a document fetch.
func DecodeGet(index string, status int, body io.Reader) (indexclient.Lookup, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return indexclient.Lookup{}, fmt.Errorf("error reading get response: %w", err)
	}

	switch status {
	case http.StatusOK:
		var gr GetResponse
		if err := json.Unmarshal(raw, &gr); err != nil {
			return indexclient.Lookup{}, fmt.Errorf("error parsing get response: %w", err)
		}
		if !gr.Found {
			return indexclient.NotFound(), nil
		}
		return indexclient.Found(indexclient.Document{ID: gr.ID, Section: index, Source: gr.Source}), nil
	case http.StatusNotFound:
		// 404 covers both an absent document and an absent index.
		cause := ParseError(bytes.NewReader(raw))
		if cause.Type == TypeIndexNotFound {
			return indexclient.Lookup{}, errors.NewIndexNotFoundError(index)
		}
		return indexclient.NotFound(), nil
	default:
		return indexclient.Lookup{}, Classify("get document", index, status, ParseError(bytes.NewReader(raw)))
	}
}

// DecodeSearch interprets the response of a match_all search.
func DecodeSearch(index string, status int, body io.Reader) ([]indexclient.Document, error) {
	if status >= 300 {
		return nil, ResponseError("search", index, status, body)
	}
	var sr SearchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("error parsing search response: %w", err)
	}
	return sr.Documents(index), nil
}

// DecodeBulk interprets the response of a bulk request.
func DecodeBulk(index string, status int, body io.Reader) error {
	if status >= 300 {
		return ResponseError("bulk", index, status, body)
	}
	var br BulkResponse
	if err := json.NewDecoder(body).Decode(&br); err != nil {
		return fmt.Errorf("error parsing bulk response: %w", err)
	}
	if !br.Errors {
		return nil
	}
	return BulkError(index, br.Failed())
}
