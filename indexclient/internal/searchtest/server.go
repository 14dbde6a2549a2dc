/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package searchtest runs an in-memory imitation of the Elasticsearch and
// OpenSearch document REST endpoints for binding tests.
package searchtest

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
)

// Server is a fake search cluster. It understands index exists/create/delete,
// _create, _doc get/put, _bulk deletes and match_all _search.
type Server struct {
	*httptest.Server

	product string

	mu       sync.Mutex
	indices  map[string]map[string]json.RawMessage
	requests []string
	failures []failure
}

type failure struct {
	status  int
	errType string
}

// NewServer starts a fake cluster. product, when set, is echoed in the
// X-Elastic-Product header that Elasticsearch 8 clients require.
func NewServer(t testing.TB, product string) *Server {
	t.Helper()
	s := &Server{
		product: product,
		indices: make(map[string]map[string]json.RawMessage),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next request answer with status and an error of errType.
func (s *Server) FailNext(status int, errType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, errType: errType})
}

// Requests returns "METHOD /path" for every request served.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// HasIndex reports whether the index exists.
func (s *Server) HasIndex(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.indices[name]
	return ok
}

// Source returns the stored source of a document.
func (s *Server) Source(index, id string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.indices[index][id]
	return doc, ok
}

// Put stores a document directly, creating the index.
func (s *Server) Put(index, id string, doc json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indices[index] == nil {
		s.indices[index] = make(map[string]json.RawMessage)
	}
	s.indices[index][id] = doc
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	escaped := r.URL.EscapedPath()
	s.requests = append(s.requests, r.Method+" "+escaped)
	if s.product != "" {
		w.Header().Set("X-Elastic-Product", s.product)
	}
	w.Header().Set("Content-Type", "application/json")

	if len(s.failures) > 0 {
		f := s.failures[0]
		s.failures = s.failures[1:]
		writeError(w, f.status, f.errType, "injected failure")
		return
	}

	body, _ := io.ReadAll(r.Body)
	// Route on the escaped path so an encoded "/" stays inside its segment.
	parts := strings.Split(strings.Trim(escaped, "/"), "/")
	for i, p := range parts {
		if unescaped, err := url.PathUnescape(p); err == nil {
			parts[i] = unescaped
		}
	}

	switch {
	case r.URL.Path == "/":
		writeJSON(w, http.StatusOK, map[string]any{
			"name":         "fake",
			"cluster_name": "searchtest",
			"version":      map[string]any{"number": "8.18.1", "distribution": "opensearch"},
			"tagline":      "You Know, for Search",
		})
	case len(parts) == 1:
		s.handleIndex(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "_bulk":
		s.handleBulk(w, parts[0], body)
	case len(parts) == 2 && parts[1] == "_search":
		s.handleSearch(w, parts[0], body)
	case len(parts) == 3 && parts[1] == "_create" && r.Method == http.MethodPut:
		s.handleCreate(w, parts[0], parts[2], body)
	case len(parts) == 3 && parts[1] == "_doc":
		s.handleDoc(w, r, parts[0], parts[2], body)
	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported path "+r.URL.Path)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, name string) {
	_, exists := s.indices[name]
	switch r.Method {
	case http.MethodHead:
		if exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodPut:
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
			return
		}
		s.indices[name] = make(map[string]json.RawMessage)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": name})
	case http.MethodDelete:
		if !exists {
			writeIndexMissing(w, name)
			return
		}
		delete(s.indices, name)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "illegal_argument_exception", r.Method)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, index, id string, body []byte) {
	idx, ok := s.indices[index]
	if !ok {
		// Real clusters auto-create; the fake is strict so tests notice a missing open.
		writeIndexMissing(w, index)
		return
	}
	if _, taken := idx[id]; taken {
		writeError(w, http.StatusConflict, "version_conflict_engine_exception", "["+id+"]: version conflict, document already exists")
		return
	}
	idx[id] = json.RawMessage(body)
	writeJSON(w, http.StatusCreated, map[string]any{"_index": index, "_id": id, "result": "created"})
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request, index, id string, body []byte) {
	idx, ok := s.indices[index]
	if !ok {
		writeIndexMissing(w, index)
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, found := idx[id]
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "found": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_index": index, "_id": id, "found": true, "_source": doc})
	case http.MethodPut, http.MethodPost:
		_, existed := idx[id]
		idx[id] = json.RawMessage(body)
		result, status := "created", http.StatusCreated
		if existed {
			result, status = "updated", http.StatusOK
		}
		writeJSON(w, status, map[string]any{"_index": index, "_id": id, "result": result})
	default:
		writeError(w, http.StatusMethodNotAllowed, "illegal_argument_exception", r.Method)
	}
}

func (s *Server) handleBulk(w http.ResponseWriter, index string, body []byte) {
	idx, ok := s.indices[index]
	if !ok {
		writeIndexMissing(w, index)
		return
	}

	var items []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var action map[string]struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal([]byte(line), &action); err != nil {
			writeError(w, http.StatusBadRequest, "parse_exception", err.Error())
			return
		}
		del, ok := action["delete"]
		if !ok {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "only delete actions are supported")
			return
		}
		item := map[string]any{"_index": index, "_id": del.ID}
		if _, found := idx[del.ID]; found {
			delete(idx, del.ID)
			item["status"], item["result"] = http.StatusOK, "deleted"
		} else {
			item["status"], item["result"] = http.StatusNotFound, "not_found"
		}
		items = append(items, map[string]any{"delete": item})
	}

	writeJSON(w, http.StatusOK, map[string]any{"took": 1, "errors": false, "items": items})
}

func (s *Server) handleSearch(w http.ResponseWriter, index string, body []byte) {
	idx, ok := s.indices[index]
	if !ok {
		writeIndexMissing(w, index)
		return
	}

	var query struct {
		Size int `json:"size"`
	}
	_ = json.Unmarshal(body, &query)

	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if query.Size > 0 && len(ids) > query.Size {
		ids = ids[:query.Size]
	}

	hits := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]any{"_index": index, "_id": id, "_source": idx[id]})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(idx), "relation": "eq"},
			"hits":  hits,
		},
	})
}

func writeIndexMissing(w http.ResponseWriter, index string) {
	writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+index+"]")
}

func writeError(w http.ResponseWriter, status int, errType, reason string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": errType, "reason": reason},
		"status": status,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
