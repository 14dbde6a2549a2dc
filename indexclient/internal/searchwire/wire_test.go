/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package searchwire

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/indexregistry/errors"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ErrorCause
	}{
		{
			name: "object",
			body: `{"error":{"type":"index_not_found_exception","reason":"no such index [events]"},"status":404}`,
			want: ErrorCause{Type: TypeIndexNotFound, Reason: "no such index [events]"},
		},
		{
			name: "string",
			body: `{"error":"Incorrect HTTP method","status":405}`,
			want: ErrorCause{Reason: "Incorrect HTTP method"},
		},
		{
			name: "plain text",
			body: "  gateway timeout \n",
			want: ErrorCause{Reason: "gateway timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseError(strings.NewReader(tt.body)))
		})
	}
}

func TestDecodeGet(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		res, err := DecodeGet("events", http.StatusOK, strings.NewReader(`{"_index":"events","_id":"e1","found":true,"_source":{"name":"conf"}}`))
		require.NoError(t, err)
		require.True(t, res.Found())
		assert.Equal(t, "events", res.Document.Section)
		assert.JSONEq(t, `{"name":"conf"}`, string(res.Document.Source))
	})

	t.Run("DocumentMissing", func(t *testing.T) {
		res, err := DecodeGet("events", http.StatusNotFound, strings.NewReader(`{"_index":"events","_id":"e1","found":false}`))
		require.NoError(t, err)
		assert.False(t, res.Found())
	})

	t.Run("IndexMissing", func(t *testing.T) {
		_, err := DecodeGet("events", http.StatusNotFound, strings.NewReader(`{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`))
		assert.True(t, errors.IsIndexNotFound(err), "got %v", err)
	})

	t.Run("ServerError", func(t *testing.T) {
		_, err := DecodeGet("events", http.StatusServiceUnavailable, strings.NewReader(`{"error":{"type":"cluster_block_exception","reason":"blocked"},"status":503}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cluster_block_exception")
	})
}

func TestBulkFailed(t *testing.T) {
	var br BulkResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"errors": true,
		"items": [
			{"delete": {"_id": "a", "status": 200, "result": "deleted"}},
			{"delete": {"_id": "b", "status": 404, "result": "not_found"}},
			{"delete": {"_id": "c", "status": 429, "error": {"type": "es_rejected_execution_exception", "reason": "queue full"}}}
		]
	}`), &br))

	failed := br.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)

	err := BulkError("events", failed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "es_rejected_execution_exception")
	assert.NoError(t, BulkError("events", nil))
}

func TestDeleteActions(t *testing.T) {
	body, err := DeleteActions("events", []string{"e1", "e2"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"delete":{"_index":"events","_id":"e1"}}`, lines[0])
}

func TestMatchAllDefaultLimit(t *testing.T) {
	body, err := MatchAll(0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"match_all":{}},"size":1000}`, string(body))
}
