/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/indexregistry/config"
	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient"
	"github.com/suparena/indexregistry/indexclient/ddb"
	"github.com/suparena/indexregistry/indexclient/elastic"
	"github.com/suparena/indexregistry/indexclient/mock"
	"github.com/suparena/indexregistry/indexclient/opensearch"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		check func(t *testing.T, c indexclient.Client)
	}{
		{
			name: "elasticsearch",
			cfg:  config.Config{Backend: "elasticsearch", Addresses: []string{"http://localhost:9200"}},
			check: func(t *testing.T, c indexclient.Client) {
				assert.IsType(t, &elastic.Client{}, c)
			},
		},
		{
			name: "opensearch",
			cfg:  config.Config{Backend: "OpenSearch", Addresses: []string{"http://localhost:9200"}},
			check: func(t *testing.T, c indexclient.Client) {
				assert.IsType(t, &opensearch.Client{}, c)
			},
		},
		{
			name: "dynamodb",
			cfg: config.Config{
				Backend:   "dynamodb",
				Region:    "us-east-1",
				Table:     "registry",
				AccessKey: "test",
				SecretKey: "test",
				Endpoint:  "http://localhost:8000",
			},
			check: func(t *testing.T, c indexclient.Client) {
				assert.IsType(t, &ddb.Client{}, c)
			},
		},
		{
			name: "memory",
			cfg:  config.Config{Backend: "memory"},
			check: func(t *testing.T, c indexclient.Client) {
				require.IsType(t, &mock.Client{}, c)
				_, err := c.OpenOrCreateIndex(context.Background(), "events")
				require.NoError(t, err)
				assert.Empty(t, c.(*mock.Client).Calls(), "the memory backend keeps no call log")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(context.Background(), tt.cfg)
			require.NoError(t, err)
			tt.check(t, client)
		})
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), config.Config{Backend: "solr"})
	assert.True(t, errors.IsValidationError(err), "got %v", err)

	_, err = New(context.Background(), config.Config{Backend: "dynamodb", Region: "us-east-1"})
	assert.True(t, errors.IsValidationError(err), "got %v", err)
}
