/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package backend builds the index client selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/suparena/indexregistry/config"
	"github.com/suparena/indexregistry/indexclient"
	"github.com/suparena/indexregistry/indexclient/ddb"
	"github.com/suparena/indexregistry/indexclient/elastic"
	"github.com/suparena/indexregistry/indexclient/mock"
	"github.com/suparena/indexregistry/indexclient/opensearch"
)

// New validates cfg and returns a client for cfg.Backend. The memory backend
// keeps documents for the lifetime of the process only.
func New(ctx context.Context, cfg config.Config) (indexclient.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendElasticsearch:
		client, err := elastic.NewClient(elastic.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		return client, nil

	case config.BackendOpenSearch:
		client, err := opensearch.NewClient(opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create opensearch client: %w", err)
		}
		return client, nil

	case config.BackendDynamoDB:
		client, err := ddb.NewClient(ctx, ddb.Config{
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Table:     cfg.Table,
			Endpoint:  cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamodb client: %w", err)
		}
		return client, nil

	case config.BackendMemory:
		return mock.NewUntracked(), nil
	}

	// Validate rejects anything else.
	return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}
