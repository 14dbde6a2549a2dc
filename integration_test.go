//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexregistry_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/indexregistry"
	"github.com/suparena/indexregistry/backend"
	"github.com/suparena/indexregistry/config"
	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient/testmodels"
)

// setupRegistry connects to the backend described by INDEXREGISTRY_* variables
// (or a .env file) and initiates a uniquely named section.
func setupRegistry(t *testing.T) *indexregistry.Registry[testmodels.Event] {
	if os.Getenv("INDEXREGISTRY_BACKEND") == "" {
		t.Skip("INDEXREGISTRY_BACKEND not set, skipping integration test")
	}

	cfg, err := config.Load(os.Getenv("INDEXREGISTRY_CONFIG"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	client, err := backend.New(ctx, *cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	section := fmt.Sprintf("it-events-%d", time.Now().UnixNano())
	reg, err := indexregistry.New[testmodels.Event](ctx, client, section)
	if err != nil {
		t.Fatalf("Failed to initiate registry: %v", err)
	}
	t.Cleanup(func() {
		if reg.State() == indexregistry.StateActive {
			_ = reg.Destroy(context.Background())
		}
	})
	return reg
}

func TestIntegrationRegistrationLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	reg := setupRegistry(t)

	starts := strfmt.DateTime(time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC))
	event := testmodels.Event{Name: "Launch", Venue: "Hall A", StartsAt: &starts}

	if err := reg.Register(ctx, "launch", event); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	if err := reg.Register(ctx, "launch", event); !errors.IsDuplicateRegistration(err) {
		t.Errorf("Expected duplicate registration error, got: %v", err)
	}

	ok, err := reg.IsRegistered(ctx, "launch")
	if err != nil || !ok {
		t.Fatalf("Expected launch to be registered, got %v (err %v)", ok, err)
	}

	event.Venue = "Hall B"
	if err := reg.Replace(ctx, "launch", event); err != nil {
		t.Fatalf("Failed to replace: %v", err)
	}

	got, err := reg.Get(ctx, "launch")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.Venue != "Hall B" {
		t.Errorf("Replace not applied: got venue %q", got.Venue)
	}

	if err := reg.Replace(ctx, "missing", event); !errors.IsModificationFailed(err) {
		t.Errorf("Expected modification failed error, got: %v", err)
	}

	if err := reg.Unregister(ctx, "launch"); err != nil {
		t.Fatalf("Failed to unregister: %v", err)
	}
	if err := reg.Unregister(ctx, "launch"); !errors.IsUnknownIdentifier(err) {
		t.Errorf("Expected unknown identifier error, got: %v", err)
	}

	if err := reg.Destroy(ctx); err != nil {
		t.Fatalf("Failed to destroy: %v", err)
	}
}
