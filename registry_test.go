/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexregistry

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/indexregistry/errors"
	"github.com/suparena/indexregistry/indexclient/mock"
	"github.com/suparena/indexregistry/indexclient/testmodels"
)

type conference struct {
	Name string `json:"name"`
}

func newRegistry(t *testing.T, section string) (*Registry[conference], *mock.Client) {
	t.Helper()
	client := mock.New()
	reg, err := New[conference](context.Background(), client, section)
	require.NoError(t, err)
	return reg, client
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingClient", func(t *testing.T) {
		_, err := New[conference](ctx, nil, "events")
		assert.True(t, errors.IsMissingDependency(err), "got %v", err)
	})

	t.Run("EmptySection", func(t *testing.T) {
		_, err := New[conference](ctx, mock.New(), "  ")
		assert.True(t, errors.IsValidationError(err), "got %v", err)
	})

	t.Run("NormalizesSection", func(t *testing.T) {
		client := mock.New()
		reg, err := New[conference](ctx, client, "Events")
		require.NoError(t, err)
		assert.Equal(t, "events", reg.Section())
		assert.Equal(t, StateActive, reg.State())
		assert.True(t, client.HasIndex("events"))
	})

	t.Run("UnsafeSections", func(t *testing.T) {
		client := mock.New()
		for _, section := range []string{
			"*", "events*", "_all", "events,venues", "a/b", `a\b`, "a?b", `a"b`,
			"a<b", "a>b", "a|b", "a#b", "a b", "a:b", "-events", "+events",
			".", "..", strings.Repeat("x", 256),
		} {
			_, err := New[conference](ctx, client, section)
			assert.True(t, errors.IsValidationError(err), "section %q: got %v", section, err)
		}
		assert.Empty(t, client.Calls(), "a rejected section must not reach the client")
	})

	t.Run("AcceptedSections", func(t *testing.T) {
		for _, section := range []string{"events", "events-2025", "my_events", ".hidden", "ünïcode"} {
			_, err := New[conference](ctx, mock.New(), section)
			assert.NoError(t, err, "section %q", section)
		}
	})

	t.Run("OpenFailure", func(t *testing.T) {
		client := mock.New().WithError(mock.OpOpen, stderrors.New("cluster unavailable"))
		_, err := New[conference](ctx, client, "events")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cluster unavailable")
	})
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateInitiation", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		err := reg.Init(ctx)
		assert.True(t, errors.IsDuplicateInitiation(err), "got %v", err)
		assert.Equal(t, 1, client.CallCount(mock.OpOpen), "a duplicate init must not reach the client")
	})

	t.Run("SharedTable", func(t *testing.T) {
		table := NewIndexTable()
		client := mock.New()

		_, err := New[conference](ctx, client, "events", WithIndexTable(table))
		require.NoError(t, err)

		_, err = New[conference](ctx, client, "EVENTS", WithIndexTable(table))
		assert.True(t, errors.IsDuplicateInitiation(err), "got %v", err)

		_, err = New[conference](ctx, client, "venues", WithIndexTable(table))
		require.NoError(t, err)
		assert.Equal(t, []string{"events", "venues"}, table.List())
	})

	t.Run("ReinitAfterDestroy", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		require.NoError(t, reg.Destroy(ctx))
		assert.Equal(t, StateDestroyed, reg.State())

		require.NoError(t, reg.Init(ctx))
		assert.Equal(t, StateActive, reg.State())
		assert.True(t, client.HasIndex("events"))
	})
}

func TestRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("RegisterThenIsRegistered", func(t *testing.T) {
		reg, _ := newRegistry(t, "events")

		ok, err := reg.IsRegistered(ctx, "e1")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))

		ok, err = reg.IsRegistered(ctx, "e1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))
		err := reg.Register(ctx, "e1", conference{Name: "other"})
		assert.True(t, errors.IsDuplicateRegistration(err), "got %v", err)

		got, err := reg.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "conf", got.Name)
		assert.Equal(t, 1, client.CallCount(mock.OpAdd))
	})

	t.Run("ReplaceUnregistered", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		err := reg.Replace(ctx, "e1", conference{Name: "conf2"})
		assert.True(t, errors.IsModificationFailed(err), "got %v", err)
		assert.Equal(t, 0, client.CallCount(mock.OpUpdate))
	})

	t.Run("ReplaceRegistered", func(t *testing.T) {
		reg, _ := newRegistry(t, "events")

		require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))
		require.NoError(t, reg.Replace(ctx, "e1", conference{Name: "conf2"}))

		got, err := reg.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "conf2", got.Name)
	})

	t.Run("UnregisterUnknown", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		err := reg.Unregister(ctx, "e1")
		assert.True(t, errors.IsUnknownIdentifier(err), "got %v", err)
		assert.Equal(t, 0, client.CallCount(mock.OpRemove))
	})

	t.Run("UnregisterRegistered", func(t *testing.T) {
		reg, _ := newRegistry(t, "events")

		require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))
		require.NoError(t, reg.Unregister(ctx, "e1"))

		ok, err := reg.IsRegistered(ctx, "e1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		reg, _ := newRegistry(t, "events")

		_, err := reg.Get(ctx, "e1")
		assert.True(t, errors.IsUnknownIdentifier(err), "got %v", err)
	})

	t.Run("EmptyIdentifier", func(t *testing.T) {
		reg, client := newRegistry(t, "events")

		err := reg.Register(ctx, "", conference{})
		assert.True(t, errors.IsValidationError(err), "got %v", err)
		assert.Equal(t, 0, client.CallCount(mock.OpGet))
	})

	t.Run("UnserializableValue", func(t *testing.T) {
		client := mock.New()
		reg, err := New[any](ctx, client, "events")
		require.NoError(t, err)

		err = reg.Register(ctx, "e1", make(chan int))
		assert.True(t, errors.IsValidationError(err), "got %v", err)
		assert.Equal(t, 0, client.CallCount(mock.OpAdd))
	})
}

func TestClientErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("connection reset")

	reg, client := newRegistry(t, "events")
	client.WithError(mock.OpGet, boom)

	_, err := reg.IsRegistered(ctx, "e1")
	assert.ErrorIs(t, err, boom)

	err = reg.Register(ctx, "e1", conference{Name: "conf"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.IsDuplicateRegistration(err))

	err = reg.Replace(ctx, "e1", conference{Name: "conf"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.IsModificationFailed(err))

	err = reg.Unregister(ctx, "e1")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.IsUnknownIdentifier(err))

	client.WithError(mock.OpGet, nil).WithError(mock.OpAdd, boom)
	err = reg.Register(ctx, "e1", conference{Name: "conf"})
	assert.ErrorIs(t, err, boom)
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesIndex", func(t *testing.T) {
		table := NewIndexTable()
		client := mock.New()
		reg, err := New[conference](ctx, client, "events", WithIndexTable(table))
		require.NoError(t, err)
		require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))

		require.NoError(t, reg.Destroy(ctx))
		assert.False(t, client.HasIndex("events"))
		assert.Equal(t, 0, table.Len())

		_, err = reg.IsRegistered(ctx, "e1")
		assert.True(t, errors.IsInactiveRegistry(err), "got %v", err)
	})

	t.Run("IndexAlreadyAbsent", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		client := mock.New()
		reg, err := New[conference](ctx, client, "events", WithLogger(logger))
		require.NoError(t, err)
		require.NoError(t, client.DeleteIndex(ctx, "events"))

		require.NoError(t, reg.Destroy(ctx))
		assert.Contains(t, buf.String(), "index already absent")
	})

	t.Run("ClientFailure", func(t *testing.T) {
		reg, client := newRegistry(t, "events")
		client.WithError(mock.OpDelete, stderrors.New("forbidden"))

		err := reg.Destroy(ctx)
		require.Error(t, err)
		assert.Equal(t, StateDestroyed, reg.State(), "the local mapping is cleared even when the client fails")
	})

	t.Run("Twice", func(t *testing.T) {
		reg, _ := newRegistry(t, "events")
		require.NoError(t, reg.Destroy(ctx))

		err := reg.Destroy(ctx)
		assert.True(t, errors.IsInactiveRegistry(err), "got %v", err)
	})
}

func TestContent(t *testing.T) {
	ctx := context.Background()

	client := mock.New()
	reg, err := New[conference](ctx, client, "events", WithListLimit(10))
	require.NoError(t, err)

	require.NoError(t, reg.Register(ctx, "e1", conference{Name: "conf"}))
	require.NoError(t, reg.Register(ctx, "e2", conference{Name: "meetup"}))

	content, err := reg.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]conference{
		"e1": {Name: "conf"},
		"e2": {Name: "meetup"},
	}, content)

	client.SetData("events", map[string]json.RawMessage{"bad": json.RawMessage(`[1,2]`)})
	_, err = reg.Content(ctx)
	assert.Error(t, err)
}

func TestContentBeyondListLimit(t *testing.T) {
	ctx := context.Background()
	reg, client := newRegistry(t, "events")

	data := make(map[string]json.RawMessage, 1005)
	for i := 0; i < 1005; i++ {
		data[fmt.Sprintf("e%04d", i)] = json.RawMessage(`{"name":"x"}`)
	}
	client.SetData("events", data)

	content, err := reg.Content(ctx)
	assert.True(t, errors.IsTruncated(err), "got %v", err)
	assert.Nil(t, content)

	// Exactly at the limit is complete.
	limited, err := New[conference](ctx, client, "venues", WithListLimit(3))
	require.NoError(t, err)
	for _, id := range []string{"v1", "v2", "v3"} {
		require.NoError(t, limited.Register(ctx, id, conference{Name: id}))
	}
	content, err = limited.Content(ctx)
	require.NoError(t, err)
	assert.Len(t, content, 3)

	require.NoError(t, limited.Register(ctx, "v4", conference{Name: "v4"}))
	_, err = limited.Content(ctx)
	assert.True(t, errors.IsTruncated(err), "got %v", err)
}

func TestReservedCharactersInIdentifier(t *testing.T) {
	ctx := context.Background()
	reg, client := newRegistry(t, "events")

	const id = "a/b?x=1"
	require.NoError(t, reg.Register(ctx, id, conference{Name: "conf"}))
	assert.Contains(t, client.GetData("events"), id)
	assert.NotContains(t, client.GetData("events"), "a")

	ok, err := reg.IsRegistered(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "a prefix of the identifier is a different identifier")

	got, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "conf", got.Name)
}

// The lifecycle walk-through: init, register, replace, unregister, destroy.
func TestEventsScenario(t *testing.T) {
	ctx := context.Background()
	client := mock.New()

	reg, err := New[testmodels.Event](ctx, client, "events")
	require.NoError(t, err)

	starts := strfmt.DateTime(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, reg.Register(ctx, "e1", testmodels.Event{Name: "conf", StartsAt: &starts}))

	ok, err := reg.IsRegistered(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, reg.Replace(ctx, "e1", testmodels.Event{Name: "conf2"}))
	got, err := reg.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "conf2", got.Name)
	assert.Nil(t, got.StartsAt, "replace overwrites the whole document")
	assert.JSONEq(t, `{"name":"conf2"}`, string(client.GetData("events")["e1"]))

	require.NoError(t, reg.Unregister(ctx, "e1"))
	ok, err = reg.IsRegistered(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, reg.Destroy(ctx))
	assert.False(t, client.HasIndex("events"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "destroyed", StateDestroyed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
