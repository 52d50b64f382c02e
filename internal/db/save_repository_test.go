package db

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/level"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

func TestSaveRepository_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSaveRepository(pool)
	ctx := context.Background()

	sg := &level.SaveGame{
		ID:        uuid.New(),
		Name:      "quick",
		Map:       "testchmb_a_00",
		Time:      12.5,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Entities: []world.EntityState{
			{ID: 3, Classname: "info_target", TargetName: "a", Origin: model.Vec(1, 2, 3)},
			{ID: 1, Classname: "logic_relay", Behavior: []byte(`{"disabled":true}`)},
		},
		IDs:     world.IDCounters{Entity: 9, Player: 0x10000002},
		Systems: map[string][]byte{"patch": []byte(`{"spawned":[3]}`)},
	}
	require.NoError(t, repo.SaveGame(ctx, sg))

	got, err := repo.LoadGame(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, sg.Name, got.Name)
	assert.Equal(t, sg.Map, got.Map)
	assert.Equal(t, sg.Time, got.Time)
	assert.True(t, sg.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, sg.IDs, got.IDs)

	require.Len(t, got.Entities, 2)
	assert.Equal(t, uint32(3), got.Entities[0].ID, "saved order kept")
	assert.Equal(t, model.Vec(1, 2, 3), got.Entities[0].Origin)
	assert.JSONEq(t, `{"disabled":true}`, string(got.Entities[1].Behavior))
	assert.JSONEq(t, `{"spawned":[3]}`, string(got.Systems["patch"]))
}

func TestSaveRepository_Slots(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSaveRepository(pool)
	ctx := context.Background()

	now := time.Now()
	first := &level.SaveGame{ID: uuid.New(), Name: "first", Map: "m", CreatedAt: now.Add(-time.Hour)}
	second := &level.SaveGame{ID: uuid.New(), Name: "second", Map: "m", CreatedAt: now}
	require.NoError(t, repo.SaveGame(ctx, first))
	require.NoError(t, repo.SaveGame(ctx, second))

	slots, err := repo.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "second", slots[0].Name)

	require.NoError(t, repo.DeleteSlot(ctx, first.ID))
	_, err = repo.LoadGame(ctx, first.ID)
	assert.ErrorIs(t, err, level.ErrSaveNotFound)
	assert.ErrorIs(t, repo.DeleteSlot(ctx, first.ID), level.ErrSaveNotFound)
}

func TestSaveRepository_RejectsBadInput(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSaveRepository(pool)
	ctx := context.Background()

	assert.Error(t, repo.SaveGame(ctx, &level.SaveGame{Name: "no id"}))

	bad := &level.SaveGame{
		ID:      uuid.New(),
		Map:     "m",
		Systems: map[string][]byte{"raw": []byte("not json")},
	}
	assert.Error(t, repo.SaveGame(ctx, bad))

	_, err := repo.LoadGame(ctx, bad.ID)
	assert.ErrorIs(t, err, level.ErrSaveNotFound, "failed save leaves nothing behind")
}

func TestSaveRepository_WithManager(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	m := level.NewManager(level.Options{
		FS:    mapFS(),
		Store: NewSaveRepository(pool),
	})
	require.NoError(t, m.LoadLevel(ctx, "empty", world.LoadNewMap, uuid.Nil))
	m.Frame(1)

	slot, err := m.Save(ctx, "db")
	require.NoError(t, err)
	require.NoError(t, m.LoadLevel(ctx, "", world.LoadGame, slot))
	assert.InDelta(t, 1.0, m.World().Now(), 1e-9)
}

func mapFS() fstest.MapFS {
	return fstest.MapFS{
		level.MapPath("empty"): {Data: []byte("entities: []\n")},
	}
}
