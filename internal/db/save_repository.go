package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/portalgo/internal/level"
	"github.com/udisondev/portalgo/internal/world"
)

// SaveRepository keeps save games in PostgreSQL. Entity and system states
// are stored as jsonb, so system state must be valid JSON.
type SaveRepository struct {
	pool *pgxpool.Pool
}

// NewSaveRepository creates a new save repository.
func NewSaveRepository(pool *pgxpool.Pool) *SaveRepository {
	return &SaveRepository{pool: pool}
}

// SaveGame writes sg in one transaction.
func (r *SaveRepository) SaveGame(ctx context.Context, sg *level.SaveGame) error {
	if sg.ID == uuid.Nil {
		return fmt.Errorf("saving %q: empty slot id", sg.Name)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO save_slots (id, name, map, curtime, created_at, next_entity_id, next_player_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sg.ID, sg.Name, sg.Map, sg.Time, sg.CreatedAt, int64(sg.IDs.Entity), int64(sg.IDs.Player),
	)
	if err != nil {
		return fmt.Errorf("inserting save slot %s: %w", sg.ID, err)
	}

	batch := &pgx.Batch{}
	for i, st := range sg.Entities {
		state, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encoding entity %d: %w", st.ID, err)
		}
		batch.Queue(
			`INSERT INTO save_entities (slot_id, seq, entity_id, classname, state)
			 VALUES ($1, $2, $3, $4, $5)`,
			sg.ID, i, int64(st.ID), st.Classname, state,
		)
	}
	for name, state := range sg.Systems {
		if !json.Valid(state) {
			return fmt.Errorf("system %s state is not JSON", name)
		}
		batch.Queue(
			`INSERT INTO save_systems (slot_id, name, state) VALUES ($1, $2, $3)`,
			sg.ID, name, state,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting save contents: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save %s: %w", sg.ID, err)
	}
	slog.Debug("save stored", "slot", sg.ID, "entities", len(sg.Entities), "systems", len(sg.Systems))
	return nil
}

// LoadGame reads a complete save. Entities come back in saved order.
func (r *SaveRepository) LoadGame(ctx context.Context, id uuid.UUID) (*level.SaveGame, error) {
	sg := &level.SaveGame{ID: id, Systems: make(map[string][]byte)}
	var nextEntity, nextPlayer int64
	err := r.pool.QueryRow(ctx,
		`SELECT name, map, curtime, created_at, next_entity_id, next_player_id
		 FROM save_slots WHERE id = $1`, id,
	).Scan(&sg.Name, &sg.Map, &sg.Time, &sg.CreatedAt, &nextEntity, &nextPlayer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("slot %s: %w", id, level.ErrSaveNotFound)
		}
		return nil, fmt.Errorf("querying save slot %s: %w", id, err)
	}
	sg.IDs = world.IDCounters{Entity: uint32(nextEntity), Player: uint32(nextPlayer)}

	rows, err := r.pool.Query(ctx,
		`SELECT state FROM save_entities WHERE slot_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading entities of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		var st world.EntityState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("decoding entity row: %w", err)
		}
		sg.Entities = append(sg.Entities, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity rows: %w", err)
	}

	sysRows, err := r.pool.Query(ctx,
		`SELECT name, state FROM save_systems WHERE slot_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("loading systems of %s: %w", id, err)
	}
	defer sysRows.Close()
	for sysRows.Next() {
		var (
			name string
			data []byte
		)
		if err := sysRows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scanning system row: %w", err)
		}
		sg.Systems[name] = data
	}
	if err := sysRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating system rows: %w", err)
	}

	return sg, nil
}

// ListSlots returns every save, newest first.
func (r *SaveRepository) ListSlots(ctx context.Context) ([]level.SlotInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, map, curtime, created_at FROM save_slots ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing save slots: %w", err)
	}
	defer rows.Close()

	var slots []level.SlotInfo
	for rows.Next() {
		var s level.SlotInfo
		if err := rows.Scan(&s.ID, &s.Name, &s.Map, &s.Time, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning save slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating save slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot removes a save with its contents.
func (r *SaveRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM save_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting save slot %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slot %s: %w", id, level.ErrSaveNotFound)
	}
	return nil
}
