package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/x1-arena/models"
)

var (
	ErrStateNotFound  = errors.New("tournament state not found")
	ErrStateCorrupted = errors.New("stored tournament state cannot be decoded")
	ErrStateSchema    = errors.New("tournament state table is missing or has the wrong shape")
)

// stateRowID is the key of the only row the table ever holds.
const stateRowID = 1

const createStateTable = `
	CREATE TABLE IF NOT EXISTS tournament_state (
		id              SMALLINT PRIMARY KEY CHECK (id = 1),
		competitors     JSONB NOT NULL DEFAULT '[]',
		group_matches   JSONB NOT NULL DEFAULT '[]',
		playoff_matches JSONB NOT NULL DEFAULT '[]',
		started         BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type StateRepository interface {
	EnsureSchema(ctx context.Context) error
	Load(ctx context.Context) (models.TournamentState, error)
	Save(ctx context.Context, exec SQLExecutor, state models.TournamentState) error
	Clear(ctx context.Context) error
}

type postgresStateRepository struct {
	db *sql.DB
}

func NewPostgresStateRepository(db *sql.DB) StateRepository {
	return &postgresStateRepository{db: db}
}

func (r *postgresStateRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStateTable); err != nil {
		return fmt.Errorf("failed to create tournament_state table: %w", r.handleStateError(err))
	}
	return nil
}

// Load returns the stored state. A missing row is an empty, not-started
// tournament.
func (r *postgresStateRepository) Load(ctx context.Context) (models.TournamentState, error) {
	query := `
		SELECT competitors, group_matches, playoff_matches, started
		FROM tournament_state
		WHERE id = $1`

	var competitors, groupMatches, playoffMatches []byte
	var state models.TournamentState
	err := r.db.QueryRowContext(ctx, query, stateRowID).Scan(&competitors, &groupMatches, &playoffMatches, &state.Started)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TournamentState{}, nil
		}
		return models.TournamentState{}, r.handleStateError(err)
	}

	columns := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"competitors", competitors, &state.Competitors},
		{"group_matches", groupMatches, &state.GroupMatches},
		{"playoff_matches", playoffMatches, &state.PlayoffMatches},
	}
	for _, col := range columns {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return models.TournamentState{}, fmt.Errorf("%w: column %s: %v", ErrStateCorrupted, col.name, err)
		}
	}
	return state, nil
}

// Save replaces the stored state. Pass a transaction as exec to make the write
// part of a larger unit; nil uses the pool.
func (r *postgresStateRepository) Save(ctx context.Context, exec SQLExecutor, state models.TournamentState) error {
	executor := r.getExecutor(exec)

	competitors, err := marshalColumn(state.Competitors)
	if err != nil {
		return err
	}
	groupMatches, err := marshalColumn(state.GroupMatches)
	if err != nil {
		return err
	}
	playoffMatches, err := marshalColumn(state.PlayoffMatches)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournament_state (id, competitors, group_matches, playoff_matches, started, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			competitors = EXCLUDED.competitors,
			group_matches = EXCLUDED.group_matches,
			playoff_matches = EXCLUDED.playoff_matches,
			started = EXCLUDED.started,
			updated_at = NOW()`

	result, err := executor.ExecContext(ctx, query, stateRowID, competitors, groupMatches, playoffMatches, state.Started)
	if err != nil {
		return r.handleStateError(err)
	}
	return checkAffectedRows(result, ErrStateNotFound)
}

func (r *postgresStateRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tournament_state WHERE id = $1`, stateRowID)
	return r.handleStateError(err)
}

// marshalColumn encodes a list for a JSONB column; nil becomes [] so the
// NOT NULL constraint holds.
func marshalColumn[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state column: %w", err)
	}
	return data, nil
}

func (r *postgresStateRepository) handleStateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01", "42703", "23514":
			return fmt.Errorf("%w: %s", ErrStateSchema, pqErr.Message)
		}
	}
	return err
}
