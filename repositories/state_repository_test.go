//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Dosada05/x1-arena/db"
	"github.com/Dosada05/x1-arena/models"
)

func setupStateRepository(t *testing.T) StateRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("arena"),
		postgres.WithUsername("arena"),
		postgres.WithPassword("arena"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Connect(dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := NewPostgresStateRepository(conn)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation must be repeatable")
	return repo
}

func TestStateRepository_RoundTrip(t *testing.T) {
	repo := setupStateRepository(t)
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Competitors)
	assert.False(t, empty.Started)

	winner := "p1"
	state := models.TournamentState{
		Competitors: []models.Competitor{
			{ID: "p1", Nick: "one", ExternalID: "111", Rating: 5000, Tier: models.TierDivine, Group: "A", Status: models.StatusActive, Points: 2, Wins: 1, PasswordHash: "$2a$10$hash"},
			{ID: "p2", Nick: "two", ExternalID: "222", Rating: 100, Tier: models.TierHerald, Status: models.StatusStandby},
		},
		GroupMatches: []models.Match{
			{ID: "g_A_0_1_1", Kind: models.KindGroup, Group: "A", Slot1: models.Concrete("p1"), Slot2: models.Concrete("p3"), Score1: 2, WinnerID: &winner, Status: models.MatchFinished},
		},
		PlayoffMatches: []models.Match{
			{ID: "grand_final", Kind: models.KindPlayoff, Branch: models.BranchGrandFinal, Slot1: models.WinnerOf("u_final"), Slot2: models.WinnerOf("l_final"), Status: models.MatchPending},
		},
		Started: true,
	}

	require.NoError(t, repo.Save(ctx, nil, state))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	state.Started = false
	state.PlayoffMatches = nil
	require.NoError(t, repo.Save(ctx, nil, state))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.Started)
	assert.Empty(t, loaded.PlayoffMatches)

	require.NoError(t, repo.Clear(ctx))
	cleared, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cleared.Competitors)
}
