package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/x1-arena/brackets"
	"github.com/Dosada05/x1-arena/models"
	"github.com/Dosada05/x1-arena/storage"
)

func (h *harness) register(t *testing.T, n int) []models.Competitor {
	t.Helper()
	out := make([]models.Competitor, 0, n)
	for i := range n {
		c, err := h.svc.Register(context.Background(), RegisterInput{
			Nick:       fmt.Sprintf("player%d", i),
			ExternalID: fmt.Sprintf("ext-%d", i),
			Rating:     5000 - 300*i,
		})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func (h *harness) started(t *testing.T, n int) models.TournamentState {
	t.Helper()
	h.register(t, n)
	state, err := h.svc.Start(context.Background())
	require.NoError(t, err)
	return state
}

func (h *harness) finishGroups(t *testing.T) {
	t.Helper()
	for _, m := range h.repo.snapshot().GroupMatches {
		_, err := h.svc.ReportScore(context.Background(), m.ID, ScoreInput{Score1: 2, Score2: 1})
		require.NoError(t, err)
	}
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.svc.Register(ctx, RegisterInput{Nick: "  Alpha ", ExternalID: "steam-1", Rating: 4000, Password: "hunter2"})

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Alpha", c.Nick)
	assert.Equal(t, models.TierAncient, c.Tier)
	assert.Empty(t, c.PasswordHash, "returned record must be redacted")

	stored, ok := h.repo.snapshot().FindCompetitor(c.ID)
	require.True(t, ok)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.PlayersRegistered))
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"missing nick", RegisterInput{ExternalID: "x"}, ErrValidationFailed},
		{"blank external id", RegisterInput{Nick: "n", ExternalID: "   "}, ErrValidationFailed},
		{"negative rating", RegisterInput{Nick: "n", ExternalID: "x", Rating: -1}, ErrValidationFailed},
		{"short password", RegisterInput{Nick: "n", ExternalID: "x", Password: "abc"}, ErrPasswordTooShort},
		{"duplicate external id", RegisterInput{Nick: "again", ExternalID: "ext-0"}, ErrDuplicateExternalID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.register(t, 1)

			_, err := h.svc.Register(context.Background(), tt.input)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, h.repo.snapshot().Competitors, 1)
		})
	}
}

func TestStart(t *testing.T) {
	t.Run("needs three players", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, 2)
		_, err := h.svc.Start(context.Background())
		require.ErrorIs(t, err, ErrNotEnoughPlayers)
	})

	t.Run("schedules once", func(t *testing.T) {
		h := newHarness(t)
		state := h.started(t, 6)
		assert.True(t, state.Started)
		assert.Len(t, state.GroupMatches, 3)

		_, err := h.svc.Start(context.Background())
		require.ErrorIs(t, err, ErrTournamentAlreadyStarted)
	})
}

func TestReportScore(t *testing.T) {
	h := newHarness(t)
	state := h.started(t, 6)
	id := state.GroupMatches[0].ID

	match, err := h.svc.ReportScore(context.Background(), id, ScoreInput{Score1: 2, Score2: 0})

	require.NoError(t, err)
	assert.Equal(t, models.MatchFinished, match.Status)
	require.NotNil(t, match.WinnerID)
	winner, _ := h.repo.snapshot().FindCompetitor(*match.WinnerID)
	assert.Equal(t, 2, winner.Points)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResultsReported.WithLabelValues(string(models.KindGroup))))
}

func TestReportScore_Rejections(t *testing.T) {
	h := newHarness(t)
	h.started(t, 6)
	h.finishGroups(t)
	_, err := h.svc.GeneratePlayoffs(context.Background(), false)
	require.NoError(t, err)
	groupID := h.repo.snapshot().GroupMatches[0].ID

	tests := []struct {
		name    string
		matchID string
		score   ScoreInput
		wantErr error
	}{
		{"both sides on two", groupID, ScoreInput{2, 2}, ErrInvalidScore},
		{"above two", groupID, ScoreInput{3, 0}, ErrInvalidScore},
		{"negative", groupID, ScoreInput{-1, 2}, ErrInvalidScore},
		{"unknown match", "nope", ScoreInput{2, 0}, ErrMatchNotFound},
		{"placeholders unresolved", "grand_final", ScoreInput{2, 0}, ErrMatchNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.repo.snapshot()
			_, err := h.svc.ReportScore(context.Background(), tt.matchID, tt.score)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, h.repo.snapshot())
		})
	}
}

func TestReportScore_ByeCannotWin(t *testing.T) {
	h := newHarness(t)
	h.started(t, 6)
	h.finishGroups(t)
	_, err := h.svc.GeneratePlayoffs(context.Background(), false)
	require.NoError(t, err)
	for _, id := range []string{"u_qf_2", "u_sf_1"} {
		_, err := h.svc.ReportScore(context.Background(), id, ScoreInput{Score1: 2, Score2: 0})
		require.NoError(t, err)
	}
	byeMatch, ok := h.repo.snapshot().FindMatch("l_r2_2")
	require.True(t, ok)
	require.True(t, byeMatch.Ready())
	require.Equal(t, models.Bye(), byeMatch.Slot2)
	loserID := byeMatch.Slot1.CompetitorID

	for _, score := range []ScoreInput{{Score1: 0, Score2: 2}, {Score1: 1, Score2: 1}} {
		before := h.repo.snapshot()
		_, err := h.svc.ReportScore(context.Background(), "l_r2_2", score)
		require.ErrorIs(t, err, ErrInvalidScore)
		require.ErrorIs(t, err, brackets.ErrByeCannotWin)
		assert.Equal(t, before, h.repo.snapshot())
	}

	match, err := h.svc.ReportScore(context.Background(), "l_r2_2", ScoreInput{Score1: 2, Score2: 0})
	require.NoError(t, err)
	require.NotNil(t, match.WinnerID)
	assert.Equal(t, loserID, *match.WinnerID)
	lowerSemi, _ := h.repo.snapshot().FindMatch("l_sf")
	assert.Equal(t, models.Concrete(loserID), lowerSemi.Slot2)
}

func TestInvalidateMatch(t *testing.T) {
	h := newHarness(t)
	state := h.started(t, 6)
	id := state.GroupMatches[0].ID
	_, err := h.svc.ReportScore(context.Background(), id, ScoreInput{Score1: 0, Score2: 2})
	require.NoError(t, err)

	match, err := h.svc.InvalidateMatch(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, models.MatchInvalidated, match.Status)
	for _, c := range h.repo.snapshot().Competitors {
		assert.Zero(t, c.Points, c.Nick)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ResultsInvalidated.WithLabelValues(string(models.KindGroup))))

	_, err = h.svc.InvalidateMatch(context.Background(), "nope")
	require.ErrorIs(t, err, ErrMatchNotFound)
}

func TestGeneratePlayoffs(t *testing.T) {
	ctx := context.Background()

	t.Run("not started", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, 6)
		_, err := h.svc.GeneratePlayoffs(ctx, false)
		require.ErrorIs(t, err, ErrTournamentNotStarted)
	})

	t.Run("groups still open", func(t *testing.T) {
		h := newHarness(t)
		h.started(t, 6)
		_, err := h.svc.GeneratePlayoffs(ctx, false)
		require.ErrorIs(t, err, ErrGroupStageIncomplete)
	})

	t.Run("regenerating needs force", func(t *testing.T) {
		h := newHarness(t)
		h.started(t, 6)
		h.finishGroups(t)

		state, err := h.svc.GeneratePlayoffs(ctx, false)
		require.NoError(t, err)
		assert.Len(t, state.PlayoffMatches, 11)

		_, err = h.svc.GeneratePlayoffs(ctx, false)
		require.ErrorIs(t, err, ErrPlayoffsAlreadyGenerated)

		state, err = h.svc.GeneratePlayoffs(ctx, true)
		require.NoError(t, err)
		assert.Len(t, state.PlayoffMatches, 11)
	})

	t.Run("unsupported bracket size", func(t *testing.T) {
		h := newHarness(t)
		// Three groups of one: no group matches and three qualifiers.
		state := h.started(t, 3)
		require.Empty(t, state.GroupMatches)

		_, err := h.svc.GeneratePlayoffs(ctx, false)
		require.ErrorIs(t, err, brackets.ErrUnsupportedBracketSize)
		assert.Empty(t, h.repo.snapshot().PlayoffMatches)
	})
}

func TestRemoveCompetitorAndReset(t *testing.T) {
	h := newHarness(t)
	players := h.register(t, 7)
	_, err := h.svc.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.svc.RemoveCompetitor(context.Background(), players[0].ID))
	require.ErrorIs(t, h.svc.RemoveCompetitor(context.Background(), players[0].ID), ErrPlayerNotFound)

	state := h.repo.snapshot()
	assert.Len(t, state.Competitors, 6)
	for _, m := range state.GroupMatches {
		assert.False(t, m.Involves(players[0].ID))
	}

	reset, err := h.svc.Reset(context.Background())
	require.NoError(t, err)
	assert.False(t, reset.Started)
	assert.Empty(t, reset.GroupMatches)

	require.NoError(t, h.svc.Shutdown(context.Background()))
	assert.ElementsMatch(t, storage.SnapshotKeys, h.uploader.deleted)
	raw, ok := h.uploader.object(storage.SnapshotStateKey)
	require.True(t, ok, "reset publishes the empty snapshot after clearing")
	assert.Contains(t, string(raw), `"tournament_started":false`)
}

func TestMutations_PublishAndSync(t *testing.T) {
	h := newHarness(t)
	h.register(t, 3)

	events := h.broadcaster.all()
	require.Len(t, events, 3)
	last := events[2]
	assert.Equal(t, brackets.TournamentRoom, last.room)
	assert.Equal(t, EventStateUpdated, last.eventType)
	pushed, ok := last.payload.(models.TournamentState)
	require.True(t, ok)
	assert.Len(t, pushed.Competitors, 3)

	require.NoError(t, h.svc.Shutdown(context.Background()))
	raw, ok := h.uploader.object(storage.SnapshotStateKey)
	require.True(t, ok)
	var synced models.TournamentState
	require.NoError(t, json.Unmarshal(raw, &synced))
	assert.Len(t, synced.Competitors, 3)
	for _, key := range storage.SnapshotKeys {
		_, ok := h.uploader.object(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.Players.WithLabelValues(string(models.StatusActive))))
}

func TestMutations_FailedValidationHasNoSideEffects(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Start(context.Background())
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	require.NoError(t, h.svc.Shutdown(context.Background()))

	assert.Empty(t, h.broadcaster.all())
	assert.Zero(t, h.uploader.callCount())
	assert.Zero(t, h.repo.saves)
}

func TestSyncFailureIsCountedNotReturned(t *testing.T) {
	h := newHarness(t)
	h.uploader.err = errUnavailable

	_, err := h.svc.Register(context.Background(), RegisterInput{Nick: "a", ExternalID: "a"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.SyncFailures) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStorageErrorsPropagate(t *testing.T) {
	h := newHarness(t)
	h.repo.saveErr = errUnavailable

	_, err := h.svc.Register(context.Background(), RegisterInput{Nick: "a", ExternalID: "a"})
	require.ErrorIs(t, err, errUnavailable)
	assert.Empty(t, h.broadcaster.all())

	h.repo.saveErr = nil
	h.repo.loadErr = errUnavailable
	_, err = h.svc.State(context.Background())
	require.ErrorIs(t, err, errUnavailable)
}

func TestReadViews(t *testing.T) {
	h := newHarness(t)
	players := h.register(t, 6)
	ctx := context.Background()

	state, err := h.svc.State(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Competitors, 6)

	tables, err := h.svc.Standings(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 3)

	c, err := h.svc.Competitor(ctx, players[2].ID)
	require.NoError(t, err)
	assert.Equal(t, players[2].Nick, c.Nick)

	_, err = h.svc.Competitor(ctx, "ghost")
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestConcurrentRegistrationsAreSerialized(t *testing.T) {
	h := newHarness(t)
	done := make(chan error)
	for i := range 20 {
		go func() {
			_, err := h.svc.Register(context.Background(), RegisterInput{Nick: "p", ExternalID: fmt.Sprintf("c-%d", i)})
			done <- err
		}()
	}
	for range 20 {
		require.NoError(t, <-done)
	}
	assert.Len(t, h.repo.snapshot().Competitors, 20)
}

func TestMutations_PublishInSaveOrder(t *testing.T) {
	h := newHarness(t)
	gate := newGatedBroadcaster()
	h.svc.broadcaster = gate
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() {
		_, err := h.svc.Register(ctx, RegisterInput{Nick: "first", ExternalID: "ext-first"})
		errs <- err
	}()
	<-gate.entered
	go func() {
		_, err := h.svc.Register(ctx, RegisterInput{Nick: "second", ExternalID: "ext-second"})
		errs <- err
	}()
	assert.Never(t, func() bool { return len(h.repo.snapshot().Competitors) == 2 }, 50*time.Millisecond, 5*time.Millisecond,
		"a save must wait until the previous change was published")

	close(gate.release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	var counts []int
	for _, ev := range gate.all() {
		counts = append(counts, len(ev.payload.(models.TournamentState).Competitors))
	}
	assert.Equal(t, []int{1, 2}, counts)
}

func TestWatch_HoldsOffChangesUntilDelivered(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1)
	ctx := context.Background()

	done := make(chan error, 1)
	var seen int
	err := h.svc.Watch(ctx, func(state models.TournamentState) {
		seen = len(state.Competitors)
		go func() {
			_, err := h.svc.Register(ctx, RegisterInput{Nick: "late", ExternalID: "ext-late"})
			done <- err
		}()
		assert.Never(t, func() bool { return len(h.broadcaster.all()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, seen)
	require.NoError(t, <-done)
	assert.Len(t, h.broadcaster.all(), 2)
}
