package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/x1-arena/brackets"
	"github.com/Dosada05/x1-arena/models"
	"github.com/Dosada05/x1-arena/repositories"
	"github.com/Dosada05/x1-arena/utils"
)

// EventStateUpdated is pushed to spectators after every change.
const EventStateUpdated = "STATE_UPDATED"

// MinPlayersToStart is the smallest pool the group stage can be built from.
const MinPlayersToStart = 3

// Broadcaster delivers events to connected spectators.
type Broadcaster interface {
	Publish(room, eventType string, payload any)
}

type RegisterInput struct {
	Nick       string `json:"nick"`
	ExternalID string `json:"external_id"`
	Rating     int    `json:"rating"`
	Password   string `json:"password,omitempty"`
}

type ScoreInput struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}

type TournamentService interface {
	State(ctx context.Context) (models.TournamentState, error)
	Standings(ctx context.Context) ([]brackets.GroupTable, error)
	Competitor(ctx context.Context, id string) (models.Competitor, error)
	// Watch hands the current state to fn while no change can be saved or
	// published, so a subscriber registered beforehand misses no update.
	Watch(ctx context.Context, fn func(models.TournamentState)) error

	Register(ctx context.Context, input RegisterInput) (models.Competitor, error)
	RemoveCompetitor(ctx context.Context, id string) error
	Start(ctx context.Context) (models.TournamentState, error)
	Reset(ctx context.Context) (models.TournamentState, error)
	GeneratePlayoffs(ctx context.Context, force bool) (models.TournamentState, error)
	ReportScore(ctx context.Context, matchID string, input ScoreInput) (models.Match, error)
	InvalidateMatch(ctx context.Context, matchID string) (models.Match, error)

	// Shutdown waits for in-flight snapshot syncs.
	Shutdown(ctx context.Context) error
}

type tournamentService struct {
	repo        repositories.StateRepository
	syncer      SnapshotSyncer
	broadcaster Broadcaster
	metrics     *Metrics
	syncTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	// mu serializes load-transition-save so concurrent requests never
	// overwrite each other.
	mu      sync.Mutex
	pending sync.WaitGroup
}

// NewTournamentService wires the state store with its side channels. syncer
// and broadcaster may be nil.
func NewTournamentService(
	repo repositories.StateRepository,
	syncer SnapshotSyncer,
	broadcaster Broadcaster,
	metrics *Metrics,
	syncTimeout time.Duration,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		repo:        repo,
		syncer:      syncer,
		broadcaster: broadcaster,
		metrics:     metrics,
		syncTimeout: syncTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *tournamentService) load(ctx context.Context) (models.TournamentState, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return models.TournamentState{}, fmt.Errorf("failed to load tournament state: %w", err)
	}
	return state, nil
}

func (s *tournamentService) State(ctx context.Context) (models.TournamentState, error) {
	state, err := s.load(ctx)
	if err != nil {
		return models.TournamentState{}, err
	}
	return state.Redacted(), nil
}

func (s *tournamentService) Watch(ctx context.Context, fn func(models.TournamentState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.State(ctx)
	if err != nil {
		return err
	}
	fn(state)
	return nil
}

func (s *tournamentService) Standings(ctx context.Context) ([]brackets.GroupTable, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return brackets.GroupTables(state.Competitors), nil
}

func (s *tournamentService) Competitor(ctx context.Context, id string) (models.Competitor, error) {
	state, err := s.State(ctx)
	if err != nil {
		return models.Competitor{}, err
	}
	c, ok := state.FindCompetitor(id)
	if !ok {
		return models.Competitor{}, ErrPlayerNotFound
	}
	return c, nil
}

type transition func(models.TournamentState) (models.TournamentState, error)

// mutate runs one transition under the lock and persists its result. Spectator
// push and snapshot sync follow a successful save.
func (s *tournamentService) mutate(ctx context.Context, op string, fn transition) (models.TournamentState, error) {
	return s.mutateThen(ctx, op, fn, func(ctx context.Context, public models.TournamentState) error {
		return s.syncer.Sync(ctx, public)
	})
}

// mutateThen is mutate with a custom snapshot step.
func (s *tournamentService) mutateThen(ctx context.Context, op string, fn transition, snapshot func(context.Context, models.TournamentState) error) (models.TournamentState, error) {
	next, public, err := s.commit(ctx, op, fn)
	if err != nil {
		return models.TournamentState{}, err
	}

	s.logger.Info("tournament state updated",
		slog.String("operation", op),
		slog.Int("players", len(next.Competitors)),
		slog.Int("group_matches", len(next.GroupMatches)),
		slog.Int("playoff_matches", len(next.PlayoffMatches)))

	s.syncInBackground(op, func(ctx context.Context) error { return snapshot(ctx, public) })
	return next, nil
}

// commit applies fn to the stored state and saves the result. Gauges and
// spectators are updated before the lock is released so they observe states
// in the order they were saved.
func (s *tournamentService) commit(ctx context.Context, op string, fn transition) (next, public models.TournamentState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return models.TournamentState{}, models.TournamentState{}, err
	}
	next, err = fn(current)
	if err != nil {
		return models.TournamentState{}, models.TournamentState{}, err
	}
	if err := s.repo.Save(ctx, nil, next); err != nil {
		return models.TournamentState{}, models.TournamentState{}, fmt.Errorf("failed to save tournament state after %s: %w", op, err)
	}

	public = next.Redacted()
	s.metrics.observeState(next)
	if s.broadcaster != nil {
		s.broadcaster.Publish(brackets.TournamentRoom, EventStateUpdated, public)
	}
	return next, public, nil
}

// syncInBackground runs a snapshot operation detached from the request with
// its own timeout. Failures are logged and counted, never returned.
func (s *tournamentService) syncInBackground(op string, run func(ctx context.Context) error) {
	if s.syncer == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()
		if err := run(ctx); err != nil {
			if s.metrics != nil {
				s.metrics.SyncFailures.Inc()
			}
			s.logger.Error("snapshot sync failed", slog.String("operation", op), slog.Any("error", err))
		}
	}()
}

func (s *tournamentService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *tournamentService) Register(ctx context.Context, input RegisterInput) (models.Competitor, error) {
	input.Nick = strings.TrimSpace(input.Nick)
	input.ExternalID = strings.TrimSpace(input.ExternalID)
	switch {
	case input.Nick == "":
		return models.Competitor{}, fmt.Errorf("%w: nick is required", ErrValidationFailed)
	case input.ExternalID == "":
		return models.Competitor{}, fmt.Errorf("%w: external_id is required", ErrValidationFailed)
	case input.Rating < 0:
		return models.Competitor{}, fmt.Errorf("%w: rating must not be negative", ErrValidationFailed)
	}

	competitor := models.Competitor{
		ID:           uuid.NewString(),
		Nick:         input.Nick,
		ExternalID:   input.ExternalID,
		Rating:       input.Rating,
		Status:       models.StatusActive,
		RegisteredAt: s.now().UTC(),
	}
	if input.Password != "" {
		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			return models.Competitor{}, err
		}
		competitor.PasswordHash = hash
	}

	next, err := s.mutate(ctx, "register", func(state models.TournamentState) (models.TournamentState, error) {
		if _, exists := state.FindByExternalID(competitor.ExternalID); exists {
			return state, ErrDuplicateExternalID
		}
		return brackets.Register(state, competitor), nil
	})
	if err != nil {
		return models.Competitor{}, err
	}
	if s.metrics != nil {
		s.metrics.PlayersRegistered.Inc()
	}

	registered, _ := next.Redacted().FindCompetitor(competitor.ID)
	return registered, nil
}

func (s *tournamentService) RemoveCompetitor(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "remove_player", func(state models.TournamentState) (models.TournamentState, error) {
		if _, ok := state.FindCompetitor(id); !ok {
			return state, ErrPlayerNotFound
		}
		return brackets.RemoveCompetitor(state, id), nil
	})
	return err
}

func (s *tournamentService) Start(ctx context.Context) (models.TournamentState, error) {
	next, err := s.mutate(ctx, "start", func(state models.TournamentState) (models.TournamentState, error) {
		if state.Started {
			return state, ErrTournamentAlreadyStarted
		}
		if len(state.Competitors) < MinPlayersToStart {
			return state, fmt.Errorf("%w: %d registered", ErrNotEnoughPlayers, len(state.Competitors))
		}
		return brackets.Start(state, s.now()), nil
	})
	if err != nil {
		return models.TournamentState{}, err
	}
	return next.Redacted(), nil
}

// Reset clears the remote snapshot before publishing the empty one.
func (s *tournamentService) Reset(ctx context.Context) (models.TournamentState, error) {
	reset := func(state models.TournamentState) (models.TournamentState, error) {
		return brackets.Reset(state), nil
	}
	next, err := s.mutateThen(ctx, "reset", reset, func(ctx context.Context, public models.TournamentState) error {
		if err := s.syncer.Clear(ctx); err != nil {
			return err
		}
		return s.syncer.Sync(ctx, public)
	})
	if err != nil {
		return models.TournamentState{}, err
	}
	return next.Redacted(), nil
}

func (s *tournamentService) GeneratePlayoffs(ctx context.Context, force bool) (models.TournamentState, error) {
	next, err := s.mutate(ctx, "generate_playoffs", func(state models.TournamentState) (models.TournamentState, error) {
		if !state.Started {
			return state, ErrTournamentNotStarted
		}
		if !brackets.GroupStageComplete(state) {
			return state, ErrGroupStageIncomplete
		}
		if len(state.PlayoffMatches) > 0 && !force {
			return state, ErrPlayoffsAlreadyGenerated
		}
		return brackets.BuildPlayoffs(state)
	})
	if err != nil {
		return models.TournamentState{}, err
	}
	return next.Redacted(), nil
}

func validateScore(input ScoreInput) error {
	inRange := func(v int) bool { return v >= 0 && v <= models.WinsNeeded }
	if !inRange(input.Score1) || !inRange(input.Score2) {
		return ErrInvalidScore
	}
	if input.Score1 == models.WinsNeeded && input.Score2 == models.WinsNeeded {
		return ErrInvalidScore
	}
	return nil
}

func (s *tournamentService) ReportScore(ctx context.Context, matchID string, input ScoreInput) (models.Match, error) {
	if err := validateScore(input); err != nil {
		return models.Match{}, err
	}

	var kind models.MatchKind
	next, err := s.mutate(ctx, "report_score", func(state models.TournamentState) (models.TournamentState, error) {
		match, ok := state.FindMatch(matchID)
		if !ok {
			return state, ErrMatchNotFound
		}
		if !match.Ready() {
			return state, ErrMatchNotReady
		}
		if err := brackets.CheckResult(match, input.Score1, input.Score2); err != nil {
			return state, fmt.Errorf("%w: %w", ErrInvalidScore, err)
		}
		kind = match.Kind
		return brackets.ApplyResult(state, matchID, input.Score1, input.Score2), nil
	})
	if err != nil {
		return models.Match{}, err
	}
	if s.metrics != nil {
		s.metrics.ResultsReported.WithLabelValues(string(kind)).Inc()
	}

	match, _ := next.FindMatch(matchID)
	return match, nil
}

func (s *tournamentService) InvalidateMatch(ctx context.Context, matchID string) (models.Match, error) {
	var kind models.MatchKind
	next, err := s.mutate(ctx, "invalidate_match", func(state models.TournamentState) (models.TournamentState, error) {
		match, ok := state.FindMatch(matchID)
		if !ok {
			return state, ErrMatchNotFound
		}
		kind = match.Kind
		return brackets.ApplyInvalidation(state, matchID), nil
	})
	if err != nil {
		return models.Match{}, err
	}
	if s.metrics != nil {
		s.metrics.ResultsInvalidated.WithLabelValues(string(kind)).Inc()
	}

	match, _ := next.FindMatch(matchID)
	return match, nil
}
