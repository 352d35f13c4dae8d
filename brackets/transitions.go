package brackets

import (
	"slices"
	"time"

	"github.com/Dosada05/x1-arena/models"
)

// Whole-state transitions. Each takes a state by value, never mutates it and
// returns a state whose standings were rebuilt from both match lists.

func withStandings(s models.TournamentState) models.TournamentState {
	s.Competitors = ComputeStandings(s.Competitors, s.AllMatches())
	return s
}

// Register adds a competitor with zeroed standings and re-runs group
// assignment for the whole pool.
func Register(s models.TournamentState, c models.Competitor) models.TournamentState {
	next := s.Clone()
	c.Tier = models.TierForRating(c.Rating)
	c.Points, c.Wins, c.Losses = 0, 0, 0
	next.Competitors = append(next.Competitors, c)
	next.Competitors, _ = AssignGroups(next.Competitors)
	return withStandings(next)
}

// RemoveCompetitor drops a competitor together with every match they hold a
// slot in, then re-assigns the remaining pool.
func RemoveCompetitor(s models.TournamentState, competitorID string) models.TournamentState {
	next := s.Clone()
	next.Competitors = slices.DeleteFunc(next.Competitors, func(c models.Competitor) bool {
		return c.ID == competitorID
	})
	involved := func(m models.Match) bool { return m.Involves(competitorID) }
	next.GroupMatches = slices.DeleteFunc(next.GroupMatches, involved)
	next.PlayoffMatches = slices.DeleteFunc(next.PlayoffMatches, involved)
	next.Competitors, _ = AssignGroups(next.Competitors)
	return withStandings(next)
}

// Start assigns groups and schedules the group stage.
func Start(s models.TournamentState, now time.Time) models.TournamentState {
	next := s.Clone()
	next.Competitors, _ = AssignGroups(next.Competitors)
	next.GroupMatches = GenerateSchedule(next.Competitors, now)
	next.Started = true
	return withStandings(next)
}

// Reset wipes both stages and returns every competitor to an unassigned,
// active, zeroed record.
func Reset(s models.TournamentState) models.TournamentState {
	next := s.Clone()
	next.GroupMatches = nil
	next.PlayoffMatches = nil
	next.Started = false
	for i := range next.Competitors {
		next.Competitors[i].Group = ""
		next.Competitors[i].Status = models.StatusActive
	}
	return withStandings(next)
}

// BuildPlayoffs replaces the playoff stage with a fresh bracket.
func BuildPlayoffs(s models.TournamentState) (models.TournamentState, error) {
	playoffs, err := GenerateBracket(s.Competitors)
	if err != nil {
		return s, err
	}
	next := s.Clone()
	next.PlayoffMatches = playoffs
	return withStandings(next), nil
}

// ApplyResult reports a score on whichever stage holds the match.
func ApplyResult(s models.TournamentState, matchID string, score1, score2 int) models.TournamentState {
	next := s.Clone()
	next.GroupMatches = ReportResult(next.GroupMatches, matchID, score1, score2)
	next.PlayoffMatches = ReportResult(next.PlayoffMatches, matchID, score1, score2)
	return withStandings(next)
}

// ApplyInvalidation invalidates a match on whichever stage holds it.
func ApplyInvalidation(s models.TournamentState, matchID string) models.TournamentState {
	next := s.Clone()
	next.GroupMatches = InvalidateResult(next.GroupMatches, matchID)
	next.PlayoffMatches = InvalidateResult(next.PlayoffMatches, matchID)
	return withStandings(next)
}

// GroupStageComplete reports whether every group match is finished.
func GroupStageComplete(s models.TournamentState) bool {
	for _, m := range s.GroupMatches {
		if !m.Finished() {
			return false
		}
	}
	return true
}
