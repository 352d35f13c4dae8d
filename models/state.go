package models

import "slices"

// TournamentState is the aggregate every transition reads and produces.
type TournamentState struct {
	Competitors    []Competitor `json:"players"`
	GroupMatches   []Match      `json:"group_matches"`
	PlayoffMatches []Match      `json:"playoff_matches"`
	Started        bool         `json:"tournament_started"`
}

// Clone returns a copy that shares no slice storage with s.
func (s TournamentState) Clone() TournamentState {
	return TournamentState{
		Competitors:    slices.Clone(s.Competitors),
		GroupMatches:   slices.Clone(s.GroupMatches),
		PlayoffMatches: slices.Clone(s.PlayoffMatches),
		Started:        s.Started,
	}
}

// AllMatches returns group matches followed by playoff matches.
func (s TournamentState) AllMatches() []Match {
	return slices.Concat(s.GroupMatches, s.PlayoffMatches)
}

// Redacted drops credentials so the state can leave the process.
func (s TournamentState) Redacted() TournamentState {
	out := s.Clone()
	for i := range out.Competitors {
		out.Competitors[i].PasswordHash = ""
	}
	return out
}

func (s TournamentState) FindCompetitor(id string) (Competitor, bool) {
	for _, c := range s.Competitors {
		if c.ID == id {
			return c, true
		}
	}
	return Competitor{}, false
}

func (s TournamentState) FindByExternalID(externalID string) (Competitor, bool) {
	for _, c := range s.Competitors {
		if c.ExternalID == externalID {
			return c, true
		}
	}
	return Competitor{}, false
}

// FindMatch looks in both stages.
func (s TournamentState) FindMatch(id string) (Match, bool) {
	for _, m := range s.AllMatches() {
		if m.ID == id {
			return m, true
		}
	}
	return Match{}, false
}

// CountByStatus tallies competitors per status.
func (s TournamentState) CountByStatus() map[CompetitorStatus]int {
	counts := map[CompetitorStatus]int{StatusActive: 0, StatusStandby: 0}
	for _, c := range s.Competitors {
		counts[c.Status]++
	}
	return counts
}
