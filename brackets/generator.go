package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/x1-arena/models"
)

var ErrUnsupportedBracketSize = errors.New("unsupported number of qualifiers for a double-elimination bracket")

// seat describes where a participant of a bracket match comes from: a seed
// (1-based), a bye, or the winner or loser of an earlier match.
type seat struct {
	seed    int
	bye     bool
	source  string
	outcome models.Outcome
}

func seed(n int) seat          { return seat{seed: n} }
func won(matchID string) seat  { return seat{source: matchID, outcome: models.OutcomeWin} }
func lost(matchID string) seat { return seat{source: matchID, outcome: models.OutcomeLose} }

var byeSeat = seat{bye: true}

// matchSpec is one row of a bracket topology.
type matchSpec struct {
	id     string
	branch models.BracketBranch
	phase  string
	a, b   seat
}

// Topology is a fixed double-elimination layout for one qualifier count.
type Topology struct {
	Qualifiers int
	rows       []matchSpec
}

// Build places the ranked qualifiers into the layout. Seats filled by seeds
// get concrete competitor ids; everything else becomes a placeholder.
func (t Topology) Build(ranked []models.Competitor) ([]models.Match, error) {
	if len(ranked) != t.Qualifiers {
		return nil, fmt.Errorf("topology for %d qualifiers given %d", t.Qualifiers, len(ranked))
	}

	matches := make([]models.Match, 0, len(t.rows))
	for _, row := range t.rows {
		matches = append(matches, models.Match{
			ID:     row.id,
			Kind:   models.KindPlayoff,
			Branch: row.branch,
			Phase:  row.phase,
			Slot1:  row.a.slot(ranked),
			Slot2:  row.b.slot(ranked),
			Status: models.MatchPending,
		})
	}
	return matches, nil
}

// MatchIDs lists the ids the topology creates, in creation order.
func (t Topology) MatchIDs() []string {
	ids := make([]string, len(t.rows))
	for i, row := range t.rows {
		ids[i] = row.id
	}
	return ids
}

func (s seat) slot(ranked []models.Competitor) models.Slot {
	switch {
	case s.bye:
		return models.Bye()
	case s.source != "":
		if s.outcome == models.OutcomeWin {
			return models.WinnerOf(s.source)
		}
		return models.LoserOf(s.source)
	default:
		return models.Concrete(ranked[s.seed-1].ID)
	}
}
