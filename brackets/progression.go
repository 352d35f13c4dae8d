package brackets

import (
	"errors"
	"slices"

	"github.com/Dosada05/x1-arena/models"
)

// Outcome of a reported score. Winner and Loser are nil on a tie.
type Outcome struct {
	Winner *models.Slot
	Loser  *models.Slot
}

// Decide compares the two sides of a match.
func Decide(m models.Match, score1, score2 int) Outcome {
	switch {
	case score1 > score2:
		return Outcome{Winner: &m.Slot1, Loser: &m.Slot2}
	case score2 > score1:
		return Outcome{Winner: &m.Slot2, Loser: &m.Slot1}
	default:
		return Outcome{}
	}
}

// ErrByeCannotWin rejects a score that would let a bye win or draw a match.
var ErrByeCannotWin = errors.New("a bye cannot win or draw a match")

// CheckResult reports whether the score may be recorded for m. Against a bye
// only the real competitor can come out ahead.
func CheckResult(m models.Match, score1, score2 int) error {
	if m.Slot1.Kind != models.SlotBye && m.Slot2.Kind != models.SlotBye {
		return nil
	}
	outcome := Decide(m, score1, score2)
	if outcome.Winner == nil || outcome.Winner.Kind == models.SlotBye {
		return ErrByeCannotWin
	}
	return nil
}

// ReportResult records a score and finishes the match, whatever state it was
// in. For playoff matches every slot waiting on this match is then bound to the
// winner or loser. Binding happens once per report and does not cascade; later
// reports on downstream matches carry the result further. Unknown ids leave the
// list unchanged.
func ReportResult(matches []models.Match, matchID string, score1, score2 int) []models.Match {
	idx := slices.IndexFunc(matches, func(m models.Match) bool { return m.ID == matchID })
	if idx < 0 {
		return matches
	}

	out := slices.Clone(matches)
	m := out[idx]
	outcome := Decide(m, score1, score2)

	m.Score1 = score1
	m.Score2 = score2
	m.Status = models.MatchFinished
	m.WinnerID = nil
	if outcome.Winner != nil {
		id := outcome.Winner.String()
		m.WinnerID = &id
	}
	out[idx] = m

	if m.Kind == models.KindPlayoff {
		resolvePlaceholders(out, matchID, outcome)
	}
	return out
}

// resolvePlaceholders rewrites, in place, slots waiting on the given match.
// A tie binds nothing.
func resolvePlaceholders(matches []models.Match, sourceID string, outcome Outcome) {
	if outcome.Winner == nil {
		return
	}
	bind := func(slot models.Slot) models.Slot {
		switch {
		case slot.WaitsOn(sourceID, models.OutcomeWin):
			return *outcome.Winner
		case slot.WaitsOn(sourceID, models.OutcomeLose) && outcome.Loser != nil:
			return *outcome.Loser
		}
		return slot
	}
	for i := range matches {
		if matches[i].ID == sourceID {
			continue
		}
		matches[i].Slot1 = bind(matches[i].Slot1)
		matches[i].Slot2 = bind(matches[i].Slot2)
	}
}

// InvalidateResult clears a match for correction. Slots already bound from its
// earlier result stay bound. Unknown ids leave the list unchanged.
func InvalidateResult(matches []models.Match, matchID string) []models.Match {
	idx := slices.IndexFunc(matches, func(m models.Match) bool { return m.ID == matchID })
	if idx < 0 {
		return matches
	}

	out := slices.Clone(matches)
	out[idx].Score1 = 0
	out[idx].Score2 = 0
	out[idx].WinnerID = nil
	out[idx].Status = models.MatchInvalidated
	return out
}
