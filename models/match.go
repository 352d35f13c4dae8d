package models

type MatchStatus string

const (
	MatchPending     MatchStatus = "pending"
	MatchFinished    MatchStatus = "finished"
	MatchInvalidated MatchStatus = "invalidated"
)

type MatchKind string

const (
	KindGroup   MatchKind = "group"
	KindPlayoff MatchKind = "playoff"
)

// BracketBranch places a playoff match in the double-elimination graph.
type BracketBranch string

const (
	BranchUpper      BracketBranch = "upper"
	BranchLower      BracketBranch = "lower"
	BranchFinal      BracketBranch = "final"
	BranchGrandFinal BracketBranch = "grand_final"
)

// Match is a single best-of-3 pairing. WinnerID is only ever set on a finished
// match; a finished tie keeps it nil.
type Match struct {
	ID       string        `json:"match_id"`
	Kind     MatchKind     `json:"type"`
	Group    string        `json:"group,omitempty"`
	Branch   BracketBranch `json:"bracket_type,omitempty"`
	Phase    string        `json:"phase,omitempty"`
	Slot1    Slot          `json:"player1_id"`
	Slot2    Slot          `json:"player2_id"`
	Score1   int           `json:"score_player1"`
	Score2   int           `json:"score_player2"`
	WinnerID *string       `json:"winner_id"`
	Status   MatchStatus   `json:"status"`
}

// WinsNeeded is the number of game wins that takes a best-of-3 match.
const WinsNeeded = 2

// Involves reports whether the competitor holds either slot.
func (m Match) Involves(competitorID string) bool {
	return m.Slot1.IsCompetitor(competitorID) || m.Slot2.IsCompetitor(competitorID)
}

// Ready reports whether both participants are known.
func (m Match) Ready() bool {
	return m.Slot1.Resolved() && m.Slot2.Resolved()
}

func (m Match) Finished() bool {
	return m.Status == MatchFinished
}
