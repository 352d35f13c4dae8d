package models

import "time"

// CompetitorStatus reports whether a competitor holds a group slot.
type CompetitorStatus string

const (
	StatusActive  CompetitorStatus = "active"
	StatusStandby CompetitorStatus = "standby"
)

// Tier is the rank medal shown next to a competitor, derived from Rating.
type Tier string

const (
	TierHerald   Tier = "Herald"
	TierGuardian Tier = "Guardian"
	TierCrusader Tier = "Crusader"
	TierArchon   Tier = "Archon"
	TierLegend   Tier = "Legend"
	TierAncient  Tier = "Ancient"
	TierDivine   Tier = "Divine"
	TierImmortal Tier = "Immortal"
)

// tierFloors is ordered from the highest floor down.
var tierFloors = []struct {
	floor int
	tier  Tier
}{
	{5620, TierImmortal},
	{4620, TierDivine},
	{3850, TierAncient},
	{3080, TierLegend},
	{2310, TierArchon},
	{1540, TierCrusader},
	{770, TierGuardian},
}

// TierForRating maps a rating onto its tier. Anything below the Guardian floor,
// negative values included, is Herald.
func TierForRating(rating int) Tier {
	for _, f := range tierFloors {
		if rating >= f.floor {
			return f.tier
		}
	}
	return TierHerald
}

// Competitor is a registered player. Points, Wins and Losses are a derived view
// rebuilt from the match lists and must never be edited directly.
type Competitor struct {
	ID           string           `json:"player_id"`
	Nick         string           `json:"nick"`
	ExternalID   string           `json:"external_id"`
	Rating       int              `json:"rating"`
	Tier         Tier             `json:"tier"`
	Group        string           `json:"group,omitempty"`
	Status       CompetitorStatus `json:"status"`
	RegisteredAt time.Time        `json:"registered_at"`
	PasswordHash string           `json:"password_hash,omitempty"`

	Points int `json:"points"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// HasGroup reports whether the competitor was placed in a group.
func (c Competitor) HasGroup() bool {
	return c.Group != ""
}
