package models

import (
	"fmt"
	"strings"
)

// SlotKind discriminates the Slot union.
type SlotKind int

const (
	SlotCompetitor SlotKind = iota
	SlotBye
	SlotPending
)

// Outcome selects which side of a source match a pending slot waits for.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLose Outcome = "LOS"
)

const (
	byeToken           = "BYE"
	placeholderPrefix  = "TBD_"
	placeholderWinTail = "_" + string(OutcomeWin)
	placeholderLosTail = "_" + string(OutcomeLose)
)

// Slot is one participant position of a match: a known competitor, a bye,
// or a reference to the winner or loser of another match.
//
// On the wire a slot is a plain string: the competitor id, "BYE", or
// "TBD_<matchID>_WIN" / "TBD_<matchID>_LOS".
type Slot struct {
	Kind          SlotKind
	CompetitorID  string
	SourceMatchID string
	Outcome       Outcome
}

func Concrete(competitorID string) Slot {
	return Slot{Kind: SlotCompetitor, CompetitorID: competitorID}
}

func Bye() Slot {
	return Slot{Kind: SlotBye}
}

func WinnerOf(matchID string) Slot {
	return Slot{Kind: SlotPending, SourceMatchID: matchID, Outcome: OutcomeWin}
}

func LoserOf(matchID string) Slot {
	return Slot{Kind: SlotPending, SourceMatchID: matchID, Outcome: OutcomeLose}
}

// IsCompetitor reports whether the slot holds exactly this competitor.
func (s Slot) IsCompetitor(id string) bool {
	return s.Kind == SlotCompetitor && s.CompetitorID == id
}

// Resolved reports whether the slot no longer waits on another match.
func (s Slot) Resolved() bool {
	return s.Kind != SlotPending
}

// WaitsOn reports whether the slot is the given outcome of matchID.
func (s Slot) WaitsOn(matchID string, outcome Outcome) bool {
	return s.Kind == SlotPending && s.SourceMatchID == matchID && s.Outcome == outcome
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotBye:
		return byeToken
	case SlotPending:
		return placeholderPrefix + s.SourceMatchID + "_" + string(s.Outcome)
	default:
		return s.CompetitorID
	}
}

// Describe renders the slot for people; nameOf resolves competitor ids.
func (s Slot) Describe(nameOf func(id string) string) string {
	switch s.Kind {
	case SlotBye:
		return "BYE"
	case SlotPending:
		if s.Outcome == OutcomeWin {
			return "Winner of " + s.SourceMatchID
		}
		return "Loser of " + s.SourceMatchID
	default:
		if nameOf != nil {
			if name := nameOf(s.CompetitorID); name != "" {
				return name
			}
		}
		return "Unknown"
	}
}

// ParseSlot decodes the wire form of a slot. Any string that is neither the
// bye sentinel nor a well-formed placeholder is taken as a competitor id.
func ParseSlot(raw string) Slot {
	if raw == byeToken {
		return Bye()
	}
	if strings.HasPrefix(raw, placeholderPrefix) {
		body := strings.TrimPrefix(raw, placeholderPrefix)
		switch {
		case strings.HasSuffix(body, placeholderWinTail) && len(body) > len(placeholderWinTail):
			return WinnerOf(strings.TrimSuffix(body, placeholderWinTail))
		case strings.HasSuffix(body, placeholderLosTail) && len(body) > len(placeholderLosTail):
			return LoserOf(strings.TrimSuffix(body, placeholderLosTail))
		}
	}
	return Concrete(raw)
}

func (s Slot) MarshalText() ([]byte, error) {
	if s.Kind == SlotPending && s.SourceMatchID == "" {
		return nil, fmt.Errorf("pending slot without source match")
	}
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	*s = ParseSlot(string(text))
	return nil
}
