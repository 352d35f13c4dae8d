package brackets

import (
	"cmp"
	"slices"

	"github.com/Dosada05/x1-arena/models"
)

// ComputeStandings rebuilds Points, Wins and Losses of every competitor from the
// finished matches. A side scores its own games as points; a finished match
// without this competitor as winner counts as a loss, ties included.
func ComputeStandings(competitors []models.Competitor, matches []models.Match) []models.Competitor {
	type record struct{ points, wins, losses int }
	records := make(map[string]*record, len(competitors))
	for _, c := range competitors {
		records[c.ID] = &record{}
	}

	tally := func(slot models.Slot, score int, winner *string) {
		if slot.Kind != models.SlotCompetitor {
			return
		}
		rec, ok := records[slot.CompetitorID]
		if !ok {
			return
		}
		rec.points += score
		if winner != nil && *winner == slot.CompetitorID {
			rec.wins++
		} else {
			rec.losses++
		}
	}

	for _, m := range matches {
		if !m.Finished() {
			continue
		}
		tally(m.Slot1, m.Score1, m.WinnerID)
		if m.Slot2 != m.Slot1 {
			tally(m.Slot2, m.Score2, m.WinnerID)
		}
	}

	out := slices.Clone(competitors)
	for i := range out {
		rec := records[out[i].ID]
		out[i].Points = rec.points
		out[i].Wins = rec.wins
		out[i].Losses = rec.losses
	}
	return out
}

// compareRank orders competitors by points, then wins, then rating, all
// descending.
func compareRank(a, b models.Competitor) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
		return c
	}
	return cmp.Compare(b.Rating, a.Rating)
}

// RankCompetitors returns a ranked copy; equal records keep their input order.
func RankCompetitors(competitors []models.Competitor) []models.Competitor {
	ranked := slices.Clone(competitors)
	slices.SortStableFunc(ranked, compareRank)
	return ranked
}

// GroupTable is one group's ranked standings.
type GroupTable struct {
	Group       string              `json:"group"`
	Competitors []models.Competitor `json:"players"`
}

// GroupTables ranks every group separately, groups sorted by label.
// Competitors without a group are left out.
func GroupTables(competitors []models.Competitor) []GroupTable {
	byGroup := make(map[string][]models.Competitor)
	for _, c := range competitors {
		if c.HasGroup() {
			byGroup[c.Group] = append(byGroup[c.Group], c)
		}
	}

	labels := make([]string, 0, len(byGroup))
	for g := range byGroup {
		labels = append(labels, g)
	}
	slices.Sort(labels)

	tables := make([]GroupTable, 0, len(labels))
	for _, g := range labels {
		tables = append(tables, GroupTable{Group: g, Competitors: RankCompetitors(byGroup[g])})
	}
	return tables
}
