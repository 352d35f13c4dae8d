package brackets

import (
	"cmp"
	"slices"

	"github.com/Dosada05/x1-arena/models"
)

var groupLabels = []string{"A", "B", "C", "D", "E"}

// GroupCountFor picks how many groups a pool of n competitors is split into.
func GroupCountFor(n int) int {
	switch {
	case n >= 25:
		return 5
	case n > 18:
		return 4
	default:
		return 3
	}
}

// AssignGroups distributes competitors over groups in snake order by rating.
// The highest-rated floor(n/g)*g competitors become active in a group; the rest
// are put on standby without one. The returned slice keeps the input order and
// the input is left untouched.
func AssignGroups(competitors []models.Competitor) ([]models.Competitor, int) {
	groupCount := GroupCountFor(len(competitors))
	playable := len(competitors) / groupCount * groupCount

	order := make([]int, len(competitors))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(competitors[b].Rating, competitors[a].Rating)
	})

	out := slices.Clone(competitors)
	for i := range out {
		out[i].Group = ""
		out[i].Status = models.StatusStandby
	}

	snake := snakeOrder(groupLabels[:groupCount], playable/groupCount)
	for rank, idx := range order[:playable] {
		out[idx].Group = snake[rank]
		out[idx].Status = models.StatusActive
	}

	return out, groupCount
}

// snakeOrder lists group labels row by row, reversing every other row.
func snakeOrder(labels []string, rows int) []string {
	order := make([]string, 0, rows*len(labels))
	forward := true
	for r := 0; r < rows; r++ {
		row := slices.Clone(labels)
		if !forward {
			slices.Reverse(row)
		}
		order = append(order, row...)
		forward = !forward
	}
	return order
}
