package brackets

import (
	"fmt"
	"slices"

	"github.com/Dosada05/x1-arena/models"
)

const (
	upper = models.BranchUpper
	lower = models.BranchLower
)

// Shared tail of the upper bracket once four quarterfinals exist.
var upperFromQuarters = []matchSpec{
	{"u_sf_1", upper, "Upper SF 1", won("u_qf_1"), won("u_qf_2")},
	{"u_sf_2", upper, "Upper SF 2", won("u_qf_3"), won("u_qf_4")},
	{"u_final", upper, "Upper Final", won("u_sf_1"), won("u_sf_2")},
}

// Lower bracket fed by four upper quarterfinals. Semifinal losers cross over
// so nobody meets the same opponent twice in a row.
var lowerFromQuarters = []matchSpec{
	{"l_r1_1", lower, "Lower R1 1", lost("u_qf_1"), lost("u_qf_2")},
	{"l_r1_2", lower, "Lower R1 2", lost("u_qf_3"), lost("u_qf_4")},
	{"l_r2_1", lower, "Lower R2 1", won("l_r1_1"), lost("u_sf_2")},
	{"l_r2_2", lower, "Lower R2 2", won("l_r1_2"), lost("u_sf_1")},
	{"l_sf", lower, "Lower SF", won("l_r2_1"), won("l_r2_2")},
	{"l_final", lower, "Lower Final", won("l_sf"), lost("u_final")},
}

var grandFinal = matchSpec{"grand_final", models.BranchGrandFinal, "Grand Final", won("u_final"), won("l_final")}

func layout(parts ...[]matchSpec) []matchSpec {
	rows := slices.Concat(parts...)
	return append(rows, grandFinal)
}

var topologies = map[int]Topology{
	6: {Qualifiers: 6, rows: layout([]matchSpec{
		{"u_qf_1", upper, "Upper QF 1", seed(3), seed(6)},
		{"u_qf_2", upper, "Upper QF 2", seed(4), seed(5)},
		{"u_sf_1", upper, "Upper SF 1", seed(1), won("u_qf_2")},
		{"u_sf_2", upper, "Upper SF 2", seed(2), won("u_qf_1")},
		{"u_final", upper, "Upper Final", won("u_sf_1"), won("u_sf_2")},
		{"l_r1", lower, "Lower R1", lost("u_qf_1"), lost("u_qf_2")},
		{"l_r2_1", lower, "Lower R2 1", won("l_r1"), lost("u_sf_2")},
		{"l_r2_2", lower, "Lower R2 2", lost("u_sf_1"), byeSeat},
		{"l_sf", lower, "Lower SF", won("l_r2_1"), won("l_r2_2")},
		{"l_final", lower, "Lower Final", won("l_sf"), lost("u_final")},
	})},
	8: {Qualifiers: 8, rows: layout([]matchSpec{
		{"u_qf_1", upper, "Upper QF 1", seed(1), seed(8)},
		{"u_qf_2", upper, "Upper QF 2", seed(4), seed(5)},
		{"u_qf_3", upper, "Upper QF 3", seed(2), seed(7)},
		{"u_qf_4", upper, "Upper QF 4", seed(3), seed(6)},
	}, upperFromQuarters, lowerFromQuarters)},
	10: {Qualifiers: 10, rows: layout([]matchSpec{
		{"u_pre_1", upper, "Prelim 1", seed(7), seed(10)},
		{"u_pre_2", upper, "Prelim 2", seed(8), seed(9)},
		{"u_qf_1", upper, "Upper QF 1", seed(1), won("u_pre_1")},
		{"u_qf_2", upper, "Upper QF 2", seed(4), seed(5)},
		{"u_qf_3", upper, "Upper QF 3", seed(2), won("u_pre_2")},
		{"u_qf_4", upper, "Upper QF 4", seed(3), seed(6)},
	}, upperFromQuarters, []matchSpec{
		{"l_pre", lower, "Lower Prelim", lost("u_pre_1"), lost("u_pre_2")},
	}, lowerFromQuarters)},
}

// TopologyFor returns the layout for a qualifier count.
func TopologyFor(qualifiers int) (Topology, bool) {
	t, ok := topologies[qualifiers]
	return t, ok
}

// SupportedSizes lists the qualifier counts a bracket can be built for.
func SupportedSizes() []int {
	sizes := make([]int, 0, len(topologies))
	for n := range topologies {
		sizes = append(sizes, n)
	}
	slices.Sort(sizes)
	return sizes
}

// Qualifiers takes the top two of every group and returns them seeded: index 0
// is seed 1. Groups are visited by label so equal records seed deterministically.
func Qualifiers(competitors []models.Competitor) []models.Competitor {
	qualified := make([]models.Competitor, 0)
	for _, table := range GroupTables(competitors) {
		top := table.Competitors
		if len(top) > 2 {
			top = top[:2]
		}
		qualified = append(qualified, top...)
	}
	return RankCompetitors(qualified)
}

// GenerateBracket builds the playoff graph from current group standings.
func GenerateBracket(competitors []models.Competitor) ([]models.Match, error) {
	seeded := Qualifiers(competitors)
	topology, ok := TopologyFor(len(seeded))
	if !ok {
		return nil, fmt.Errorf("%w: %d qualifiers (supported: %v)", ErrUnsupportedBracketSize, len(seeded), SupportedSizes())
	}
	return topology.Build(seeded)
}
