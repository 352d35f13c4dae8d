package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/x1-arena/models"
)

// GenerateSchedule creates the group stage: within every group of active
// competitors each pair meets once. Groups are visited in order of first
// appearance and pairs follow the input order, so match ids only differ
// between runs by the createdAt stamp.
func GenerateSchedule(competitors []models.Competitor, createdAt time.Time) []models.Match {
	groups := make([]string, 0, len(groupLabels))
	members := make(map[string][]string)
	for _, c := range competitors {
		if c.Status != models.StatusActive || !c.HasGroup() {
			continue
		}
		if _, seen := members[c.Group]; !seen {
			groups = append(groups, c.Group)
		}
		members[c.Group] = append(members[c.Group], c.ID)
	}

	stamp := createdAt.UnixMilli()
	matches := make([]models.Match, 0)
	for _, group := range groups {
		ids := members[group]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				matches = append(matches, models.Match{
					ID:     fmt.Sprintf("g_%s_%d_%d_%d", group, i, j, stamp),
					Kind:   models.KindGroup,
					Group:  group,
					Slot1:  models.Concrete(ids[i]),
					Slot2:  models.Concrete(ids[j]),
					Status: models.MatchPending,
				})
			}
		}
	}

	return matches
}
