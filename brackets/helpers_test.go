package brackets

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/Dosada05/x1-arena/models"
)

// fakePool builds n competitors with random ratings from a fixed seed.
func fakePool(t *testing.T, n int, seed uint64) []models.Competitor {
	t.Helper()
	faker := gofakeit.New(seed)
	pool := make([]models.Competitor, n)
	for i := range pool {
		rating := faker.Number(0, 7000)
		pool[i] = models.Competitor{
			ID:         fmt.Sprintf("p%02d", i),
			Nick:       faker.Username(),
			ExternalID: faker.Numerify("#########"),
			Rating:     rating,
			Tier:       models.TierForRating(rating),
			Status:     models.StatusActive,
		}
	}
	return pool
}

// rated builds competitors p0, p1, ... with the given ratings.
func rated(ratings ...int) []models.Competitor {
	pool := make([]models.Competitor, len(ratings))
	for i, r := range ratings {
		pool[i] = models.Competitor{
			ID:     fmt.Sprintf("p%d", i),
			Nick:   fmt.Sprintf("player-%d", i),
			Rating: r,
			Tier:   models.TierForRating(r),
			Status: models.StatusActive,
		}
	}
	return pool
}

// grouped places competitors into groups two at a time: A gets the first two,
// B the next two, and so on.
func grouped(pool []models.Competitor) []models.Competitor {
	out := make([]models.Competitor, len(pool))
	copy(out, pool)
	for i := range out {
		out[i].Group = string(rune('A' + i/2))
	}
	return out
}

func matchByID(t *testing.T, matches []models.Match, id string) models.Match {
	t.Helper()
	for _, m := range matches {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("match %q not found", id)
	return models.Match{}
}

func competitorByID(t *testing.T, pool []models.Competitor, id string) models.Competitor {
	t.Helper()
	for _, c := range pool {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("competitor %q not found", id)
	return models.Competitor{}
}
