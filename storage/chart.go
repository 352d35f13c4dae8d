package storage

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Dosada05/x1-arena/brackets"
	"github.com/Dosada05/x1-arena/models"
)

var (
	chartBackground = drawing.ColorFromHex("050505")
	chartBar        = drawing.ColorFromHex("dc2626")
	chartText       = drawing.ColorFromHex("e5e5e5")
)

// RenderStandingsChart draws a PNG bar chart of group points, one bar per
// grouped competitor, groups in label order and ranked within each group.
func RenderStandingsChart(competitors []models.Competitor) ([]byte, error) {
	var bars []chart.Value
	maxPoints := 1
	for _, table := range brackets.GroupTables(competitors) {
		for _, c := range table.Competitors {
			bars = append(bars, chart.Value{
				Label: fmt.Sprintf("%s %s", table.Group, c.Nick),
				Value: float64(c.Points),
				Style: chart.Style{FillColor: chartBar, StrokeColor: chartBar},
			})
			maxPoints = max(maxPoints, c.Points)
		}
	}
	if len(bars) == 0 {
		bars = []chart.Value{{Label: "No groups yet", Value: 0}}
	}

	graph := chart.BarChart{
		Title:      "Group standings",
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      max(640, 60*len(bars)),
		Height:     480,
		BarWidth:   40,
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 50, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: chartBackground},
		XAxis:  chart.Style{FontColor: chartText, TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:  "Points",
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxPoints)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render standings chart: %w", err)
	}
	return buf.Bytes(), nil
}
