package storage

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/x1-arena/models"
)

// Sheet names of the exported workbook, one per part of the state.
const (
	SheetPlayers        = "players"
	SheetGroupMatches   = "group_matches"
	SheetPlayoffMatches = "playoff_matches"
)

var (
	playerHeader = []any{"player_id", "nick", "external_id", "rating", "tier", "group", "status", "points", "wins", "losses", "registered_at"}
	matchHeader  = []any{"match_id", "type", "group", "bracket_type", "phase", "player1_id", "player2_id", "player1", "player2", "score_player1", "score_player2", "winner_id", "status"}
)

// BuildWorkbook renders the state as an .xlsx file with one sheet per list.
// Passwords never reach the file.
func BuildWorkbook(state models.TournamentState) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPlayers); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetGroupMatches, SheetPlayoffMatches} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	players := make([][]any, 0, len(state.Competitors))
	for _, c := range state.Competitors {
		players = append(players, []any{
			c.ID, c.Nick, c.ExternalID, c.Rating, string(c.Tier), c.Group, string(c.Status),
			c.Points, c.Wins, c.Losses, c.RegisteredAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeSheet(f, SheetPlayers, playerHeader, players); err != nil {
		return nil, err
	}

	nameOf := func(id string) string {
		if c, ok := state.FindCompetitor(id); ok {
			return c.Nick
		}
		return ""
	}
	if err := writeSheet(f, SheetGroupMatches, matchHeader, matchRows(state.GroupMatches, nameOf)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetPlayoffMatches, matchHeader, matchRows(state.PlayoffMatches, nameOf)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func matchRows(matches []models.Match, nameOf func(string) string) [][]any {
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		winner := ""
		if m.WinnerID != nil {
			winner = *m.WinnerID
		}
		rows = append(rows, []any{
			m.ID, string(m.Kind), m.Group, string(m.Branch), m.Phase,
			m.Slot1.String(), m.Slot2.String(), m.Slot1.Describe(nameOf), m.Slot2.Describe(nameOf),
			m.Score1, m.Score2, winner, string(m.Status),
		})
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
