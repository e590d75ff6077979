package leaderboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const maxNameWidth = 20

var rankStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#D4AF37")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#CD7F32")).Bold(true),
}

// RankStyle returns the gold, silver or bronze style of a 1-based rank. ok is false
// below third place.
func RankStyle(rank int) (style lipgloss.Style, ok bool) {
	if rank < 1 || rank > len(rankStyles) {
		return lipgloss.NewStyle(), false
	}
	return rankStyles[rank-1], true
}

// Rows formats entries as table cells: rank, player, score, percentage, difficulty, date.
func Rows(entries []model.HighScoreEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		date := ""
		if !e.Date.IsZero() {
			date = e.Date.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{
			fmt.Sprintf("#%d", i+1),
			runewidth.Truncate(e.PlayerName, maxNameWidth, "…"),
			fmt.Sprintf("%d/%d", e.Score, e.Total),
			fmt.Sprintf("%d%%", e.Percentage),
			e.Difficulty.Label(),
			date,
		})
	}
	return rows
}

// Headers are the column titles matching Rows.
var Headers = []string{"Rank", "Player", "Score", "Accuracy", "Difficulty", "Date"}

// Render prints the board as an aligned table. With useColor the top three ranks
// are styled gold, silver and bronze.
func Render(w io.Writer, entries []model.HighScoreEntry, useColor bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No high scores yet.")
		return err
	}
	rightAlign := map[int]bool{2: true, 3: true}
	lines := formatTable(Headers, Rows(entries), rightAlign)
	for i, line := range lines {
		rank := i - 1
		if useColor && rank >= 0 && rank < len(rankStyles) {
			line = rankStyles[rank].Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := runewidth.StringWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}
