package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiquiz/internal/leaderboard"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/quiz"
)

const (
	maxContentWidth = 80
	progressWidth   = 30
)

// View implements tea.Model.
func (m *Model) View() string {
	width := m.contentWidth()
	var content string
	switch m.phase {
	case phaseSetup:
		content = m.form.view()
	case phaseLoading:
		content = m.spinner.View() + " Loading questions..."
	case phaseQuestion:
		content = m.renderQuestion(width)
	case phaseResults:
		content = m.renderResults()
	case phaseError:
		content = m.renderError(width)
	}
	help := footerStyle.Render(m.renderHelp())
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + help
	}
	content = lipgloss.NewStyle().Width(width).Render(content)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, truncateLine(help, m.width))
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return maxContentWidth
	}
	width := int(float64(m.width) * 0.70)
	if width > maxContentWidth {
		width = maxContentWidth
	}
	return maxInt(1, width)
}

func (m *Model) renderHelp() string {
	switch m.phase {
	case phaseSetup:
		return "tab/shift+tab: next field  enter: start  esc: quit"
	case phaseLoading:
		return "esc: cancel"
	case phaseQuestion:
		return fmt.Sprintf("1-%d: answer  up/down + enter: select  esc: abandon  q: quit", len(m.view.Answers))
	case phaseResults:
		return "r: play again  up/down: scroll  q: quit"
	case phaseError:
		return "r: try again  esc: setup  q: quit"
	}
	return ""
}

func (m *Model) renderQuestion(width int) string {
	v := m.view
	header := fmt.Sprintf("Question %d/%d · %s · %s", v.Number, v.Total, v.Category, v.Difficulty)
	lines := []string{mutedStyle.Render(truncateLine(header, width)), ""}
	for _, line := range wrapText(v.Question, width) {
		lines = append(lines, textStyle.Bold(true).Render(line))
	}
	lines = append(lines, "")
	for i, answer := range v.Answers {
		lines = append(lines, m.renderAnswer(i, answer, width))
	}
	lines = append(lines, "", m.renderStatus(), "", m.renderFooter())
	return strings.Join(lines, "\n")
}

func (m *Model) renderAnswer(i int, answer string, width int) string {
	v := m.view
	prefix := "  "
	if v.State == quiz.RoundActive && i == m.cursor {
		prefix = cursorStyle.Render("> ")
	}
	label := truncateLine(fmt.Sprintf("%d. %s", i+1, answer), maxInt(1, width-2))
	style := textStyle
	switch {
	case v.State == quiz.RoundActive && i == m.cursor:
		style = cursorStyle
	case v.State == quiz.RoundActive:
	case answer == v.Correct:
		style = correctStyle
	case answer == v.Choice:
		style = errorStyle
	default:
		style = mutedStyle
	}
	return prefix + style.Render(label)
}

func (m *Model) renderStatus() string {
	v := m.view
	switch v.Outcome {
	case quiz.OutcomeCorrect:
		return correctStyle.Render("Correct!")
	case quiz.OutcomeWrong:
		return errorStyle.Render("Wrong! The answer was " + v.Correct)
	case quiz.OutcomeTimedOut:
		return errorStyle.Render("Time's up! The answer was " + v.Correct)
	}
	return ""
}

func (m *Model) renderFooter() string {
	v := m.view
	timer := fmt.Sprintf("Time %ds", v.Remaining)
	if v.Warning {
		timer = warningStyle.Render(timer)
	} else {
		timer = footerStyle.Render(timer)
	}
	segments := []string{
		renderProgressBar(v.Progress, progressWidth),
		footerStyle.Render(fmt.Sprintf("Progress %d%%", v.Progress)),
		footerStyle.Render(fmt.Sprintf("Score %d", v.Score)),
		timer,
	}
	return strings.Join(segments, "  ")
}

func renderProgressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return cursorStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", width-filled))
}

func (m *Model) renderResults() string {
	s := m.summary
	lines := []string{
		titleStyle.Render("Quiz Complete!"),
		"",
		textStyle.Bold(true).Render(fmt.Sprintf("%d/%d", s.Score, s.Total)),
		textStyle.Render(fmt.Sprintf("%d%% Accuracy", s.Percentage)),
	}
	if s.Qualified {
		rank := fmt.Sprintf("Rank #%d", s.Rank)
		if style, ok := leaderboard.RankStyle(s.Rank); ok {
			rank = style.Render(rank)
		}
		lines = append(lines, "", badgeStyle.Render("★ New High Score!")+"  "+rank)
	}
	lines = append(lines, "", titleStyle.Render("Leaderboard"))
	if len(s.Leaderboard) == 0 {
		lines = append(lines, mutedStyle.Render("No high scores yet."))
	} else {
		lines = append(lines, m.results.View())
	}
	if m.boardErr != nil {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("Leaderboard unavailable: %v", m.boardErr)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderError(width int) string {
	lines := []string{
		errorStyle.Bold(true).Render("Oops! Something went wrong"),
		"",
		textStyle.Render("Failed to load questions. Please try again."),
	}
	if m.loadErr != nil {
		lines = append(lines, "")
		for _, line := range wrapText(m.loadErr.Error(), width) {
			lines = append(lines, mutedStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

var resultsColumnWidths = []int{4, 20, 7, 8, 10, 10}

// buildResultsTable lays out the leaderboard. The row of rank, when set, is selected.
func buildResultsTable(entries []model.HighScoreEntry, rank int) table.Model {
	columns := make([]table.Column, len(leaderboard.Headers))
	for i, title := range leaderboard.Headers {
		columns[i] = table.Column{Title: title, Width: resultsColumnWidths[i]}
	}
	cells := leaderboard.Rows(entries)
	rows := make([]table.Row, len(cells))
	for i, row := range cells {
		rows[i] = table.Row(row)
	}
	styles := resultsTableStyles(rank > 0)
	headerHeight := lipgloss.Height(styles.Header.Render("X"))
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, len(rows))+headerHeight),
		table.WithStyles(styles),
	)
	if rank > 0 && rank <= len(rows) {
		t.SetCursor(rank - 1)
	}
	return t
}

func resultsTableStyles(highlight bool) table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = lipgloss.NewStyle()
	if highlight {
		styles.Selected = styles.Selected.
			Foreground(lipgloss.Color("#C89A3A")).
			Bold(true)
	}
	return styles
}
