// Package common provides shared terminal styles and renderers for the admin
// console and the bot.
package common

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/records"
)

// Lipgloss Styles - shared by the console and the bot
var (
	TitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	CellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#FFFFFF")).Bold(true).Padding(0, 1)
	GrayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	PromptStyle = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	OKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// RenderBoard renders board rows as a boxed letter grid.
func RenderBoard(rows []string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, r := range row {
			cells = append(cells, CellStyle.Render(string(r)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderStatus renders the active session list.
func RenderStatus(online int, sessions []session.Status) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle(fmt.Sprintf("📡 在线连接 %d · 活跃会话 %d", online, len(sessions))))
	if len(sessions) == 0 {
		sb.WriteString("\n" + GrayStyle.Render("  (no active sessions)"))
		return sb.String()
	}

	lines := make([]string, 0, len(sessions))
	for _, st := range sessions {
		lines = append(lines, fmt.Sprintf("#%-4d %-22s %d/%d players  round %d  owner=%s  [%s]",
			st.ID, st.State, len(st.Players), st.RequiredPlayers, st.RoundsCompleted, TruncateName(st.Owner, nameWidth),
			JoinNames(st.Players)))
	}
	sb.WriteString("\n" + BoxStyle.Render(strings.Join(lines, "\n")))
	return sb.String()
}

// RenderRecords renders the server records.
func RenderRecords(snap records.Snapshot) string {
	best := GrayStyle.Render("-")
	if snap.BestWord != "" {
		best = fmt.Sprintf("%s (%d)", snap.BestWord, snap.BestWordScore)
	}
	high := GrayStyle.Render("-")
	if snap.HighScorer != "" {
		high = fmt.Sprintf("%d by %s", snap.HighScore, snap.HighScorer)
	}

	return TitleStyle("🏆 服务器记录") + "\n" + BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		"Best word:       "+best,
		"High score:      "+high,
		fmt.Sprintf("Games completed: %d", snap.GamesCompleted),
		fmt.Sprintf("New words:       %d", snap.NewWords),
		fmt.Sprintf("Repeated words:  %d", snap.RepeatedWords),
	))
}
