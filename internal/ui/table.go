package ui

import (
	"fmt"
	"strconv"

	"github.com/BioHazard786/eggcombat/internal/reconcile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ScoreboardView renders the remote eggs as a table.
func ScoreboardView(players []reconcile.Display) string {
	if len(players) == 0 {
		return MutedStyle.Render("No other eggs in the arena")
	}

	var rows [][]string
	for _, p := range players {
		status := IconEgg
		if p.IsDead {
			status = IconSkull
		}
		rows = append(rows, []string{
			status,
			shortID(p.ID),
			strconv.Itoa(p.Health),
			fmt.Sprintf("%.0f, %.0f", p.Position[0], p.Position[2]),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("", "Peer", "HP", "Pos").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// shortID trims auto-assigned peer ids for display.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:8] + "…"
}

type RoomInfo struct {
	RoomCode string
	RoomLink string
}

func NewRoomInfo(code, link string) *RoomInfo {
	return &RoomInfo{
		RoomCode: code,
		RoomLink: link,
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room Open!\n\n%s Code:  %s\n%s Link:  %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomCode),
		IconWeb, MutedStyle.Render(r.RoomLink),
	)

	return SuccessBoxStyle.Render(content)
}
