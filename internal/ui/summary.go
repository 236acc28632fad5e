package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summary collects what happened during one arena run.
type Summary struct {
	Role      string
	RoomCode  string
	Duration  time.Duration
	Shots     int
	Hits      int
	Kills     int
	Score     int
	Health    int
	PeakPeers int
	Moves     uint64
	LastError error
}

// Accuracy is hits per shot, as a percentage.
func (s Summary) Accuracy() float64 {
	if s.Shots == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Shots) * 100
}

// SummaryView renders the end-of-session table.
func SummaryView(title string, s Summary) string {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Metric", "Value"})

	room := s.RoomCode
	if room == "" {
		room = "-"
	}
	t.AppendRows([]table.Row{
		{"Role", s.Role},
		{"Room", room},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Score", s.Score},
		{"Kills", s.Kills},
		{"Shots / Hits", fmt.Sprintf("%d / %d (%.0f%%)", s.Shots, s.Hits, s.Accuracy())},
		{"Health", strconv.Itoa(s.Health)},
		{"Peak peers", s.PeakPeers},
		{"Moves sent", s.Moves},
	})
	if s.LastError != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Last error", s.LastError.Error()})
	}
	return t.Render()
}

func RenderSummary(title string, s Summary) {
	fmt.Println(SummaryView(title, s))
}
