package main

import (
	"fmt"
	"io"
	"strings"

	"salmon-stats/internal/domain"
	"salmon-stats/internal/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func memberNames(members []domain.Nickname) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.PlayerID
		if m.DisplayName != "" {
			names[i] = m.DisplayName
		}
	}
	return strings.Join(names, ", ")
}

func newTable(w io.Writer, title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	return tbl
}

func renderLeaderboard(w io.Writer, lb *service.Leaderboard) {
	boards := []struct {
		title   string
		entries []service.TeamEntry
	}{
		{"Nightless / golden eggs", lb.Nightless.GoldenEggs},
		{"Nightless / red eggs", lb.Nightless.RedEggs},
		{"Night / golden eggs", lb.Night.GoldenEggs},
		{"Night / red eggs", lb.Night.RedEggs},
	}

	for _, b := range boards {
		tbl := newTable(w, b.title)
		tbl.AppendHeader(table.Row{"#", "Members", "Golden", "Red", "Match"})
		for _, e := range b.entries {
			tbl.AppendRow(table.Row{e.Rank, memberNames(e.Members), e.GoldenEggs, e.RedEggs, e.MatchID})
		}
		tbl.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})
		tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d teams", len(b.entries))})
		tbl.Render()
	}
}

func renderRecords(w io.Writer, title string, records []service.TeamRecord) {
	tbl := newTable(w, title)
	tbl.AppendHeader(table.Row{"#", "Members", "Golden", "Match"})
	for _, r := range records {
		tbl.AppendRow(table.Row{r.Rank, memberNames(r.Members), r.GoldenEggs, r.MatchID})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d teams", len(records))})
	tbl.Render()
}

func renderWeapons(w io.Writer, rows []service.SuppliedWeapons) {
	tbl := newTable(w, "Supplied weapons")
	tbl.AppendHeader(table.Row{"#", "Player", "Weapons", "Shifts worked"})
	for _, r := range rows {
		tbl.AppendRow(table.Row{r.Rank, memberNames([]domain.Nickname{r.Player}), r.WeaponKinds, r.ShiftsWorked})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d players", len(rows))})
	tbl.Render()
}
