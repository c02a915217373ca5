package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/CODERTG2/dropbox-assignment-tracker/internal/models"
	"github.com/CODERTG2/dropbox-assignment-tracker/internal/storage"
)

const recentLimit = 15

type HistoryView struct {
	container  *fyne.Container
	db         *storage.Database
	dateRange  *widget.Select
	stats      *widget.Label
	recent     *widget.Label
	refreshBtn *widget.Button
}

func NewHistoryView(db *storage.Database) *HistoryView {
	hv := &HistoryView{
		db:     db,
		stats:  widget.NewLabel(""),
		recent: widget.NewLabel(""),
	}
	hv.setup()
	return hv
}

func (hv *HistoryView) setup() {
	title := widget.NewLabelWithStyle("Save History", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	hv.refreshBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), hv.Refresh)

	// 时间范围选择
	hv.dateRange = widget.NewSelect(
		[]string{"Today", "This Week", "This Month", "All Time"},
		func(selected string) {
			hv.updateStats(selected)
		},
	)

	toolbar := container.NewHBox(
		widget.NewLabel("Time Range:"),
		hv.dateRange,
		hv.refreshBtn,
	)

	hv.recent.Wrapping = fyne.TextWrapWord

	hv.container = container.NewBorder(
		container.NewVBox(
			title,
			toolbar,
			hv.stats,
			widget.NewLabelWithStyle("Recent Saves", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		),
		nil, nil, nil,
		container.NewVScroll(hv.recent),
	)

	hv.dateRange.SetSelected("All Time")
}

// Refresh 重新读取当前范围的统计
func (hv *HistoryView) Refresh() {
	if selected := hv.dateRange.Selected; selected != "" {
		hv.updateStats(selected)
	}
}

func rangeStart(timeRange string, now time.Time) time.Time {
	switch timeRange {
	case "Today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "This Week":
		start := now.AddDate(0, 0, -int(now.Weekday()))
		return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	case "This Month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}
}

func (hv *HistoryView) updateStats(timeRange string) {
	if hv.db == nil {
		hv.stats.SetText("History is unavailable")
		return
	}

	now := time.Now()
	start := rangeStart(timeRange, now).UTC()

	stats, err := hv.db.GetHistoryStats(start, now.UTC().Add(time.Minute))
	if err != nil {
		slog.Error("load history stats failed", "error", err)
		return
	}
	hv.stats.SetText(formatStats(stats))

	events, err := hv.db.RecentSaves(recentLimit)
	if err != nil {
		slog.Error("load recent saves failed", "error", err)
		return
	}
	hv.recent.SetText(formatEvents(events))
}

func formatStats(stats *models.HistoryStats) string {
	return fmt.Sprintf(
		"Total Saves: %d\n"+
			"New Assignments: %d\n"+
			"Sheet Failures: %d\n"+
			"Metadata Failures: %d",
		stats.TotalSaves,
		stats.NewAssignments,
		stats.SheetFailures,
		stats.TagFailures,
	)
}

func formatEvents(events []*models.SaveEvent) string {
	if len(events) == 0 {
		return "No saves yet"
	}
	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		outcome := "ok"
		if e.Error != "" {
			outcome = e.Error
		}
		fmt.Fprintf(&b, "%s  %s [%s] %s: %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Assignment, e.Progress, e.FileName, outcome)
	}
	return b.String()
}

func (hv *HistoryView) Container() *fyne.Container {
	return hv.container
}
