package cmd

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/pipeline"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// renderReport はグリッド生成のページ別結果を表にするのだ。
func renderReport(r *pipeline.Report) string {
	tw := newTable(table.Row{"Page", "Layout", "Tasks", "Applied", "Failed", "Error"}, 1, 3, 4, 5)
	for _, p := range r.Pages {
		tw.AppendRow(table.Row{p.Index + 1, p.Layout, p.Tasks, len(p.Applied), len(p.Failed), truncate(p.Error, 60)})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d/%d", r.CompletedPages, r.TotalPages), "", r.TotalTasks, r.AppliedCount(), r.FailedCount(),
		footerNote(r),
	})
	return tw.Render()
}

func footerNote(r *pipeline.Report) string {
	var notes []string
	if r.Cancelled {
		notes = append(notes, "cancelled")
	}
	if r.AbortedPages > 0 {
		notes = append(notes, fmt.Sprintf("%d aborted", r.AbortedPages))
	}
	if r.SkippedShots > 0 {
		notes = append(notes, fmt.Sprintf("%d skipped", r.SkippedShots))
	}
	return strings.Join(notes, ", ")
}

// renderShots はショットの状態を表にするのだ。
func renderShots(shots []domain.Shot) string {
	tw := newTable(table.Row{"ID", "Scene", "Duration", "First", "End", "Video"}, 1, 3)
	for _, s := range shots {
		end := "-"
		if s.NeedsEndFrame || s.EndFrameImageURL != "" {
			end = frameCell(s, domain.FrameEnd)
		}
		tw.AppendRow(table.Row{
			s.ID,
			truncate(s.SceneName, 24),
			fmt.Sprintf("%.1fs", s.EffectiveDuration()),
			frameCell(s, domain.FrameFirst),
			end,
			string(s.VideoStatus.Normalize()),
		})
	}
	return tw.Render()
}

func frameCell(s domain.Shot, t domain.FrameType) string {
	f := s.Frame(t)
	cell := string(f.Status)
	if f.Status == domain.StatusGenerating {
		cell = fmt.Sprintf("%s %d%%", cell, f.Progress)
	}
	if f.Error != "" {
		cell += " (" + truncate(f.Error, 30) + ")"
	}
	return cell
}

// renderGroups はグループの構成を表にするのだ。
func renderGroups(groups []domain.ShotGroup) string {
	tw := newTable(table.Row{"#", "Name", "Shots", "Duration"}, 1, 4)
	for i, g := range groups {
		tw.AppendRow(table.Row{i + 1, g.Name, fmt.Sprint(g.SceneIDs), fmt.Sprintf("%.1fs", g.TotalDuration)})
	}
	return tw.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
