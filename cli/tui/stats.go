package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/tornado/metrics"
)

// StatsModel is a Bubble Tea model for stats views.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "stats_metrics":
		content = m.renderStatsMetrics()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsMetrics() string {
	data, ok := m.data.(*metrics.Snapshot)
	if !ok {
		return "Invalid data type for stats_metrics"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Metrics: %s / %s", data.RulesetName, data.Deployment)))
	b.WriteString("\n\n")

	matcherTitle := lipgloss.NewStyle().Bold(true).Foreground(highlightColor).Render("Matcher")
	b.WriteString(matcherTitle)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Events", data.EventsProcessed, lipgloss.Color("#3B82F6")),
		m.renderStatBox("Rules Eval", data.RulesEvaluated, lipgloss.Color("#3B82F6")),
		m.renderStatBox("Rules Matched", data.RulesMatched, successColor),
		m.renderStatBox("Actions Resolved", data.ActionsResolved, successColor),
	))

	b.WriteString("\n\n")
	dispatchTitle := lipgloss.NewStyle().Bold(true).Foreground(highlightColor).Render("Dispatcher")
	b.WriteString(dispatchTitle)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Dispatched", data.ActionsDispatched, successColor),
		m.renderStatBox("Submit Failed", data.ActionsSubmitFail, errorColor),
	))

	b.WriteString("\n\n")
	execTitle := lipgloss.NewStyle().Bold(true).Foreground(highlightColor).Render("Executor")
	b.WriteString(execTitle)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatBox("Success", data.ExecutorSuccess, successColor),
		m.renderStatBox("Failure", data.ExecutorFailure, errorColor),
		m.renderStatBox("Retries", data.RetriesAttempted, warningColor),
		m.renderStatBox("Exhausted", data.RetriesExhausted, errorColor),
	))

	if len(data.FailuresByKind) > 0 {
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Failures by kind:\n"))

		kinds := make([]string, 0, len(data.FailuresByKind))
		for kind := range data.FailuresByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		for _, kind := range kinds {
			b.WriteString(fmt.Sprintf("  • %s %s\n",
				ValueStyle.Render(kind+":"),
				ErrorStyle.Render(fmt.Sprintf("%d", data.FailuresByKind[kind]))))
		}
	}

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	model := NewStatsModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
