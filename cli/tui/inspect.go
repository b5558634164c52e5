package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/tornado/cli/reader"
)

// InspectModel is a Bubble Tea model for inspect views.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case "inspect_config":
		content = m.renderInspectConfig()
	case "inspect_draft":
		content = m.renderInspectDraft()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectConfig() string {
	data, ok := m.data.(*reader.InspectConfigResponse)
	if !ok {
		return "Invalid data type for inspect_config"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Live Config"))
	b.WriteString("\n\n")
	renderNode(&b, data.Tree, 0)

	return BoxStyle.Render(b.String())
}

func (m InspectModel) renderInspectDraft() string {
	data, ok := m.data.(*reader.InspectDraftResponse)
	if !ok {
		return "Invalid data type for inspect_draft"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Draft Details"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Draft ID:"),
		ValueStyle.Render(data.DraftID)))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Owner:"),
		ValueStyle.Render(data.OwnerUser)))
	b.WriteString(fmt.Sprintf("%s %d\n",
		LabelStyle.Render("Created Ms:"),
		data.CreatedMs))
	b.WriteString(fmt.Sprintf("%s %d\n",
		LabelStyle.Render("Updated Ms:"),
		data.UpdatedMs))
	b.WriteString("\n")

	renderNode(&b, data.Tree, 0)

	return BoxStyle.Render(b.String())
}

// renderNode recursively renders a NodeSummary tree, indenting children
// under their parent Filter and listing a Ruleset leaf's rule names.
func renderNode(b *strings.Builder, node reader.NodeSummary, depth int) {
	indent := TreeIndentStyle.Render(strings.Repeat("  ", depth) + "└─ ")

	if !node.IsFilter {
		b.WriteString(fmt.Sprintf("%s%s %s\n", indent,
			ValueStyle.Render(node.Name),
			LabelStyle.Render(fmt.Sprintf("(%d rules)", len(node.Rules)))))
		for _, rule := range node.Rules {
			ruleIndent := TreeIndentStyle.Render(strings.Repeat("  ", depth+1) + "• ")
			b.WriteString(fmt.Sprintf("%s%s\n", ruleIndent, ValueStyle.Render(rule)))
		}
		return
	}

	status := "inactive"
	if node.Active {
		status = "matched"
	}
	b.WriteString(fmt.Sprintf("%s%s %s\n", indent,
		ValueStyle.Render(node.Name),
		StatusStyle(status).Render(fmt.Sprintf("[%s]", boolLabel(node.Active)))))

	for _, child := range node.Children {
		renderNode(b, child, depth+1)
	}
}

func boolLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	model := NewInspectModel(viewType, data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
