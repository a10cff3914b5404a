package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/solvent/pkg/document"
)

// documentPicker is the bubbletea model behind "solvent export" without an
// argument: a scrollable table of stored documents.
type documentPicker struct {
	metas    []document.Meta
	cursor   int
	offset   int
	height   int
	selected *document.Meta
}

func newDocumentPicker(metas []document.Meta) documentPicker {
	return documentPicker{metas: metas, height: 15}
}

func (m documentPicker) Init() tea.Cmd { return nil }

func (m documentPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m = m.move(-1)
		case "down", "j":
			m = m.move(1)
		case "enter":
			if len(m.metas) == 0 {
				return m, tea.Quit
			}
			meta := m.metas[m.cursor]
			m.selected = &meta
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the list, and scrolls the
// viewport along with it.
func (m documentPicker) move(delta int) documentPicker {
	m.cursor += delta
	if m.cursor >= len(m.metas) {
		m.cursor = len(m.metas) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m
}

func (m documentPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Document"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.metas))
	var rows [][]string
	for i := m.offset; i < end; i++ {
		meta := m.metas[i]
		marker := "  "
		if i == m.cursor {
			marker = "▸ "
		}
		rows = append(rows, []string{
			marker,
			shortID(meta.ID),
			formatRelativeTime(meta.Datetime),
			fmt.Sprintf("py%d", meta.PythonVersion),
			truncate(strings.Join(meta.Requirements, ", "), 40),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	currentStyle := lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	dimmed := lipgloss.NewStyle().Foreground(colorDim)
	plain := lipgloss.NewStyle().Foreground(colorWhite)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimmed).
		Headers("", "Document", "Created", "Python", "Requirements").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case m.offset+row == m.cursor:
				return currentStyle
			case col == 2 || col == 3:
				return dimmed
			default:
				return plain
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d of %d", m.cursor+1, len(m.metas))))

	return b.String()
}

// pickDocument runs the interactive picker and returns the chosen metadata,
// or nil when the user cancelled.
func pickDocument(metas []document.Meta) (*document.Meta, error) {
	final, err := tea.NewProgram(newDocumentPicker(metas)).Run()
	if err != nil {
		return nil, fmt.Errorf("run picker: %w", err)
	}
	picker, ok := final.(documentPicker)
	if !ok {
		return nil, nil
	}
	return picker.selected, nil
}

// shortID abbreviates a document id for table display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncate cuts s to at most n characters, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// formatRelativeTime renders t relative to now, switching to a plain date
// once it is older than a week.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	age := time.Since(t)
	switch {
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
