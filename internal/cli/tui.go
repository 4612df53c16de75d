package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// PageListModel - Interactive page selection
// =============================================================================

// PageListModel is the bubbletea model for picking export pages.
type PageListModel struct {
	Template string
	Pages    []int
	Checked  map[int]bool
	Cursor   int
	Done     bool
	Aborted  bool
}

// NewPageListModel creates a page picker with every page pre-selected.
func NewPageListModel(template string, pages []int) PageListModel {
	checked := make(map[int]bool, len(pages))
	for _, p := range pages {
		checked[p] = true
	}
	return PageListModel{
		Template: template,
		Pages:    pages,
		Checked:  checked,
	}
}

func (m PageListModel) Init() tea.Cmd {
	return nil
}

func (m PageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Pages)-1 {
				m.Cursor++
			}
		case " ", "x":
			p := m.Pages[m.Cursor]
			m.Checked[p] = !m.Checked[p]
		case "a":
			for _, p := range m.Pages {
				m.Checked[p] = true
			}
		case "n":
			for _, p := range m.Pages {
				m.Checked[p] = false
			}
		case "enter":
			m.Done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m PageListModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Select pages of %s", m.Template)))
	b.WriteString("\n\n")

	for i, p := range m.Pages {
		cursor := "  "
		if i == m.Cursor {
			cursor = styleCursor.Render("> ")
		}
		mark := stylePageOff.Render("[ ]")
		if m.Checked[p] {
			mark = stylePageOn.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s page %d\n", cursor, mark, p)
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space toggle · a all · n none · enter confirm · q abort"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen page numbers in ascending order.
func (m PageListModel) Selected() []int {
	out := make([]int, 0, len(m.Pages))
	for _, p := range m.Pages {
		if m.Checked[p] {
			out = append(out, p)
		}
	}
	return out
}

// pickPages runs the interactive picker and returns the selection.
func pickPages(template string, pages []int) ([]int, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	model, err := tea.NewProgram(NewPageListModel(template, pages)).Run()
	if err != nil {
		return nil, err
	}

	final := model.(PageListModel)
	if final.Aborted {
		return nil, fmt.Errorf("export aborted")
	}
	return final.Selected(), nil
}
