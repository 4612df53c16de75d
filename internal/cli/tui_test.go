package cli

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "down" {
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPageListModelToggle(t *testing.T) {
	m := NewPageListModel("summer", []int{1, 2, 3})

	// Everything starts selected.
	if got := m.Selected(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("initial selection = %v", got)
	}

	// Toggle page 2 off.
	next, _ := m.Update(key("down"))
	m = next.(PageListModel)
	next, _ = m.Update(key(" "))
	m = next.(PageListModel)

	if got := m.Selected(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("selection after toggle = %v, want [1 3]", got)
	}

	// "n" clears, "a" restores.
	next, _ = m.Update(key("n"))
	m = next.(PageListModel)
	if got := m.Selected(); len(got) != 0 {
		t.Errorf("selection after n = %v", got)
	}
	next, _ = m.Update(key("a"))
	m = next.(PageListModel)
	if got := m.Selected(); len(got) != 3 {
		t.Errorf("selection after a = %v", got)
	}

	// Enter confirms.
	next, _ = m.Update(key("enter"))
	m = next.(PageListModel)
	if !m.Done || m.Aborted {
		t.Errorf("enter should confirm: done=%v aborted=%v", m.Done, m.Aborted)
	}
}

func TestPageListModelAbort(t *testing.T) {
	m := NewPageListModel("summer", []int{1})
	next, _ := m.Update(key("q"))
	m = next.(PageListModel)
	if !m.Aborted {
		t.Error("q should abort")
	}
}

func TestPageListModelView(t *testing.T) {
	m := NewPageListModel("summer", []int{1, 2})
	view := m.View()
	if view == "" {
		t.Fatal("view should not be empty")
	}
	for _, want := range []string{"summer", "page 1", "page 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
