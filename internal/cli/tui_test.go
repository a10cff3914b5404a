package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/solvent/pkg/document"
)

func pickerKey(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestDocumentPickerNavigation(t *testing.T) {
	metas := []document.Meta{{ID: "doc-1"}, {ID: "doc-2"}, {ID: "doc-3"}}
	var model tea.Model = newDocumentPicker(metas)

	model, _ = model.Update(pickerKey("j"))
	model, _ = model.Update(pickerKey("j"))
	if picker := model.(documentPicker); picker.cursor != 2 {
		t.Errorf("cursor = %d, want 2", picker.cursor)
	}

	// Moving past the end stays on the last entry.
	model, _ = model.Update(pickerKey("j"))
	if picker := model.(documentPicker); picker.cursor != 2 {
		t.Errorf("cursor = %d, want 2", picker.cursor)
	}

	model, _ = model.Update(pickerKey("k"))
	if picker := model.(documentPicker); picker.cursor != 1 {
		t.Errorf("cursor = %d, want 1", picker.cursor)
	}
}

func TestDocumentPickerSelect(t *testing.T) {
	metas := []document.Meta{{ID: "doc-1"}, {ID: "doc-2"}}
	var model tea.Model = newDocumentPicker(metas)

	model, _ = model.Update(pickerKey("j"))
	model, cmd := model.Update(pickerKey("enter"))

	picker := model.(documentPicker)
	if picker.selected == nil || picker.selected.ID != "doc-2" {
		t.Fatalf("selected = %+v, want doc-2", picker.selected)
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestDocumentPickerQuitWithoutSelection(t *testing.T) {
	var model tea.Model = newDocumentPicker([]document.Meta{{ID: "doc-1"}})
	model, cmd := model.Update(pickerKey("q"))

	if picker := model.(documentPicker); picker.selected != nil {
		t.Errorf("selected = %+v, want nil", picker.selected)
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestDocumentPickerScrollsViewport(t *testing.T) {
	metas := make([]document.Meta, 30)
	for i := range metas {
		metas[i] = document.Meta{ID: fmt.Sprintf("doc-%d", i)}
	}
	var model tea.Model = newDocumentPicker(metas)

	for range 20 {
		model, _ = model.Update(pickerKey("j"))
	}

	picker := model.(documentPicker)
	if picker.cursor != 20 {
		t.Fatalf("cursor = %d, want 20", picker.cursor)
	}
	if want := 20 - picker.height + 1; picker.offset != want {
		t.Errorf("offset = %d, want %d", picker.offset, want)
	}
}

func TestDocumentPickerView(t *testing.T) {
	metas := []document.Meta{{
		ID:            "0a1b2c3d-ffff-4444-aaaa-bbbbccccdddd",
		Datetime:      time.Now().Add(-30 * time.Minute),
		PythonVersion: 3,
		Requirements:  []string{"requests>=2.28"},
	}}
	view := newDocumentPicker(metas).View()

	if !strings.Contains(view, "0a1b2c3d") {
		t.Error("view should show the abbreviated document id")
	}
	if !strings.Contains(view, "py3") {
		t.Error("view should show the python version")
	}
	if !strings.Contains(view, "1 of 1") {
		t.Error("view should show the cursor position")
	}
}
