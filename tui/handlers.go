package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"tagbatch/editor"
)

func (a *App) handleKeyPress(key string) tea.Cmd {
	if key == "ctrl+c" {
		return tea.Quit
	}

	switch a.currentMode {
	case FieldEditMode:
		return a.handleFieldEditKeys(key)
	case PromptMode:
		return a.handlePromptKeys(key)
	}

	switch key {
	case "q":
		return tea.Quit
	case "?":
		return a.toggleHelp()
	}

	if key == "esc" && strings.HasPrefix(a.statusMessage, IconCross) {
		a.statusMessage = ""
		return nil
	}

	switch a.currentMode {
	case FileListMode:
		return a.handleFileListKeys(key)
	case BulkEditMode:
		return a.handleBulkEditKeys(key)
	case HelpMode:
		if key == "esc" {
			a.currentMode = a.previousMode
		}
	}
	return nil
}

func (a *App) handleFileListKeys(key string) tea.Cmd {
	switch key {
	case "up", "k":
		a.fileList.MoveUp()
	case "down", "j":
		a.fileList.MoveDown()
	case "pgup":
		a.fileList.PageUp(10)
	case "pgdown", "pgdn":
		a.fileList.PageDown(10)
	case " ", "space":
		a.fileList.ToggleSelection()
		return a.setStatus(fmt.Sprintf("Selected: %d file(s)", a.fileList.SelectedCount()), 1)
	case "a":
		a.fileList.ToggleAll()
		return a.setStatus(fmt.Sprintf("Selected: %d file(s)", a.fileList.SelectedCount()), 1)
	case "enter", "tab":
		if a.fileList.Len() == 0 {
			return nil
		}
		if a.isSaving {
			return a.busy()
		}
		a.loadSelection()
		a.currentMode = BulkEditMode
		return a.setStatus("Edit fields with Enter, save with 's'", 3)
	case "n":
		return a.autoNumber()
	case "r":
		if a.isSaving {
			return a.busy()
		}
		if rec := a.fileList.Current(); rec != nil {
			a.startPrompt(PromptRename, strings.TrimSuffix(rec.Name(), filepath.Ext(rec.Name())))
		}
	case "d", "delete":
		if a.isSaving {
			return a.busy()
		}
		return a.removeSelection()
	}
	return nil
}

func (a *App) handleBulkEditKeys(key string) tea.Cmd {
	bte := a.bulkEditor
	switch key {
	case "up", "k":
		bte.MoveToPreviousField()
	case "down", "j":
		bte.MoveToNextField()
	case "enter", "e":
		bte.StartEditing(bte.GetEditingField())
		a.currentMode = FieldEditMode
	case "x":
		bte.ClearField()
		fd := bte.Field(bte.GetEditingField())
		return a.setStatus(fd.Label+" will be removed from every selected file", 2)
	case "i":
		a.startPrompt(PromptArtwork, "")
	case "I":
		bte.SetArtwork(nil)
		return a.setStatus("Artwork will be removed", 2)
	case "s", "ctrl+s":
		return a.applyBulkEdits()
	case "esc", "tab":
		a.currentMode = FileListMode
		a.bulkEditor.Reset()
	}
	return nil
}

func (a *App) handleFieldEditKeys(key string) tea.Cmd {
	bte := a.bulkEditor
	switch key {
	case "enter":
		if bte.StopEditing() {
			a.currentMode = BulkEditMode
		}
	case "esc":
		bte.CancelEditing()
		a.currentMode = BulkEditMode
	case "backspace":
		if r := []rune(bte.GetEditBuffer()); len(r) > 0 {
			bte.UpdateEditBuffer(string(r[:len(r)-1]))
		}
	case "ctrl+u":
		bte.UpdateEditBuffer("")
	case "ctrl+j":
		if bte.Field(bte.GetEditingField()).Multiline {
			bte.UpdateEditBuffer(bte.GetEditBuffer() + "\n")
		}
	default:
		if text, ok := typedText(key); ok {
			bte.UpdateEditBuffer(bte.GetEditBuffer() + text)
		}
	}
	return nil
}

func (a *App) handlePromptKeys(key string) tea.Cmd {
	switch key {
	case "enter":
		a.currentMode = a.previousMode
		return a.submitPrompt(strings.TrimSpace(a.promptBuffer))
	case "esc":
		a.currentMode = a.previousMode
		a.promptBuffer = ""
	case "backspace":
		if r := []rune(a.promptBuffer); len(r) > 0 {
			a.promptBuffer = string(r[:len(r)-1])
		}
	case "ctrl+u":
		a.promptBuffer = ""
	default:
		if text, ok := typedText(key); ok {
			a.promptBuffer += text
		}
	}
	return nil
}

func (a *App) startPrompt(kind PromptKind, initial string) {
	a.previousMode = a.currentMode
	a.currentMode = PromptMode
	a.promptKind = kind
	a.promptBuffer = initial
}

func (a *App) submitPrompt(input string) tea.Cmd {
	a.promptBuffer = ""
	if input == "" {
		return nil
	}

	switch a.promptKind {
	case PromptRename:
		return a.renameCurrent(input)
	case PromptArtwork:
		art, err := a.session.ArtworkFromFile(input)
		if err != nil {
			a.setError("Cannot use artwork", err.Error())
			return nil
		}
		a.bulkEditor.SetArtwork(art)
		return a.setStatus(fmt.Sprintf("Artwork staged (%s)", editor.FormatSize(int64(len(art.Data)))), 2)
	}
	return nil
}

func (a *App) renameCurrent(name string) tea.Cmd {
	rec := a.fileList.Current()
	if rec == nil {
		return nil
	}

	err := a.session.Rename(rec, name)
	switch {
	case errors.Is(err, editor.ErrNameConflict):
		a.setError("Rename failed", "a file with that name already exists")
		return nil
	case err != nil:
		a.setError("Rename failed", err.Error())
		return nil
	}

	a.fileList.Refresh(a.session.Records())
	return a.setStatus(IconCheck+" Renamed to "+rec.Name(), 2)
}

func (a *App) removeSelection() tea.Cmd {
	n := a.session.Remove(a.fileList.Selection())
	a.fileList.Refresh(a.session.Records())
	return a.setStatus(fmt.Sprintf("Removed %d file(s) from the list", n), 2)
}

func (a *App) applyBulkEdits() tea.Cmd {
	if a.isSaving {
		return a.busy()
	}

	sel := a.fileList.Selection()
	res, err := a.session.Apply(sel, a.bulkEditor.Edits())
	if err != nil {
		a.setError("Apply failed", err.Error())
		return nil
	}
	a.log.WithFields(logrus.Fields{
		"files":   len(sel),
		"changed": res.Records,
	}).Info("Applied bulk edits")

	return a.saveSelection(sel, "saved")
}

func (a *App) autoNumber() tea.Cmd {
	if a.isSaving {
		return a.busy()
	}

	sel := a.fileList.Selection()
	if _, err := a.session.AutoNumberTracks(sel); err != nil {
		a.setError("Numbering failed", err.Error())
		return nil
	}
	return a.saveSelection(sel, "numbered")
}

// saveSelection writes sel in the background and reports with a
// BatchSavedMsg.
func (a *App) saveSelection(sel []*editor.Record, verb string) tea.Cmd {
	a.isSaving = true
	a.statusSeq++
	a.statusMessage = fmt.Sprintf("Saving %d file(s)...", len(sel))

	ctx, session := a.ctx, a.session
	return func() tea.Msg {
		return BatchSavedMsg{Verb: verb, Result: session.Save(ctx, sel)}
	}
}

// busy refuses keys that need the session while a save holds it.
func (a *App) busy() tea.Cmd {
	return a.setStatus("Save in progress, try again when it finishes", 2)
}

func (a *App) toggleHelp() tea.Cmd {
	if a.currentMode == HelpMode {
		a.currentMode = a.previousMode
	} else {
		a.previousMode = a.currentMode
		a.currentMode = HelpMode
	}
	return nil
}

// typedText returns the text a key press inserts, if any.
func typedText(key string) (string, bool) {
	switch {
	case key == "space":
		return " ", true
	case len([]rune(key)) == 1:
		return key, true
	case strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") && len(key) > 2:
		// Pasted text arrives bracketed.
		return key[1 : len(key)-1], true
	}
	return "", false
}
