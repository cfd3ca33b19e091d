package tui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"tagbatch/editor"
	"tagbatch/mp3"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// writeMP3 creates an MP3 of a few silent frames tagged with values.
func writeMP3(t *testing.T, dir, name string, values mp3.Values) {
	t.Helper()
	frame := bytes.Repeat([]byte{0x55}, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})

	codec := mp3.NewTagCodec(mp3.WithLogger(quietLogger()))
	res, err := codec.Write(bytes.Repeat(frame, 6), values, nil)
	if err != nil {
		t.Fatalf("codec.Write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), res.Data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestApp loads three files into a fresh app. Artist and comment differ
// per file, album is shared.
func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for i, artist := range []string{"Alpha", "Beta", "Gamma"} {
		writeMP3(t, dir, []string{"01.mp3", "02.mp3", "03.mp3"}[i], mp3.Values{
			mp3.FieldArtist:  artist,
			mp3.FieldAlbum:   "LP",
			mp3.FieldComment: "note " + artist,
		})
	}

	session := editor.NewSession(editor.WithLogger(quietLogger()))
	if res := session.LoadFolder(t.Context(), dir, ".mp3", false); res.Loaded != 3 {
		t.Fatalf("LoadFolder: %s", res)
	}
	return NewApp(t.Context(), session, quietLogger()), dir
}

// press sends keys in order and returns the command of the last one.
func press(a *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = a.handleKeyPress(k)
	}
	return cmd
}

// finishSave runs a save command and feeds its result back to the app.
func finishSave(t *testing.T, a *App, cmd tea.Cmd) editor.BatchResult {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	msg, ok := cmd().(BatchSavedMsg)
	if !ok {
		t.Fatal("command did not produce BatchSavedMsg")
	}
	a.Update(msg)
	if a.isSaving {
		t.Error("isSaving still set after BatchSavedMsg")
	}
	return msg.Result
}

// reload reads dir back from disk.
func reload(t *testing.T, dir string) []*editor.Record {
	t.Helper()
	s := editor.NewSession(editor.WithLogger(quietLogger()))
	s.LoadFolder(t.Context(), dir, ".mp3", false)
	return s.Records()
}

func fieldIndex(t *testing.T, f mp3.Field) int {
	t.Helper()
	for i, fd := range editor.Fields {
		if fd.Field == f {
			return i
		}
	}
	t.Fatalf("field %s not in table", f)
	return -1
}

// focus moves the editor cursor down to f.
func focus(t *testing.T, a *App, f mp3.Field) {
	t.Helper()
	for a.bulkEditor.GetEditingField() != fieldIndex(t, f) {
		press(a, "down")
	}
}

func TestBulkEditKeepsMixedFields(t *testing.T) {
	a, dir := newTestApp(t)

	press(a, "a", "enter")
	if a.currentMode != BulkEditMode {
		t.Fatalf("mode = %v, want BulkEditMode", a.currentMode)
	}
	if got := a.bulkEditor.Count(); got != 3 {
		t.Fatalf("editing %d files, want 3", got)
	}
	if !a.bulkEditor.IsMixed(mp3.FieldArtist) {
		t.Error("artist should be mixed")
	}
	if got := a.bulkEditor.Value(mp3.FieldAlbum); got != "LP" {
		t.Errorf("album = %q, want LP", got)
	}
	if !strings.Contains(a.View(), "<multiple values>") {
		t.Error("view does not mark mixed fields")
	}

	focus(t, a, mp3.FieldAlbum)
	press(a, "enter", "ctrl+u", "N", "e", "w", "space", "L", "P", "enter")
	if a.currentMode != BulkEditMode {
		t.Fatalf("mode = %v after enter, want BulkEditMode", a.currentMode)
	}

	res := finishSave(t, a, press(a, "s"))
	if !res.OK() || res.Succeeded != 3 {
		t.Fatalf("save: %s", res.Summary())
	}

	for i, rec := range reload(t, dir) {
		if got := rec.Get(mp3.FieldAlbum); got != "New LP" {
			t.Errorf("%s album = %q, want New LP", rec.Name(), got)
		}
		want := []string{"Alpha", "Beta", "Gamma"}[i]
		if got := rec.Get(mp3.FieldArtist); got != want {
			t.Errorf("%s artist = %q, want %q", rec.Name(), got, want)
		}
	}
}

func TestClearFieldRemovesFromEveryFile(t *testing.T) {
	a, dir := newTestApp(t)

	press(a, "a", "enter")
	focus(t, a, mp3.FieldComment)
	press(a, "x")
	if !a.bulkEditor.IsCleared(mp3.FieldComment) {
		t.Fatal("comment not staged for clearing")
	}
	finishSave(t, a, press(a, "s"))

	for _, rec := range reload(t, dir) {
		if got := rec.Get(mp3.FieldComment); got != "" {
			t.Errorf("%s comment = %q, want empty", rec.Name(), got)
		}
		if got := rec.Get(mp3.FieldAlbum); got != "LP" {
			t.Errorf("%s album = %q, want LP", rec.Name(), got)
		}
	}
}

func TestNumericFieldValidation(t *testing.T) {
	a, _ := newTestApp(t)

	press(a, "enter")
	focus(t, a, mp3.FieldTrack)
	press(a, "enter", "x", "enter")
	if a.currentMode != FieldEditMode {
		t.Fatalf("mode = %v, want FieldEditMode after invalid value", a.currentMode)
	}
	if a.bulkEditor.GetValidationError(mp3.FieldTrack) == "" {
		t.Error("no validation error for track")
	}

	press(a, "esc")
	if a.currentMode != BulkEditMode {
		t.Fatalf("mode = %v, want BulkEditMode", a.currentMode)
	}
	if a.bulkEditor.GetValidationError(mp3.FieldTrack) != "" {
		t.Error("validation error survived cancel")
	}
	if a.bulkEditor.HasChanges() {
		t.Error("cancelled edit was staged")
	}
}

func TestAutoNumber(t *testing.T) {
	a, dir := newTestApp(t)

	res := finishSave(t, a, press(a, "a", "n"))
	if res.Succeeded != 3 {
		t.Fatalf("numbered %s", res)
	}

	for i, rec := range reload(t, dir) {
		if got, want := rec.Get(mp3.FieldTrack), []string{"1", "2", "3"}[i]; got != want {
			t.Errorf("%s track = %q, want %q", rec.Name(), got, want)
		}
		if got := rec.Get(mp3.FieldTrackTotal); got != "3" {
			t.Errorf("%s track total = %q, want 3", rec.Name(), got)
		}
	}
}

func TestRenamePrompt(t *testing.T) {
	a, dir := newTestApp(t)

	press(a, "r")
	if a.currentMode != PromptMode || a.promptBuffer != "01" {
		t.Fatalf("mode = %v buffer = %q, want prompt with 01", a.currentMode, a.promptBuffer)
	}

	press(a, "ctrl+u", "[02]", "enter")
	if !strings.HasPrefix(a.statusMessage, IconCross) {
		t.Errorf("status = %q, want a rename error", a.statusMessage)
	}
	press(a, "esc")
	if a.statusMessage != "" {
		t.Errorf("esc did not dismiss error: %q", a.statusMessage)
	}

	press(a, "r", "ctrl+u", "[renamed]", "enter")
	if a.currentMode != FileListMode {
		t.Fatalf("mode = %v, want FileListMode", a.currentMode)
	}
	if _, err := os.Stat(filepath.Join(dir, "renamed.mp3")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if got := a.fileList.Current().Name(); got != "renamed.mp3" {
		t.Errorf("current = %q, want renamed.mp3", got)
	}
}

func TestArtworkPrompt(t *testing.T) {
	a, dir := newTestApp(t)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 0xFF, A: 0xFF})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	cover := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(cover, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	press(a, "a", "enter", "i", "["+cover+"]", "enter")
	if !a.bulkEditor.ArtworkEdited() {
		t.Fatalf("artwork not staged, status %q", a.statusMessage)
	}
	finishSave(t, a, press(a, "s"))

	for _, rec := range reload(t, dir) {
		if !rec.HasArtwork() {
			t.Errorf("%s has no artwork", rec.Name())
		}
	}

	press(a, "i", "[/does/not/exist.png]", "enter")
	if !strings.HasPrefix(a.statusMessage, IconCross) {
		t.Errorf("status = %q, want an artwork error", a.statusMessage)
	}
}

func TestRemoveKeepsFilesOnDisk(t *testing.T) {
	a, dir := newTestApp(t)

	press(a, "space", "d")
	if got := a.fileList.Len(); got != 2 {
		t.Errorf("list has %d files, want 2", got)
	}
	if got := a.session.Len(); got != 2 {
		t.Errorf("session has %d records, want 2", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "01.mp3")); err != nil {
		t.Errorf("removed file gone from disk: %v", err)
	}
	if a.fileList.SelectedCount() != 0 {
		t.Error("selection kept a removed record")
	}
}

func TestModeKeys(t *testing.T) {
	a, _ := newTestApp(t)

	press(a, "?")
	if a.currentMode != HelpMode {
		t.Fatalf("mode = %v, want HelpMode", a.currentMode)
	}
	press(a, "esc")
	if a.currentMode != FileListMode {
		t.Fatalf("mode = %v, want FileListMode", a.currentMode)
	}

	press(a, "enter")
	focus(t, a, mp3.FieldTitle)
	press(a, "enter", "q")
	if a.bulkEditor.GetEditBuffer() != "q" {
		t.Errorf("buffer = %q, q should be typed while editing", a.bulkEditor.GetEditBuffer())
	}
	press(a, "esc", "esc")
	if a.currentMode != FileListMode {
		t.Fatalf("mode = %v, want FileListMode", a.currentMode)
	}

	cmd := press(a, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestSessionKeysWaitForSave(t *testing.T) {
	a, _ := newTestApp(t)

	cmd := press(a, "a", "n")
	if !a.isSaving {
		t.Fatal("auto-number did not start a save")
	}

	press(a, "d")
	if got := a.session.Len(); got != 3 {
		t.Errorf("remove ran during save, session has %d records", got)
	}
	press(a, "enter")
	if a.currentMode != FileListMode {
		t.Errorf("enter during save switched to mode %v", a.currentMode)
	}
	press(a, "r")
	if a.currentMode == PromptMode {
		t.Error("rename prompt opened during save")
	}
	if !strings.Contains(a.statusMessage, "Save in progress") {
		t.Errorf("status = %q, want a busy notice", a.statusMessage)
	}

	if res := finishSave(t, a, cmd); res.Succeeded != 3 {
		t.Fatalf("numbered %s", res)
	}
	press(a, "enter")
	if a.currentMode != BulkEditMode {
		t.Errorf("mode = %v after save, want BulkEditMode", a.currentMode)
	}
}

func TestViewDuringBackgroundSave(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	press(a, "a")
	sel := a.fileList.Selection()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 10 {
			a.session.Save(t.Context(), sel)
		}
	}()

	for {
		select {
		case <-done:
			if !strings.Contains(a.View(), "01.mp3") {
				t.Error("view lost the file list")
			}
			return
		default:
			a.View()
		}
	}
}

func TestStatusTick(t *testing.T) {
	a, _ := newTestApp(t)

	a.setStatus("first", 1)
	stale := a.statusSeq
	a.setStatus("second", 1)

	a.Update(StatusTickMsg{Seq: stale})
	if a.statusMessage != "second" {
		t.Errorf("stale tick cleared status: %q", a.statusMessage)
	}
	a.Update(StatusTickMsg{Seq: a.statusSeq})
	if a.statusMessage != "" {
		t.Errorf("status = %q, want cleared", a.statusMessage)
	}
}

func TestViewTooSmall(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.HasPrefix(a.View(), "Terminal too small") {
		t.Error("small terminal not reported")
	}
}

func TestTypedText(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{"a", "a", true},
		{"é", "é", true},
		{"space", " ", true},
		{"[pasted text]", "pasted text", true},
		{"enter", "", false},
		{"ctrl+a", "", false},
	}

	for _, tt := range tests {
		got, ok := typedText(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("typedText(%q) = %q, %v; want %q, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}
