package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"tagbatch/editor"
)

type App struct {
	ctx     context.Context
	session *editor.Session
	log     logrus.FieldLogger

	fileList   *FileList
	bulkEditor *BulkTagEditor
	layout     *Layout
	theme      *Theme

	currentMode  Mode
	previousMode Mode
	promptKind   PromptKind
	promptBuffer string

	statusMessage string
	statusSeq     int
	isSaving      bool
}

func NewApp(ctx context.Context, session *editor.Session, log logrus.FieldLogger) *App {
	a := &App{
		ctx:         ctx,
		session:     session,
		log:         log,
		fileList:    NewFileList(),
		bulkEditor:  NewBulkTagEditor(),
		layout:      NewLayout(),
		theme:       DefaultTheme(),
		currentMode: FileListMode,
	}
	a.fileList.Refresh(session.Records())
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.layout.Update(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a, a.handleKeyPress(msg.String())

	case BatchSavedMsg:
		return a, a.handleSaved(msg)

	case StatusTickMsg:
		if msg.Seq == a.statusSeq {
			a.statusMessage = ""
		}
	}
	return a, nil
}

func (a *App) handleSaved(msg BatchSavedMsg) tea.Cmd {
	a.isSaving = false
	res := msg.Result

	for _, f := range res.Failures {
		a.log.WithField("file", f.Path).Errorf("%s failed: %v", f.Op, f.Err)
	}
	for _, w := range res.Warnings {
		a.log.WithField("file", w.Path).Warn(w.Err)
	}

	a.fileList.Refresh(a.session.Records())
	if a.currentMode == BulkEditMode {
		a.loadSelection()
	}

	summary := fmt.Sprintf("%d of %d %s", res.Succeeded, res.Attempted, msg.Verb)
	switch {
	case !res.OK():
		a.setError(summary, res.Failures[0].Error())
		return nil
	case len(res.Warnings) > 0:
		return a.setStatus(fmt.Sprintf("%s %s %d field(s) skipped", IconCheck, summary, len(res.Warnings)), 4)
	default:
		return a.setStatus(IconCheck+" "+summary, 3)
	}
}

// loadSelection stages the projection of the current selection.
func (a *App) loadSelection() {
	a.bulkEditor.Load(a.session.Project(a.fileList.Selection()))
}

func (a *App) setStatus(message string, seconds int) tea.Cmd {
	a.statusSeq++
	a.statusMessage = message
	seq := a.statusSeq
	return tea.Tick(time.Duration(seconds)*time.Second, func(time.Time) tea.Msg {
		return StatusTickMsg{Seq: seq}
	})
}

// setError shows a message that stays until dismissed with esc.
func (a *App) setError(message, details string) {
	errorMsg := message
	if details != "" {
		errorMsg += ": " + details
	}
	a.statusSeq++
	a.statusMessage = IconCross + " " + errorMsg
}

func (a *App) View() string {
	if !a.layout.IsMinimumSize() {
		return fmt.Sprintf("Terminal too small. Minimum size: %dx%d",
			a.layout.Breakpoints.MinWidth, a.layout.Breakpoints.MinHeight)
	}

	if a.currentMode == HelpMode {
		return a.renderHelp()
	}

	layout := a.layout.Calculate()
	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.renderFileList(layout),
		a.renderBulkEditor(layout.EditorWidth, layout.ContentHeight),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		mainContent,
		a.renderStatusBar(),
	)
}

func (a *App) renderFileList(layout AdaptiveLayout) string {
	theme := a.theme
	width, height := layout.ListWidth, layout.ContentHeight
	entries := a.fileList.Entries()
	selectedIndex := a.fileList.GetSelectedIndex()

	var lines []string

	header := IconMusic + " Files"
	if n := a.fileList.SelectedCount(); n > 0 {
		header += " " + StatusBadge(fmt.Sprintf("%d selected", n), "info", theme)
	}
	lines = append(lines, theme.HeaderStyle.Width(width-4).Render(header))
	lines = append(lines, Separator(width-6, "─", ColorBorderLight))

	detailLines := 0
	if layout.ShowDetails {
		detailLines = 6
	}
	contentHeight := max(height-4-detailLines, 1)

	startIdx := 0
	if selectedIndex >= contentHeight {
		startIdx = selectedIndex - contentHeight + 1
	}
	endIdx := min(startIdx+contentHeight, len(entries))

	for i := startIdx; i < endIdx; i++ {
		rec := entries[i]

		lineContent := "  "
		if i == selectedIndex {
			lineContent = IconArrowRight + " "
		}
		if a.fileList.IsSelected(rec) {
			lineContent += theme.SuccessStyle.Render("[✓] ")
		} else {
			lineContent += theme.MutedTextStyle.Render("[ ] ")
		}

		name := truncate(rec.Name(), max(width-14, 10))
		if rec.State() == editor.StateEdited {
			name = theme.ModifiedStyle.Render(name + " *")
		} else {
			name = theme.NormalTextStyle.Render(name)
		}
		lineContent += name

		if i == selectedIndex {
			lineContent = theme.SelectedItemStyle.Render(lineContent)
		}
		lines = append(lines, lineContent)
	}

	for i := endIdx - startIdx; i < contentHeight; i++ {
		lines = append(lines, "")
	}

	if len(entries) > 0 {
		lines = append(lines, theme.MutedTextStyle.Render(fmt.Sprintf("%d/%d files", selectedIndex+1, len(entries))))
	} else {
		lines = append(lines, theme.MutedTextStyle.Render("No files"))
	}

	if layout.ShowDetails {
		lines = append(lines, a.renderDetails(width)...)
	}

	return theme.PanelStyle.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

// renderDetails shows the derived properties of the record under the cursor.
func (a *App) renderDetails(width int) []string {
	theme := a.theme
	lines := []string{Separator(width-6, "─", ColorBorderLight)}

	rec := a.fileList.Current()
	if rec == nil {
		return append(lines, "", "", "", "", "")
	}

	props := rec.Properties()
	row := func(label, value string) string {
		return theme.FieldLabelStyle.Render(label) + " " + theme.NormalTextStyle.Render(truncate(value, max(width-20, 8)))
	}
	return append(lines,
		row("Size", props.Size()),
		row("Length", props.Length()),
		row("Bitrate", props.BitrateText()),
		row("Format", props.Format),
		row("Encoder", props.Encoder),
	)
}

func (a *App) renderBulkEditor(width, height int) string {
	theme := a.theme
	bte := a.bulkEditor
	active := a.currentMode == BulkEditMode || a.currentMode == FieldEditMode

	var lines []string
	title := "Tags"
	if active {
		title = fmt.Sprintf("Editing %d file(s)", bte.Count())
		if bte.HasChanges() {
			title += " " + StatusBadge("MODIFIED", "warning", theme)
		}
	}
	lines = append(lines, theme.HeaderStyle.Width(width-4).Render(title))
	lines = append(lines, Separator(width-6, "─", ColorBorderLight))

	if !active {
		lines = append(lines, theme.MutedTextStyle.Render("Select files with space, then press enter to edit their tags."))
		return theme.PanelStyle.Width(width).Height(height).Render(strings.Join(lines, "\n"))
	}

	valueWidth := max(width-20, 10)
	for i, fd := range editor.Fields {
		label := theme.FieldLabelStyle.Render(fd.Label)

		var value string
		switch {
		case a.currentMode == FieldEditMode && i == bte.GetEditingField():
			value = theme.EditingStyle.Render(truncate(editLine(bte.GetEditBuffer()), valueWidth-1) + "_")
		case bte.IsCleared(fd.Field):
			value = theme.ModifiedStyle.Render("<cleared>")
		case bte.IsMixed(fd.Field):
			value = theme.MixedStyle.Render("<multiple values>")
		case bte.IsModified(fd.Field):
			value = theme.ModifiedStyle.Render(truncate(editLine(bte.Value(fd.Field)), valueWidth))
		default:
			value = theme.NormalTextStyle.Render(truncate(editLine(bte.Value(fd.Field)), valueWidth))
		}

		line := label + " " + value
		if i == bte.GetEditingField() {
			line = IconArrowRight + " " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)

		if msg := bte.GetValidationError(fd.Field); msg != "" {
			lines = append(lines, "    "+theme.ErrorStyle.Render(IconCross+" "+fd.Label+" "+msg))
		}
	}

	lines = append(lines, "", a.renderArtworkLine())

	style := theme.ActivePanelStyle
	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (a *App) renderArtworkLine() string {
	theme := a.theme
	bte := a.bulkEditor
	label := theme.FieldLabelStyle.Render("Artwork")

	var value string
	switch art := bte.Artwork(); {
	case bte.ArtworkMixed():
		value = theme.MixedStyle.Render("<multiple values>")
	case art == nil || len(art.Data) == 0:
		value = theme.MutedTextStyle.Render("none")
	default:
		value = fmt.Sprintf("%s %s, %s", IconImage, art.MIME, editor.FormatSize(int64(len(art.Data))))
	}
	if bte.ArtworkEdited() {
		value = theme.ModifiedStyle.Render(value)
	}
	return "  " + label + " " + value
}

func (a *App) renderStatusBar() string {
	theme := a.theme
	separator := theme.MutedTextStyle.Render(" │ ")

	if a.currentMode == PromptMode {
		label := "Rename to"
		if a.promptKind == PromptArtwork {
			label = "Artwork file"
		}
		return theme.HighlightStyle.Render(label+": ") + theme.EditingStyle.Render(a.promptBuffer+"_")
	}

	if a.statusMessage != "" {
		if strings.HasPrefix(a.statusMessage, IconCross) {
			return theme.ErrorStyle.Render(a.statusMessage) + theme.MutedTextStyle.Render(" │ Press ESC to dismiss")
		}
		if strings.HasPrefix(a.statusMessage, IconCheck) {
			return theme.SuccessStyle.Render(a.statusMessage)
		}
		return theme.NormalTextStyle.Render(a.statusMessage)
	}

	var hints []string
	switch a.currentMode {
	case FileListMode:
		hints = []string{
			KeyHelp("↑↓", "navigate", theme),
			KeyHelp("Space", "select", theme),
			KeyHelp("a", "all", theme),
			KeyHelp("Enter", "edit", theme),
			KeyHelp("n", "number", theme),
			KeyHelp("r", "rename", theme),
			KeyHelp("d", "remove", theme),
			KeyHelp("?", "help", theme),
			KeyHelp("q", "quit", theme),
		}
	case BulkEditMode:
		hints = []string{
			KeyHelp("↑↓", "navigate", theme),
			KeyHelp("Enter/e", "edit", theme),
			KeyHelp("x", "clear", theme),
			KeyHelp("i/I", "artwork", theme),
			KeyHelp("s", "save", theme),
			KeyHelp("Esc", "files", theme),
		}
	case FieldEditMode:
		hints = []string{
			KeyHelp("Type", "edit", theme),
			KeyHelp("Enter", "done", theme),
			KeyHelp("Esc", "cancel", theme),
			KeyHelp("Ctrl+U", "blank", theme),
		}
	}

	return strings.Join(hints, separator)
}

func (a *App) renderHelp() string {
	return `╔══════════════════════════════════════════════════════════════╗
║                        tagbatch Help                         ║
╠══════════════════════════════════════════════════════════════╣
║ File List:                                                   ║
║   ↑/↓, k/j    Move cursor                                    ║
║   PgUp/PgDn   Page up/down                                   ║
║   Space       Select / unselect file                         ║
║   a           Select all / none                              ║
║   Enter, Tab  Edit tags of the selection                     ║
║   n           Number tracks of the selection and save        ║
║   r           Rename file under the cursor                   ║
║   d           Remove selection from the list (not from disk) ║
║                                                              ║
║ Tag Editor:                                                  ║
║   ↑/↓, k/j    Move between fields                            ║
║   Enter, e    Edit field                                     ║
║   x           Clear field in every selected file             ║
║   i           Set artwork from an image file                 ║
║   I           Remove artwork                                 ║
║   s, Ctrl+S   Apply edits and save                           ║
║   Esc, Tab    Back to the file list (discards staged edits)  ║
║                                                              ║
║ Field Editing:                                               ║
║   Enter       Keep the new value                             ║
║   Ctrl+J      New line (lyrics)                              ║
║   Ctrl+U      Blank the field                                ║
║   Esc         Cancel                                         ║
║                                                              ║
║ A field showing <multiple values> keeps each file's own      ║
║ value unless you type a new one.                             ║
║                                                              ║
║ Global:                                                      ║
║   ?           Show/hide this help                            ║
║   q, Ctrl+C   Quit                                           ║
╚══════════════════════════════════════════════════════════════╝

Press esc to return...`
}

// InitLogging sends log output to a file under the temp dir so it does not
// draw over the UI.
func InitLogging(log *logrus.Logger) (io.Closer, error) {
	logDir := filepath.Join(os.TempDir(), "tagbatch")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	logFile := filepath.Join(logDir, "tui.log")
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	log.WithField("ts", time.Now().Format(time.RFC3339)).Info("tui session start")
	return f, nil
}

// Run shows session in the terminal until the user quits.
func Run(ctx context.Context, session *editor.Session, log logrus.FieldLogger) error {
	app := NewApp(ctx, session, log)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
