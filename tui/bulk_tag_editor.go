package tui

import (
	"strings"

	"tagbatch/editor"
	"tagbatch/mp3"
)

// BulkTagEditor stages edits for the current selection. Fields start from
// the selection's projection: shared values are shown as they are, mixed
// fields start blank and keep each file's value unless typed over.
type BulkTagEditor struct {
	editingField   int
	editBuffer     string
	isEditing      bool
	validationErrs map[mp3.Field]string

	count    int
	values   mp3.Values
	mixed    map[mp3.Field]bool
	modified map[mp3.Field]bool
	cleared  map[mp3.Field]bool

	artwork       *mp3.Artwork
	artworkMixed  bool
	artworkEdited bool
}

func NewBulkTagEditor() *BulkTagEditor {
	bte := &BulkTagEditor{}
	bte.Reset()
	return bte
}

func (bte *BulkTagEditor) Reset() {
	bte.editingField = 0
	bte.editBuffer = ""
	bte.isEditing = false
	bte.validationErrs = make(map[mp3.Field]string)
	bte.count = 0
	bte.values = make(mp3.Values)
	bte.mixed = make(map[mp3.Field]bool)
	bte.modified = make(map[mp3.Field]bool)
	bte.cleared = make(map[mp3.Field]bool)
	bte.artwork = nil
	bte.artworkMixed = false
	bte.artworkEdited = false
}

// Load stages p, discarding any pending edits.
func (bte *BulkTagEditor) Load(p editor.Projection) {
	bte.Reset()
	bte.count = p.Len()
	bte.values = p.Values()
	for _, fd := range editor.Fields {
		if p.Mixed(fd.Field) {
			bte.mixed[fd.Field] = true
		}
	}
	bte.artwork = p.Artwork()
	bte.artworkMixed = p.ArtworkMixed()
}

func (bte *BulkTagEditor) Count() int { return bte.count }

func (bte *BulkTagEditor) Field(i int) editor.FieldDescriptor { return editor.Fields[i] }

func (bte *BulkTagEditor) Value(f mp3.Field) string { return bte.values.Get(f) }

// IsMixed reports whether f still differs across the selection and has
// not been typed over.
func (bte *BulkTagEditor) IsMixed(f mp3.Field) bool {
	return bte.mixed[f] && !bte.modified[f]
}

func (bte *BulkTagEditor) IsModified(f mp3.Field) bool { return bte.modified[f] }

func (bte *BulkTagEditor) IsCleared(f mp3.Field) bool { return bte.cleared[f] }

func (bte *BulkTagEditor) Artwork() *mp3.Artwork { return bte.artwork }

func (bte *BulkTagEditor) ArtworkMixed() bool { return bte.artworkMixed && !bte.artworkEdited }

func (bte *BulkTagEditor) ArtworkEdited() bool { return bte.artworkEdited }

// HasChanges reports whether anything has been staged since Load.
func (bte *BulkTagEditor) HasChanges() bool {
	return len(bte.modified) > 0 || bte.artworkEdited
}

func (bte *BulkTagEditor) StartEditing(fieldIndex int) {
	if fieldIndex < 0 || fieldIndex >= len(editor.Fields) {
		return
	}

	bte.editingField = fieldIndex
	bte.isEditing = true
	bte.editBuffer = bte.values.Get(editor.Fields[fieldIndex].Field)
}

// StopEditing commits the buffer. An invalid value keeps the editor open
// and records the error for the field.
func (bte *BulkTagEditor) StopEditing() bool {
	if !bte.isEditing {
		return true
	}

	f := editor.Fields[bte.editingField].Field
	if err := mp3.CheckValue(f, bte.editBuffer); err != nil {
		bte.validationErrs[f] = "must be a number"
		return false
	}
	delete(bte.validationErrs, f)

	if bte.editBuffer != bte.values.Get(f) || bte.mixed[f] {
		bte.values[f] = bte.editBuffer
		bte.modified[f] = true
		delete(bte.cleared, f)
	}

	bte.isEditing = false
	bte.editBuffer = ""
	return true
}

func (bte *BulkTagEditor) CancelEditing() {
	if bte.isEditing {
		delete(bte.validationErrs, editor.Fields[bte.editingField].Field)
	}
	bte.isEditing = false
	bte.editBuffer = ""
}

func (bte *BulkTagEditor) UpdateEditBuffer(value string) {
	bte.editBuffer = value
}

// ClearField stages removal of the focused field from every selected file,
// whatever each file holds now.
func (bte *BulkTagEditor) ClearField() {
	f := editor.Fields[bte.editingField].Field
	bte.values[f] = ""
	bte.modified[f] = true
	bte.cleared[f] = true
}

// SetArtwork stages a new picture; nil removes the picture everywhere.
func (bte *BulkTagEditor) SetArtwork(art *mp3.Artwork) {
	bte.artwork = art
	bte.artworkEdited = true
}

func (bte *BulkTagEditor) MoveToPreviousField() {
	bte.editingField--
	if bte.editingField < 0 {
		bte.editingField = len(editor.Fields) - 1
	}
}

func (bte *BulkTagEditor) MoveToNextField() {
	bte.editingField++
	if bte.editingField >= len(editor.Fields) {
		bte.editingField = 0
	}
}

func (bte *BulkTagEditor) GetEditingField() int { return bte.editingField }

func (bte *BulkTagEditor) IsEditing() bool { return bte.isEditing }

func (bte *BulkTagEditor) GetEditBuffer() string { return bte.editBuffer }

func (bte *BulkTagEditor) GetValidationError(f mp3.Field) string {
	return bte.validationErrs[f]
}

// Edits converts the staged state into edits for Session.Apply. Blank
// fields are passed through so the keep-or-clear rule decides their fate;
// explicitly cleared fields go in Clear.
func (bte *BulkTagEditor) Edits() editor.Edits {
	edits := editor.Edits{
		Values:        bte.values.Clone(),
		ArtworkEdited: bte.artworkEdited,
		Artwork:       bte.artwork.Clone(),
	}
	for _, fd := range editor.Fields {
		if bte.cleared[fd.Field] {
			edits.Clear = append(edits.Clear, fd.Field)
		}
	}
	return edits
}

// editLine renders a multi-line value on one line for the field list.
func editLine(v string) string {
	return strings.Join(strings.Fields(v), " ")
}
