package tui

import "tagbatch/editor"

// FileList is the cursor and multi-selection over the session's records.
type FileList struct {
	records       []*editor.Record
	selectedIndex int
	selected      map[*editor.Record]bool
}

func NewFileList() *FileList {
	return &FileList{selected: make(map[*editor.Record]bool)}
}

// Refresh replaces the listed records, keeping the selection of records
// that are still present and clamping the cursor.
func (fl *FileList) Refresh(records []*editor.Record) {
	present := make(map[*editor.Record]bool, len(records))
	for _, rec := range records {
		present[rec] = true
	}
	for rec := range fl.selected {
		if !present[rec] {
			delete(fl.selected, rec)
		}
	}

	fl.records = records
	if fl.selectedIndex >= len(records) {
		fl.selectedIndex = len(records) - 1
	}
	if fl.selectedIndex < 0 {
		fl.selectedIndex = 0
	}
}

func (fl *FileList) Len() int { return len(fl.records) }

func (fl *FileList) Entries() []*editor.Record { return fl.records }

func (fl *FileList) GetSelectedIndex() int { return fl.selectedIndex }

// Current is the record under the cursor, or nil for an empty list.
func (fl *FileList) Current() *editor.Record {
	if len(fl.records) == 0 {
		return nil
	}
	return fl.records[fl.selectedIndex]
}

func (fl *FileList) MoveUp() {
	if fl.selectedIndex > 0 {
		fl.selectedIndex--
	}
}

func (fl *FileList) MoveDown() {
	if fl.selectedIndex < len(fl.records)-1 {
		fl.selectedIndex++
	}
}

func (fl *FileList) PageUp(pageSize int) {
	fl.selectedIndex = max(fl.selectedIndex-pageSize, 0)
}

func (fl *FileList) PageDown(pageSize int) {
	fl.selectedIndex = max(min(fl.selectedIndex+pageSize, len(fl.records)-1), 0)
}

func (fl *FileList) IsSelected(rec *editor.Record) bool {
	return fl.selected[rec]
}

func (fl *FileList) ToggleSelection() {
	rec := fl.Current()
	if rec == nil {
		return
	}
	if fl.selected[rec] {
		delete(fl.selected, rec)
	} else {
		fl.selected[rec] = true
	}
}

// ToggleAll selects every record, or clears the selection when all of
// them are already selected.
func (fl *FileList) ToggleAll() {
	if len(fl.records) > 0 && len(fl.selected) == len(fl.records) {
		clear(fl.selected)
		return
	}
	for _, rec := range fl.records {
		fl.selected[rec] = true
	}
}

func (fl *FileList) SelectedCount() int { return len(fl.selected) }

// Selection returns the marked records in list order. With nothing marked
// it falls back to the record under the cursor.
func (fl *FileList) Selection() []*editor.Record {
	var sel []*editor.Record
	for _, rec := range fl.records {
		if fl.selected[rec] {
			sel = append(sel, rec)
		}
	}
	if len(sel) == 0 {
		if rec := fl.Current(); rec != nil {
			sel = append(sel, rec)
		}
	}
	return sel
}
