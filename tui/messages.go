package tui

import "tagbatch/editor"

type Mode int

const (
	FileListMode Mode = iota
	BulkEditMode
	FieldEditMode
	PromptMode
	HelpMode
)

// PromptKind says what a line typed in PromptMode is for.
type PromptKind int

const (
	PromptRename PromptKind = iota
	PromptArtwork
)

type BatchSavedMsg struct {
	Verb   string
	Result editor.BatchResult
}

// StatusTickMsg expires the status line set with the same Seq.
type StatusTickMsg struct {
	Seq int
}
