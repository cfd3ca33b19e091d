package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tagbatch/editor"
	"tagbatch/mp3"
	"tagbatch/utils"
)

// editFlags stages editor input from the command line. A field flag that is
// not given is a blank editor field.
type editFlags struct {
	values        map[mp3.Field]*string
	clear         []string
	lyricsFile    string
	artwork       string
	clearArtwork  bool
	titleFromName bool
}

func (f *editFlags) register(cmd *cobra.Command) {
	f.values = make(map[mp3.Field]*string, len(editor.Fields))
	for _, d := range editor.Fields {
		f.values[d.Field] = cmd.Flags().String(string(d.Field), "", "Set "+strings.ToLower(d.Label))
	}
	cmd.Flags().StringSliceVar(&f.clear, "clear", nil, "Remove these fields from every file (comma separated)")
	cmd.Flags().StringVar(&f.lyricsFile, "lyrics-file", "", "Read lyrics from this file")
	cmd.Flags().StringVar(&f.artwork, "artwork", "", "Path to artwork image")
	cmd.Flags().BoolVar(&f.clearArtwork, "clear-artwork", false, "Remove embedded artwork")
	cmd.Flags().BoolVar(&f.titleFromName, "title-from-filename", false, "Set each file's title from its file name")

	cmd.MarkFlagsMutuallyExclusive("artwork", "clear-artwork")
	cmd.MarkFlagsMutuallyExclusive("lyrics", "lyrics-file")
}

// edits converts the flags into editor edits. Artwork is loaded through the
// session so size limits and PNG conversion apply.
func (f *editFlags) edits(s *editor.Session) (editor.Edits, error) {
	edits := editor.Edits{Values: mp3.Values{}}
	for field, v := range f.values {
		if *v != "" {
			edits.Values[field] = *v
		}
	}

	for _, name := range f.clear {
		field, ok := mp3.ParseField(name)
		if !ok {
			return edits, fmt.Errorf("unknown field %q", name)
		}
		edits.Clear = append(edits.Clear, field)
	}

	if f.lyricsFile != "" {
		data, err := os.ReadFile(f.lyricsFile)
		if err != nil {
			return edits, fmt.Errorf("failed to read lyrics file: %w", err)
		}
		edits.Values[mp3.FieldLyrics] = string(data)
	}

	switch {
	case f.artwork != "":
		art, err := s.ArtworkFromFile(f.artwork)
		if err != nil {
			return edits, fmt.Errorf("invalid artwork %s: %w", filepath.Base(f.artwork), err)
		}
		edits.ArtworkEdited = true
		edits.Artwork = art
	case f.clearArtwork:
		edits.ArtworkEdited = true
	}

	return edits, nil
}

// applyTitles sets each record's title from its file name. Records are
// applied one at a time so every file gets its own title.
func applyTitles(s *editor.Session, sel []*editor.Record) error {
	for _, rec := range sel {
		title := utils.DeriveTitleFromFilename(rec.Path())
		if title == "" {
			continue
		}
		edits := editor.Edits{Values: mp3.Values{mp3.FieldTitle: title}}
		if _, err := s.Apply([]*editor.Record{rec}, edits); err != nil {
			return err
		}
	}
	return nil
}
