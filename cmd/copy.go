package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tagbatch/utils"
)

var copyOpts editFlags

var copyCmd = &cobra.Command{
	Use:   "copy [source] [destination]",
	Short: "Save a copy of a file with edited tags",
	Long: `Copies the source file to the destination and writes the edited tags to
the copy only. The source file is never modified.

Example:
  tagbatch copy song.mp3 radio-edit.mp3 --title "Song (Radio Edit)"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.ValidateAudioFile(args[0], appConfig.FileExtension); err != nil {
			return err
		}

		s := newSession()
		if res := s.LoadFiles(cmd.Context(), args[:1]); len(res.Failures) > 0 {
			return res.Failures[0]
		}
		rec := s.Lookup(args[0])
		if rec == nil {
			return fmt.Errorf("%s is not loaded", args[0])
		}

		edits, err := copyOpts.edits(s)
		if err != nil {
			return err
		}
		sel := s.SelectAll()
		if _, err := s.Apply(sel, edits); err != nil {
			return err
		}
		if copyOpts.titleFromName {
			if err := applyTitles(s, sel); err != nil {
				return err
			}
		}

		return reportBatch(cmd, "copied", s.SaveAs(rec, args[1]))
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyOpts.register(copyCmd)
}
