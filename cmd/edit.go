package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	editInput inputFlags
	editOpts  editFlags
)

var editCmd = &cobra.Command{
	Use:   "edit [files...]",
	Short: "Edit tags across many files at once",
	Long: `Edit tags of every given file as one selection and save them.

A field flag overwrites that field in every file. Fields without a flag keep
each file's own value. Use --clear to remove a field everywhere.

Examples:
  tagbatch edit a.mp3 b.mp3 --artist "New Artist" --album "New Album"
  tagbatch edit --dir ./album --genre Jazz --year 1959 --artwork cover.jpg
  tagbatch edit --dir ./album --clear comment,lyrics --clear-artwork`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		edits, err := editOpts.edits(s)
		if err != nil {
			return err
		}

		sel, err := editInput.load(cmd.Context(), s, args)
		if err != nil {
			return err
		}

		res, err := s.Apply(sel, edits)
		if err != nil {
			return err
		}
		if editOpts.titleFromName {
			if err := applyTitles(s, sel); err != nil {
				return err
			}
		}
		logrus.Debugf("Changed %d field(s) in %d file(s)", res.Fields, res.Records)

		return reportBatch(cmd, "saved", s.Save(cmd.Context(), sel))
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editInput.register(editCmd)
	editOpts.register(editCmd)
}
