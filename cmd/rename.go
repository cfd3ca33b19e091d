package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tagbatch/utils"
)

var renameCmd = &cobra.Command{
	Use:     "rename [file] [new name]",
	Short:   "Rename a file, keeping its extension",
	Example: `  tagbatch rename "track01.mp3" "01 - Intro"`,
	Args:    cobra.ExactArgs(2),
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

		if err := s.Rename(rec, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "renamed to %s\n", rec.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
