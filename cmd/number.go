package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var numberInput inputFlags

var numberCmd = &cobra.Command{
	Use:   "number [files...]",
	Short: "Number tracks in the given order",
	Long: `Sets track to each file's position (1, 2, ...) and track total to the
number of files, then saves. Files given as arguments keep their argument
order; files from --dir are numbered in name order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		sel, err := numberInput.load(cmd.Context(), s, args)
		if err != nil {
			return err
		}

		res, err := s.AutoNumberTracks(sel)
		if err != nil {
			return err
		}
		logrus.Debugf("Renumbered %d file(s)", res.Records)

		return reportBatch(cmd, "saved", s.Save(cmd.Context(), sel))
	},
}

func init() {
	rootCmd.AddCommand(numberCmd)
	numberInput.register(numberCmd)
}
