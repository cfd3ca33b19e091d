package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tagbatch/tui"
)

var tuiRecursive bool

var tuiCmd = &cobra.Command{
	Use:   "tui [DIR]",
	Short: "Launch interactive terminal UI",
	Long: `Load every MP3 in DIR (default: the configured default_directory) and
edit them interactively. Logs go to $TMPDIR/tagbatch/tui.log.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := appConfig.DefaultDirectory
		if len(args) == 1 {
			dir = args[0]
		}

		logFile, err := tui.InitLogging(logrus.StandardLogger())
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()

		ctx := cmd.Context()
		session := newSession()
		res := session.LoadFolder(ctx, dir, appConfig.FileExtension, tuiRecursive || appConfig.Recursive)
		for _, fe := range res.Failures {
			logrus.WithField("file", fe.Path).Errorf("Skipping: %v", fe.Err)
		}
		logrus.Infof("Load %s: %s", dir, res)
		if session.Len() == 0 {
			return fmt.Errorf("no readable %s files in %s", appConfig.FileExtension, dir)
		}

		return tui.Run(ctx, session, logrus.StandardLogger())
	},
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiRecursive, "recursive", false, "Search DIR recursively")
	rootCmd.AddCommand(tuiCmd)
}
