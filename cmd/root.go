package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tagbatch/config"
	"tagbatch/editor"
	"tagbatch/mp3"
)

var (
	cfgFile string
	verbose bool

	appConfig = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "tagbatch",
	Short: "Batch ID3 tag editor for MP3 files",
	Long: `tagbatch loads many MP3 files, shows which tag values they share and
edits fields across the whole selection at once.

A field left blank keeps each file's own value unless every selected file
already has it empty. Files are rewritten atomically and only the tag is
touched; the audio stream is copied byte for byte.

Examples:
  tagbatch show --dir ./album
  tagbatch edit --dir ./album --artist "Band" --album "LP" --artwork cover.jpg
  tagbatch number 01.mp3 02.mp3 03.mp3
  tagbatch rename old.mp3 "New Name"
  tagbatch tui ./album`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tagbatch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".tagbatch")
	}

	config.SetupEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logrus.Warnf("Could not read config file %s: %v", cfgFile, err)
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		logrus.Warnf("Ignoring invalid configuration: %v", err)
		cfg = config.DefaultConfig()
	}
	appConfig = cfg

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else if level, err := logrus.ParseLevel(appConfig.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
}

// newSession builds a session from the loaded configuration.
func newSession() *editor.Session {
	log := logrus.StandardLogger()
	codec := mp3.NewTagCodec(
		mp3.WithLogger(log),
		mp3.WithPadding(appConfig.TagPadding),
	)

	maxDim := 0
	if appConfig.EnableImageResize {
		maxDim = appConfig.MaxArtworkSize
	}

	return editor.NewSession(
		editor.WithLogger(log),
		editor.WithCodec(codec),
		editor.WithConcurrency(appConfig.LoadConcurrency),
		editor.WithPreserveModTime(appConfig.PreserveModTime),
		editor.WithArtworkLimits(appConfig.MaxArtworkBytes, maxDim),
	)
}

// inputFlags selects files by argument and/or by folder.
type inputFlags struct {
	dir       string
	recursive bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "Load every matching file in this directory")
	cmd.Flags().BoolVar(&f.recursive, "recursive", false, "Search --dir recursively")
}

// load reads args and --dir into s and returns the selection in argument
// order followed by folder order. Load failures are logged, not fatal.
func (f *inputFlags) load(ctx context.Context, s *editor.Session, args []string) ([]*editor.Record, error) {
	if len(args) == 0 && f.dir == "" {
		return nil, fmt.Errorf("no input: pass files or --dir")
	}

	var results []editor.LoadResult
	if len(args) > 0 {
		results = append(results, s.LoadFiles(ctx, args))
	}
	if f.dir != "" {
		recursive := f.recursive || appConfig.Recursive
		results = append(results, s.LoadFolder(ctx, f.dir, appConfig.FileExtension, recursive))
	}

	for _, res := range results {
		for _, fe := range res.Failures {
			logrus.WithField("file", fe.Path).Errorf("Skipping: %v", fe.Err)
		}
		logrus.Debugf("Load: %s", res)
	}

	sel := s.SelectAll()
	if len(sel) == 0 {
		return nil, fmt.Errorf("no readable files")
	}
	return sel, nil
}

// reportBatch prints the result and turns any failure into an error so the
// process exits non-zero.
func reportBatch(cmd *cobra.Command, verb string, res editor.BatchResult) error {
	for _, w := range res.Warnings {
		logrus.Warn(w.Error())
	}
	for _, f := range res.Failures {
		logrus.Error(f.Error())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d %s\n", res.Succeeded, res.Attempted, verb)
	if !res.OK() {
		return fmt.Errorf("%d file(s) failed", len(res.Failures))
	}
	return nil
}
