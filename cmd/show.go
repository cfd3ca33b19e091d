package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tagbatch/editor"
	"tagbatch/mp3"
	"tagbatch/utils"
)

var (
	showInput inputFlags
	showJSON  bool
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mixedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#F59E0B"))
)

type fileReport struct {
	File         string            `json:"file"`
	Tags         map[string]string `json:"tags"`
	Encoder      string            `json:"encoder,omitempty"`
	Size         string            `json:"size"`
	Duration     string            `json:"duration"`
	Bitrate      string            `json:"bitrate"`
	Format       string            `json:"format"`
	ArtworkBytes int               `json:"artworkBytes"`
	DerivedTitle string            `json:"derivedTitle,omitempty"`
}

type showReport struct {
	Files  []fileReport      `json:"files"`
	Common map[string]string `json:"common"`
	Mixed  []string          `json:"mixed"`
}

var showCmd = &cobra.Command{
	Use:   "show [files...]",
	Short: "Show tags of files and the values they share",
	Long: `Reads every file and prints its tags and audio properties, followed by
the common value of each field across all files ("<multiple values>" when
they differ).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession()
		sel, err := showInput.load(cmd.Context(), s, args)
		if err != nil {
			return err
		}

		report := buildReport(sel, s.Project(sel))
		if showJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func buildReport(sel []*editor.Record, proj editor.Projection) showReport {
	report := showReport{Common: map[string]string{}}
	for _, rec := range sel {
		props := rec.Properties()
		fr := fileReport{
			File:     rec.Path(),
			Tags:     map[string]string{},
			Encoder:  props.Encoder,
			Size:     props.Size(),
			Duration: props.Length(),
			Bitrate:  props.BitrateText(),
			Format:   props.Format,
		}
		for _, d := range editor.Fields {
			if v := rec.Get(d.Field); v != "" {
				fr.Tags[string(d.Field)] = v
			}
		}
		if art := rec.Artwork(); art != nil {
			fr.ArtworkBytes = len(art.Data)
		}
		if strings.TrimSpace(rec.Get(mp3.FieldTitle)) == "" {
			fr.DerivedTitle = utils.DeriveTitleFromFilename(rec.Path())
		}
		report.Files = append(report.Files, fr)
	}

	for _, d := range editor.Fields {
		if proj.Mixed(d.Field) {
			report.Mixed = append(report.Mixed, string(d.Field))
			continue
		}
		if v := proj.Value(d.Field); v != "" {
			report.Common[string(d.Field)] = v
		}
	}
	return report
}

func printReport(w io.Writer, report showReport) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, fr := range report.Files {
		fmt.Fprintln(tw, headingStyle.Render(fr.File))
		for _, d := range editor.Fields {
			if v, ok := fr.Tags[string(d.Field)]; ok {
				fmt.Fprintf(tw, "  %s:\t%s\n", d.Label, oneLine(v))
			}
		}
		if fr.DerivedTitle != "" {
			fmt.Fprintf(tw, "  (Derived Title):\t%s\n", fr.DerivedTitle)
		}
		if fr.Encoder != "" {
			fmt.Fprintf(tw, "  Encoder:\t%s\n", fr.Encoder)
		}
		fmt.Fprintf(tw, "  Artwork:\t%d bytes\n", fr.ArtworkBytes)
		fmt.Fprintf(tw, "  Audio:\t%s, %s, %s, %s\n", fr.Format, fr.Duration, fr.Bitrate, fr.Size)
		fmt.Fprintln(tw)
	}

	if len(report.Files) > 1 {
		fmt.Fprintln(tw, headingStyle.Render(fmt.Sprintf("Common values (%d files)", len(report.Files))))
		mixed := make(map[string]bool, len(report.Mixed))
		for _, m := range report.Mixed {
			mixed[m] = true
		}
		for _, d := range editor.Fields {
			switch {
			case mixed[string(d.Field)]:
				fmt.Fprintf(tw, "  %s:\t%s\n", d.Label, mixedStyle.Render("<multiple values>"))
			case report.Common[string(d.Field)] != "":
				fmt.Fprintf(tw, "  %s:\t%s\n", d.Label, oneLine(report.Common[string(d.Field)]))
			}
		}
	}
	tw.Flush()
}

// oneLine shortens multi-line values such as lyrics for table output.
func oneLine(s string) string {
	first, _, multi := strings.Cut(s, "\n")
	if multi {
		return fmt.Sprintf("%s … (%d lines)", first, strings.Count(s, "\n")+1)
	}
	return s
}

func init() {
	rootCmd.AddCommand(showCmd)
	showInput.register(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
}
