package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"

	"github.com/vogtb/go-spreadsheet/packages/persist"
	"github.com/vogtb/go-spreadsheet/packages/report"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newShowCmd(a *app) *cobra.Command {
	var (
		summary bool
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the cells of a spreadsheet",
		Long: `Print every non-empty cell of a spreadsheet with its contents and value.

Output is an aligned table on a terminal and tab-separated otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			doc := persist.FromSpreadsheet(s)
			if isTerminal(out) {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCONTENTS\tVALUE")
				for _, cell := range doc.Cells {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", cell.Name, cell.Contents, cell.Value)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			} else {
				for _, cell := range doc.Cells {
					fmt.Fprintf(out, "%s\t%s\t%s\n", cell.Name, cell.Contents, cell.Value)
				}
			}

			if !summary {
				return nil
			}
			tag, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("--lang: %w", err)
			}
			sum, err := report.Summarize(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			return sum.WriteText(out, tag)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Also print a numeric summary")
	cmd.Flags().StringVar(&lang, "lang", "en", "Language tag used to format summary numbers")

	return cmd
}
