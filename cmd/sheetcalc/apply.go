package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// scriptLine is one "NAME: CONTENT" assignment of an apply script
type scriptLine struct {
	number   int
	name     string
	contents string
}

// parseScript reads assignments, one per line. blank lines and lines
// starting with # are skipped. the contents are everything after the
// first colon with surrounding whitespace removed, so "A1:" empties A1.
func parseScript(r io.Reader) ([]scriptLine, error) {
	var lines []scriptLine
	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, contents, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected NAME: CONTENT, got %q", number, text)
		}
		lines = append(lines, scriptLine{
			number:   number,
			name:     strings.TrimSpace(name),
			contents: strings.TrimSpace(contents),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return lines, nil
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		in    string
		out   string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "apply SCRIPT",
		Short: "Apply a script of cell assignments",
		Long: `Apply a script of cell assignments, one "NAME: CONTENT" per line.

The script is read from SCRIPT, or from stdin when SCRIPT is "-". Cells are
set in order on the spreadsheet loaded from --in (or an empty one) and the
result is saved to --out when given. The first failing line stops the run
and nothing is saved.

Example: sheetcalc apply changes.txt --in book.xlsx --out book.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			lines, err := parseScript(r)
			if err != nil {
				return err
			}

			var s *spreadsheet.Spreadsheet
			if in != "" {
				s, err = a.open(cmd, in)
			} else {
				s, err = a.newSpreadsheet()
			}
			if err != nil {
				return err
			}

			printLn := func(line string) { fmt.Fprintln(cmd.OutOrStdout(), line) }
			if quiet {
				printLn = func(string) {}
			}
			runnable := spreadsheet.WrapSpreadsheet(s, printLn)

			for _, line := range lines {
				runnable.Then(func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
					return r.Set(line.name, line.contents)
				}).OnError(func(err error) error {
					return fmt.Errorf("line %d: %s: %w", line.number, line.name, err)
				})
				if runnable.Error() != nil {
					break
				}
				a.logger.Debug("applied", "line", line.number, "cell", line.name, "recalculated", runnable.Affected())
			}
			for _, name := range s.GetNonemptyCellNames() {
				runnable.Log(name)
			}

			if _, err := runnable.Run(); err != nil {
				return err
			}
			if out != "" {
				return a.store.Save(cmd.Context(), out, s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Spreadsheet file to start from")
	cmd.Flags().StringVar(&out, "out", "", "Spreadsheet file to save the result to (.xml or .xlsx)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the resulting cell values")

	return cmd
}
