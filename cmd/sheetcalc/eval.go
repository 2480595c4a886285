package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		sets []string
		in   string
	)

	cmd := &cobra.Command{
		Use:   "eval EXPR",
		Short: "Evaluate a formula expression",
		Long: `Evaluate a formula expression against an optional spreadsheet.

Cells can be loaded from a file with --in and set with --set, in order.
A leading = on the expression is optional.

Example: sheetcalc eval "A1 * (B1 + 2)" --set A1=3 --set B1==A1+1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   *spreadsheet.Spreadsheet
				err error
			)
			if in != "" {
				s, err = a.open(cmd, in)
			} else {
				s, err = a.newSpreadsheet()
			}
			if err != nil {
				return err
			}

			for _, assignment := range sets {
				name, contents, ok := strings.Cut(assignment, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q (want NAME=CONTENT)", assignment)
				}
				if _, err := s.SetCell(name, contents); err != nil {
					return fmt.Errorf("--set %s: %w", name, err)
				}
			}

			value, err := evaluate(s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), spreadsheet.FormatPrimitive(value))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a cell before evaluating (NAME=CONTENT, repeatable)")
	cmd.Flags().StringVar(&in, "in", "", "Spreadsheet file to evaluate against")

	return cmd
}

// evaluate computes expr against the current values of s without storing
// it in a cell. the result is a float64 or an *EvaluationError.
func evaluate(s *spreadsheet.Spreadsheet, expr string) (spreadsheet.Primitive, error) {
	expr = strings.TrimPrefix(strings.TrimSpace(expr), spreadsheet.FormulaPrefix)

	f, err := spreadsheet.NewFormula(expr, func(name string) string {
		canonical, err := s.CanonicalName(name)
		if err != nil {
			return name
		}
		return canonical
	}, func(name string) bool {
		_, err := s.CanonicalName(name)
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	value, evalErr := f.Evaluate(func(name string) (float64, bool) {
		v, err := s.GetCellValue(name)
		if err != nil {
			return 0, false
		}
		n, ok := v.(float64)
		return n, ok
	})
	if evalErr != nil {
		return evalErr, nil
	}
	return value, nil
}
