package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/go-spreadsheet/packages/report"
)

// checkResult is the outcome of loading one file
type checkResult struct {
	path    string
	summary report.Summary
	err     error
}

func newCheckCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Verify that spreadsheet files load cleanly",
		Long: `Load each file under the configured name policy and report whether it is
consistent: readable, free of invalid names and formulas, duplicate cells
and circular dependencies. Files are checked concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobs <= 0 {
				jobs = runtime.NumCPU()
			}

			results := make([]checkResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, path := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					results[i].path = path
					s, err := a.open(cmd, path)
					if err != nil {
						results[i].err = err
						return nil
					}
					results[i].summary, results[i].err = report.Summarize(s)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, result := range results {
				if result.err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", result.path, result.err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%d cells, %d errors)\n", result.path, result.summary.Cells, result.summary.Errors)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Files to check in parallel (default: number of CPUs)")

	return cmd
}
