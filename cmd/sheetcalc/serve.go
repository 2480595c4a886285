package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/packages/server"
	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr string
		file string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a spreadsheet over HTTP",
		Long: `Serve a spreadsheet over HTTP/JSON.

With --file the spreadsheet is loaded from the file if it exists and saved
back to it after every change.

Endpoints:
  GET    /cells                   non-empty cell names
  GET    /cells/{name}            contents and value
  PUT    /cells/{name}            {"contents": "..."}
  DELETE /cells/{name}
  GET    /cells/{name}/dependents
  GET    /summary
  GET    /export/{xml|xlsx}
  GET    /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			var (
				s   *spreadsheet.Spreadsheet
				err error
			)
			if file != "" {
				s, err = a.open(cmd, file)
				if errors.Is(err, fs.ErrNotExist) {
					s, err = a.newSpreadsheet()
				}
			} else {
				s, err = a.newSpreadsheet()
			}
			if err != nil {
				return err
			}

			opts := []server.Option{server.WithLogger(a.logger)}
			if file != "" {
				opts = append(opts, server.WithAutosave(func(ctx context.Context, s *spreadsheet.Spreadsheet) error {
					return a.store.Save(ctx, file, s)
				}))
			}
			srv := server.New(spreadsheet.NewSharedSpreadsheet(s), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	cmd.Flags().StringVar(&file, "file", "", "Spreadsheet file to load and autosave (.xml or .xlsx)")

	return cmd
}
