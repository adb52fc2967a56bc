package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cpunion/dexbot/pkg/api"
	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/mcptools"
	"github.com/cpunion/dexbot/pkg/research"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve research sessions and the analysis engine over HTTP",
		Long: `Serves the JSON API:

  POST /api/research            {prompt, session_id?}
  POST /api/clarify             {message, session_id?}
  GET  /api/sessions            saved session ids
  GET  /api/sessions/{id}       session state
  GET  /api/sessions/{id}/events stage trace from the event log
  GET  /api/sessions/{id}/report.html
  POST /api/search              search criteria
  POST /api/team                {names}
  GET  /api/creatures/{name}    ?groups=battle_profile,evolution&version=...

  GET  /healthz

Research routes answer 503 when no Gemini API key is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := api.Options{Store: store, Logger: a.logger, SearchLimit: a.cfg.Search.DefaultLimit}
			if a.cfg.RequireLLM() == nil {
				c, closeController, err := a.newController(ctx, store)
				if err != nil {
					return err
				}
				defer closeController()
				opts.Research = c
				opts.Sessions = research.NewFileSessionStore(a.cfg.SessionsDir())
				opts.EventsPath = a.cfg.Log.Events
			} else {
				a.logger.Warn("no API key configured; research routes disabled")
			}

			handler, err := api.New(opts)
			if err != nil {
				return err
			}
			return a.listen(ctx, &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// listen serves until ctx is cancelled, then shuts srv down gracefully.
func (a *app) listen(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Fprintf(os.Stderr, "dexbot MCP server %s on stdio\n", version)
			return mcptools.ServeStdio(store, version, a.logger, a.searchOptions()...)
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON roster into the SQLite roster database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if from == "" {
				from = a.cfg.Data.Roster
			}
			if to == "" {
				to = a.cfg.Data.SQLite
			}
			if to == "" {
				return errors.New("no database given: use --to or data.sqlite")
			}

			an, err := a.analyzer()
			if err != nil {
				return err
			}
			f, err := os.Open(from)
			if err != nil {
				return fmt.Errorf("open roster: %w", err)
			}
			defer f.Close()
			profiles, err := dex.DecodeRoster(f, an)
			if err != nil {
				return err
			}

			s, err := dex.OpenSQLStore(to, a.logger)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Import(ctx, profiles); err != nil {
				return err
			}
			n, err := s.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d creatures into %s (%d total)\n", len(profiles), to, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "JSON roster to import (default data.roster)")
	cmd.Flags().StringVar(&to, "to", "", "SQLite database to write (default data.sqlite)")
	return cmd
}
