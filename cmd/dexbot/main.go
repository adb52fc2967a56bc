// Command dexbot researches creature questions with Gemini agents over a
// local roster, and exposes the analysis engine over HTTP and MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/config"
	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/matchup"
	"github.com/cpunion/dexbot/pkg/search"
	"github.com/cpunion/dexbot/pkg/typechart"
)

var version = "dev"

// app carries the loaded configuration and logger shared by subcommands.
type app struct {
	cfgPath  string
	roster   string
	sqlite   string
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dexbot",
		Short: "Creature research assistant",
		Long: `dexbot answers questions about creatures, their battle matchups and teams.

Research runs an outline, plan, execute and report loop with Gemini agents
that call the local analysis tools. The same tools are available directly
(lookup, search, team), over HTTP (serve) and over MCP stdio (mcp).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "dexbot.yaml", "Path to the YAML config file")
	flags.StringVar(&a.roster, "roster", "", "JSON roster file (overrides data.roster)")
	flags.StringVar(&a.sqlite, "sqlite", "", "SQLite roster database (overrides data.sqlite)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		a.researchCmd(),
		a.lookupCmd(),
		a.searchCmd(),
		a.teamCmd(),
		a.importCmd(),
		a.serveCmd(),
		a.mcpCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) load() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.roster != "" {
		cfg.Data.Roster = a.roster
	}
	if a.sqlite != "" {
		cfg.Data.SQLite = a.sqlite
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) analyzer() (*matchup.Analyzer, error) {
	if a.cfg.Data.TypeChart == "" {
		return matchup.New(nil), nil
	}
	chart, err := typechart.LoadFile(a.cfg.Data.TypeChart)
	if err != nil {
		return nil, fmt.Errorf("load type chart: %w", err)
	}
	return matchup.New(chart), nil
}

// searchOptions applies the configured search settings to every engine.
func (a *app) searchOptions() []search.Option {
	return []search.Option{search.WithDefaultLimit(a.cfg.Search.DefaultLimit)}
}

// openStore opens the SQLite roster when configured, else the JSON roster.
// The returned close function is never nil.
func (a *app) openStore(ctx context.Context) (dex.Store, func() error, error) {
	noop := func() error { return nil }

	if path := a.cfg.Data.SQLite; path != "" {
		s, err := dex.OpenSQLStore(path, a.logger)
		if err != nil {
			return nil, noop, err
		}
		n, err := s.Count(ctx)
		if err != nil {
			_ = s.Close()
			return nil, noop, err
		}
		if n == 0 {
			_ = s.Close()
			return nil, noop, fmt.Errorf("roster database %s is empty; run dexbot import first", path)
		}
		a.logger.Info("roster opened", zap.String("sqlite", path), zap.Int("creatures", n))
		return s, s.Close, nil
	}

	an, err := a.analyzer()
	if err != nil {
		return nil, noop, err
	}
	s, err := dex.LoadJSON(a.cfg.Data.Roster, an, a.logger)
	if err != nil {
		return nil, noop, err
	}
	return s, noop, nil
}
