package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/aisearch"
	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/config"
	"github.com/HendryAvila/relnotes/internal/logging"
	"github.com/HendryAvila/relnotes/internal/observability"
	"github.com/HendryAvila/relnotes/internal/prefs"
	mcpserver "github.com/HendryAvila/relnotes/internal/server"
	"github.com/HendryAvila/relnotes/internal/updater"
)

// app carries state shared by every subcommand once the root pre-run
// has loaded configuration.
type app struct {
	configPath string
	verbose    bool
	// logToFile sends logs to DataDir instead of stderr.
	logToFile bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "relnotes",
		Short:         "Release notes dashboard: catalog, preferences and AI search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.Path(), "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newTUICmd(a),
		newIngestCmd(a),
		newPrefsCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var outputs []string
	if a.logToFile {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		outputs = []string{a.tuiLogPath()}
	}
	log, err := logging.New(cfg.LogLevel, a.verbose, outputs...)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) openCatalog() (*catalog.MemoryStore, error) {
	store, err := catalog.Open(a.cfg.ProductsFile)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	a.log.Info("catalog loaded", zap.Int("products", store.Len()), zap.String("file", a.cfg.ProductsFile))
	return store, nil
}

func (a *app) openPrefs() (*prefs.Store, error) {
	kv, err := prefs.OpenKV(a.cfg.Backend, a.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	store := prefs.Open(kv, a.log.Named("prefs"))
	return store, nil
}

// newAI builds the AI service. A missing credential is not an error:
// the service answers in fallback mode.
func (a *app) newAI(ctx context.Context, metrics *observability.Metrics) (*aisearch.Service, error) {
	ai := a.cfg.AI
	gen, err := aisearch.NewGenerator(ctx, ai.Provider, ai.APIKey, ai.Model, ai.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating %s generator: %w", ai.Provider, err)
	}
	if gen == nil {
		a.log.Warn("no AI credential configured, search answers are mocked", zap.String("provider", ai.Provider))
	} else {
		a.log.Info("AI search enabled", zap.String("generator", gen.Name()))
	}

	var opts []aisearch.Option
	if metrics != nil {
		opts = append(opts, aisearch.WithObserver(metrics.ObserveAISearch))
	}
	return aisearch.New(gen, a.log.Named("aisearch"), opts...), nil
}

func (a *app) tuiLogPath() string {
	return filepath.Join(a.cfg.DataDir, "tui.log")
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// Skip config loading so version works with a broken config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "relnotes v%s\n", mcpserver.Version)
			if !check {
				return nil
			}
			res, err := updater.NewChecker().Check(cmd.Context(), mcpserver.Version)
			if err != nil {
				return err
			}
			if res.UpdateAvailable {
				fmt.Fprintf(out, "Update available: v%s (%s)\n", res.LatestVersion, res.ReleaseURL)
			} else {
				fmt.Fprintln(out, "You are running the latest release.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
