package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/RotemSwisa/incident-response-simulator/internal/app"
	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/config"
	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
)

type rootOptions struct {
	configPath string
	url        string
	token      string
	scenario   string
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "irsim: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "irsim",
		Short:         "Incident-response training client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runTUI(cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "irsim.yaml", "path to YAML config file")
	flags.StringVar(&opts.url, "url", "", "scoring service base URL (overrides config)")
	flags.StringVar(&opts.token, "token", "", "bearer token (overrides config)")
	flags.StringVar(&opts.scenario, "scenario", "", "scenario to start (overrides config)")

	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a session headless, printing events as they arrive and the summary at the end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tr := scenario.NewTrainer(newAPI(cfg), cfg.API.Scenario)
			return runWatch(ctx, tr, pollerOptions(cfg), duration, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop watching after this long (0 waits for every event or ctrl-c)")
	return cmd
}

// loadConfig layers defaults, the config file, IRSIM_* env and flags.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.url != "" {
		cfg.API.BaseURL = opts.url
	}
	if opts.token != "" {
		cfg.API.Token = opts.token
	}
	if opts.scenario != "" {
		cfg.API.Scenario = opts.scenario
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newAPI(cfg *config.Config) *client.HTTPClient {
	return client.NewHTTPClient(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.Timeout),
		client.WithToken(cfg.API.Token),
	)
}

func pollerOptions(cfg *config.Config) []scenario.PollerOption {
	return []scenario.PollerOption{
		scenario.WithInterval(cfg.Sync.Interval),
		scenario.WithInitialDelay(cfg.Sync.InitialDelay),
		scenario.WithMaxBackoff(cfg.Sync.MaxBackoff),
	}
}

func runTUI(cfg *config.Config) error {
	// The TUI owns the terminal, so the log goes to a file.
	f, err := tea.LogToFile(cfg.Log.File, "irsim")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	tr := scenario.NewTrainer(newAPI(cfg), cfg.API.Scenario)
	m := app.New(tr, app.Options{
		SyncInterval: cfg.Sync.Interval,
		InitialDelay: cfg.Sync.InitialDelay,
		MaxBackoff:   cfg.Sync.MaxBackoff,
		AutoStart:    true,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// completeTimeout bounds the summary fetch after watching stops, which may
// be after the parent context was cancelled.
const completeTimeout = 30 * time.Second

func completeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), completeTimeout)
}
