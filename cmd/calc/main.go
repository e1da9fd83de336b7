package main

import (
	"fmt"
	"os"
	"time"

	"calcnerd/internal/calc"
	"calcnerd/internal/config"
	"calcnerd/internal/history"
	"calcnerd/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// cli holds global flags and the state built from them before any
// command runs.
type cli struct {
	// Global flags
	configPath string
	verbose    bool
	serviceURL string
	timeout    time.Duration

	cfg      *config.Config
	client   *calc.Client
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "calc",
		Short: "calcnerd - terminal client for the symbolic calculation service",
		Long: `calc sends derivative, integral, limit and series problems to a remote
calculation service and shows the result, the step-by-step explanation and
a plot of the functions involved.

Run without arguments to start the interactive calculator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.reportMetrics()
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInteractive(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultConfigPath, "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&c.serviceURL, "service-url", "", "Calculation service base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "HTTP timeout for each request (0 = config value)")

	for _, cmd := range c.operationCmds() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(c.batchCmd())
	rootCmd.AddCommand(c.historyCmd())
	rootCmd.AddCommand(c.configCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides, starts logging and builds
// the service client.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.serviceURL != "" {
		cfg.Service.BaseURL = c.serviceURL
	}
	if c.timeout > 0 {
		cfg.Service.Timeout = c.timeout.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c.cfg = cfg

	cfg.Logging.DebugMode = cfg.Logging.DebugMode || c.verbose
	logOpts := logging.Options{
		DebugMode: cfg.Logging.DebugMode,
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Enabled:   cfg.Logging.IsCategoryEnabled,
	}
	if c.verbose {
		logOpts.Level = "debug"
	}
	// The interactive screen owns stderr, so it logs to a file.
	if cmd.Root() == cmd {
		logOpts.File = cfg.Logging.File
	}
	if err := logging.Initialize(logOpts); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	c.registry = prometheus.NewRegistry()
	metrics, err := calc.NewMetrics(c.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	c.client = calc.NewClient(cfg.ServiceURL(),
		calc.WithTimeout(cfg.GetServiceTimeout()),
		calc.WithMetrics(metrics),
	)
	logging.API("service endpoint %s (timeout %v)", c.client.URL(), cfg.GetServiceTimeout())
	return nil
}

// openHistory returns the history store, or nil when history is disabled.
func (c *cli) openHistory() (*history.Store, error) {
	if !c.cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.NewStore(c.cfg.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	logging.StoreDebug("history database %s", store.Path())
	return store, nil
}

func (c *cli) reportMetrics() {
	if c.registry == nil || !logging.IsDebugMode() {
		return
	}
	families, err := c.registry.Gather()
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("failed to gather metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				logging.Boot("%s%v = %v", mf.GetName(), labels, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				logging.Boot("%s%v count=%d sum=%.3fs", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}
