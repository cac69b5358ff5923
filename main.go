package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evanofslack/clouddns-console/internal/account"
	"github.com/evanofslack/clouddns-console/internal/config"
	"github.com/evanofslack/clouddns-console/internal/logger"
	"github.com/evanofslack/clouddns-console/internal/metrics"
	"github.com/evanofslack/clouddns-console/internal/provider"
	"github.com/evanofslack/clouddns-console/internal/provider/clouddns"
	"github.com/evanofslack/clouddns-console/internal/provider/cloudflare"
	"github.com/evanofslack/clouddns-console/internal/server"
	"github.com/evanofslack/clouddns-console/internal/session"
	"github.com/evanofslack/clouddns-console/internal/transform"
	"github.com/evanofslack/clouddns-console/internal/zone"
)

// app holds everything built from config that the commands share.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	accounts *account.Manager
	zones    *zone.Service
}

func newApp(path string, register bool) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Log)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m := metrics.New(register)
	p, err := newProvider(cfg.DNS, m)
	if err != nil {
		return nil, fmt.Errorf("initialize dns provider: %w", err)
	}
	slog.Debug("Initialized dns provider", "provider", cfg.DNS.Provider, "account", p.DefaultAccount())

	return &app{
		cfg:      cfg,
		metrics:  m,
		accounts: account.NewManager(p, m),
		zones:    zone.NewService(transform.New(cfg.DNS.ReservedNameserverSuffix), m, cfg.DNS.TTL),
	}, nil
}

func newProvider(cfg config.DNS, m *metrics.Metrics) (provider.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderCloudflare:
		return cloudflare.New(cfg, m)
	default:
		return clouddns.New(cfg, m)
	}
}

// scope pins accountID, or the provider default when it is empty.
func (a *app) scope(ctx context.Context, accountID string) (account.Scope, error) {
	sc, err := a.accounts.Pin(ctx, a.accounts.Resolve(accountID))
	if err != nil {
		return sc, err
	}
	if sc.Degraded {
		fmt.Fprintln(os.Stderr, "warning:", sc.Warning)
	}
	return sc, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clouddns-console",
		Short:         "Web console and tools for cloud DNS accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "config.yaml", "Path to the config file")

	serve := newCmdServe()
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve)
	cmd.AddCommand(newCmdAccounts())
	cmd.AddCommand(newCmdDuplicate())
	cmd.AddCommand(newCmdSetTTL())
	return cmd
}

func newCmdServe() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			a, err := newApp(path, true)
			if err != nil {
				return err
			}

			sessions, err := session.New(a.cfg.SessionPath, a.metrics)
			if err != nil {
				return fmt.Errorf("initialize session store: %w", err)
			}
			defer sessions.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("Starting clouddns-console", "provider", a.cfg.DNS.Provider, "default_account", a.accounts.Default())
			srv := server.New(a.accounts, a.zones, sessions, a.metrics)
			if err := srv.ListenAndServe(ctx, a.cfg.ListenAddr); err != nil {
				return err
			}
			slog.Info("Service shutdown complete")
			return nil
		},
	}
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	if err := root.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
