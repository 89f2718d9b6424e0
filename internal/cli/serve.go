package cli

import (
	"fmt"

	"fitgauge/internal/ai"
	"fitgauge/internal/config"
	"fitgauge/internal/server"
	"fitgauge/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for fit assessment",
	Long: `Start an HTTP server that provides a REST API for fit assessment.

Available endpoints:
- POST /api/v1/assess: Assess a resume's fit against a job description
- GET /health: Health check endpoint
- GET /stats: Server, session, and rate limiting statistics

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Resolve secrets from Vault before wiring anything that needs them
	if cfg.Vault.Enabled {
		if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
			return fmt.Errorf("failed to apply Vault secrets: %w", err)
		}
	}

	aiService, err := ai.NewService(cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create narrative provider: %w", err)
	}

	snapshots := config.NewSnapshotStore(cfg, logger)
	deps := server.Dependencies{
		Sessions:  session.NewManager(snapshots, logger),
		Snapshots: snapshots,
		AIService: aiService,
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}
