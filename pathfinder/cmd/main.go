package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/config"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/oneinch"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/router/brokers/zerox"
	"github.com/Cogwheel-Validator/spectra-swap/pathfinder/rpc"
)

var log zerolog.Logger

func init() {
	// Initialize zerolog with console writer
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

func main() {
	// Parse command line flags
	configRpc := flag.String("config-rpc", "", "config file for the rpc server, PATHFINDER_* env vars when empty")
	configRegistry := flag.String("config-registry", "", "generated token registry, overrides registry_path")
	flag.Parse()

	log.Info().
		Str("rpc_config", *configRpc).
		Msg("Starting Spectra's Pathfinder")

	// Load RPC server configuration
	var configPath *string
	if *configRpc != "" {
		configPath = configRpc
	}
	rpcConfig, err := config.LoadRPCPathfinderConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load RPC config")
	}
	if *configRegistry != "" {
		rpcConfig.RegistryPath = *configRegistry
	}

	// Token metadata is optional, without it tokens are quoted by address only
	var tokens rpc.TokenLookup
	if rpcConfig.RegistryPath != "" {
		registry, err := config.LoadTokenRegistry(rpcConfig.RegistryPath, rpcConfig.ChainID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load token registry")
		}
		tokens = registry
		log.Info().Int("chains", len(registry.Chains)).Msg("Loaded token registry")
	}

	// Initialize quote providers
	oneInchBroker, err := oneinch.NewQuoteBrokerWithFailover(rpcConfig.OneInchURLs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create 1inch broker")
	}
	zeroXBroker, err := zerox.NewQuoteBrokerWithFailover(rpcConfig.ZeroXURLs, rpcConfig.ZeroXAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create 0x broker")
	}
	log.Info().
		Int("oneinch_endpoints", len(rpcConfig.OneInchURLs)).
		Int("zerox_endpoints", len(rpcConfig.ZeroXURLs)).
		Uint64("chain_id", rpcConfig.ChainID).
		Msg("Quote providers initialized")

	metrics := router.NewMetrics(prometheus.DefaultRegisterer)
	aggregator := router.NewAggregator(oneInchBroker, zeroXBroker, metrics)
	swapServer := rpc.NewSwapServer(aggregator, tokens, rpcConfig.ChainID)

	// Create the RPC server configuration
	serverConfig := buildServerConfig(rpcConfig)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := rpc.NewServer(ctx, serverConfig, swapServer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	oneInchBroker.Close()
	zeroXBroker.Close()
	log.Info().Msg("Closed quote providers")
}

// buildServerConfig converts the loaded RPCPathfinderConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCPathfinderConfig) *rpc.ServerConfig {
	serverConfig := rpc.DefaultServerConfig()
	serverConfig.Address = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	serverConfig.AllowedOrigins = cfg.AllowedOrigins
	serverConfig.EnableMetrics = cfg.UsePrometheus || cfg.EnableMetrics

	// Set rate limiting if configured
	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	// Set OpenTelemetry configuration if any telemetry is enabled
	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:      defaultString(cfg.ServiceName, "spectra-swap-pathfinder"),
			ServiceVersion:   defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:      defaultString(cfg.Environment, "development"),
			EnableTracing:    cfg.EnableTracing,
			UseOTLPTraces:    cfg.UseOTLPTraces,
			OTLPTracesURL:    cfg.OTLPTracesURL,
			TraceSampleRatio: cfg.TraceSampleRatio,
			EnableMetrics:    cfg.EnableMetrics,
			UsePrometheus:    cfg.UsePrometheus,
			UseOTLPMetrics:   cfg.UseOTLPMetrics,
			OTLPMetricsURL:   cfg.OTLPMetricsURL,
			EnableLogs:       cfg.EnableLogs,
			UseOTLPLogs:      cfg.UseOTLPLogs,
			OTLPLogsURL:      cfg.OTLPLogsURL,
			InsecureOTLP:     cfg.InsecureOTLP,
			DevelopmentMode:  cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
