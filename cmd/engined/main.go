package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agrifi-network/ledger-engine/internal/chainreader"
	"github.com/agrifi-network/ledger-engine/internal/config"
	"github.com/agrifi-network/ledger-engine/internal/logger"
	"github.com/agrifi-network/ledger-engine/internal/service"
	"github.com/agrifi-network/ledger-engine/internal/state"
	"github.com/agrifi-network/ledger-engine/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const PROBE_TIMEOUT = 10 * time.Second

// main is the entry point for the ledger quote engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Str("chain_id", config.ChainID).Msg("Ledger engine starting...")

	// Initialize Database Connection (quote receipt audit store)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Initialize gRPC Connection
	grpcEndpoint := config.NodeGRPC
	var creds grpc.DialOption
	if strings.Contains(grpcEndpoint, ":443") {
		creds = grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{}))
	} else {
		creds = grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	grpcClient, err := grpc.Dial(grpcEndpoint, creds)
	if err != nil {
		log.Fatal().Err(err).Msg("gRPC connection error")
	}
	defer grpcClient.Close()
	log.Info().Str("endpoint", grpcEndpoint).Msg("gRPC connected")

	// --- 2. Connectivity Probes ---
	// Verify both node surfaces before serving quotes: the treasury balance
	// over gRPC and the base denom supply over JSON-RPC. A node that cannot
	// answer these cannot serve snapshots either.
	probeCtx, cancelProbe := context.WithTimeout(context.Background(), PROBE_TIMEOUT)
	defer cancelProbe()

	treasuryBalance, err := chainreader.FetchBalance(probeCtx, grpcClient, config.TreasuryAccount, config.BaseDenom)
	if err != nil {
		log.Fatal().Err(err).Str("account", config.TreasuryAccount).Msg("Treasury balance probe failed")
	}
	totalSupply, err := chainreader.FetchTotalSupply(config.BaseDenom)
	if err != nil {
		log.Fatal().Err(err).Str("denom", config.BaseDenom).Msg("Total supply probe failed")
	}
	log.Info().
		Str("treasury_balance", treasuryBalance.String()).
		Str("total_supply", totalSupply.String()).
		Msg("Node connectivity verified")

	// --- 3. Quote Service Wiring ---
	reader := chainreader.NewReader()
	quotes, err := service.NewQuoteService(service.Config{Reader: reader})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create quote service")
	}
	log.Info().Msg("Quote service created successfully")

	// --- 4. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, quotes)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting quote API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// Block until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
