package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rxtech-lab/dropper-engine/internal/api"
	"github.com/rxtech-lab/dropper-engine/internal/config"
	"github.com/rxtech-lab/dropper-engine/internal/services"
	"github.com/rxtech-lab/dropper-engine/internal/signer"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var quiet = flag.Bool("quiet", false, "Disable logging output")
	flag.Parse()

	if *quiet {
		log.SetOutput(io.Discard)
	}

	if *showVersion {
		log.Printf("Dropper Engine\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		log.Printf("Dropper Engine\n\n")
		log.Printf("Usage: %s [options]\n\n", os.Args[0])
		log.Printf("Options:\n")
		log.Printf("  --version    Show version information\n")
		log.Printf("  --help       Show this help message\n")
		log.Printf("  --quiet      Disable logging output\n\n")
		log.Printf("Description:\n")
		log.Printf("  Voucher issuance service for on-chain token distribution contracts.\n")
		log.Printf("  Registers dropper contracts and claims, maintains claimant ledgers\n")
		log.Printf("  and signs claim vouchers for on-chain redemption.\n\n")
		log.Printf("Environment:\n")
		log.Printf("  PORT                 HTTP port (default: random)\n")
		log.Printf("  DATABASE_URL         Postgres DSN (default: SQLite at ~/dropper.db)\n")
		log.Printf("  DATABASE_PATH        SQLite file path\n")
		log.Printf("  SIGNER_URL           Remote signing service base URL\n")
		log.Printf("  SIGNER_PRIVATE_KEY   Hex private key for in-process signing\n")
		log.Printf("  JWKS_URI             JWKS endpoint enabling bearer auth\n")
		log.Printf("  AUTH_RESOURCE_ID     Expected token audience\n")
		return
	}

	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	var dbService services.DBService
	if cfg.DatabaseURL != "" {
		dbService, err = services.NewPostgresDBService(cfg.DatabaseURL)
	} else {
		dbService, err = services.NewSqliteDBService(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer dbService.Close()
	db := dbService.GetDB()

	// Initialize signer
	var voucherSigner signer.Signer
	if cfg.SignerURL != "" {
		voucherSigner, err = signer.NewRemoteSigner(context.Background(), cfg.SignerURL)
	} else {
		voucherSigner, err = signer.NewLocalSignerFromHex(cfg.SignerPrivateKey)
	}
	if err != nil {
		log.Fatal("Failed to initialize signer:", err)
	}
	log.Printf("Signer address: %s\n", voucherSigner.Address().Hex())

	contracts := services.NewContractService(db)
	claims := services.NewClaimService(db)
	claimants := services.NewClaimantService(db)
	vouchers := services.NewVoucherService(claims, claimants, voucherSigner)
	leaderboards := services.NewLeaderboardService(db)

	serverConfig := api.ServerConfig{ResourceID: cfg.ResourceID}
	if cfg.JwksURI != "" {
		serverConfig.Authenticator = utils.NewJwtAuthenticator(cfg.JwksURI)
	} else {
		log.Println("JWKS_URI not set, mutating routes are unauthenticated")
	}

	apiServer := api.NewAPIServer(contracts, claims, claimants, vouchers, leaderboards, serverConfig)
	port, err := apiServer.Start(cfg.Port)
	if err != nil {
		log.Fatal("Failed to start API server:", err)
	}
	log.Printf("API server started on port %d\n", port)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("\nShutting down server...")
	if err := apiServer.Shutdown(); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	log.Println("Server shut down successfully")
}
