package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config collects every knob the process reads from the environment. It is
// built once in main and passed into constructors; nothing else touches
// os.Getenv.
type Config struct {
	// Port for the HTTP server. 0 picks a random available port.
	Port int

	// DatabaseURL is a Postgres DSN. When empty, DatabasePath selects a
	// SQLite file instead.
	DatabaseURL  string
	DatabasePath string

	// SignerURL points at a remote signing service. When empty,
	// SignerPrivateKey (hex) configures an in-process signer.
	SignerURL        string
	SignerPrivateKey string

	// JwksURI enables bearer-token auth on mutating routes when set.
	JwksURI    string
	ResourceID string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		SignerURL:        os.Getenv("SIGNER_URL"),
		SignerPrivateKey: os.Getenv("SIGNER_PRIVATE_KEY"),
		JwksURI:          os.Getenv("JWKS_URI"),
		ResourceID:       os.Getenv("AUTH_RESOURCE_ID"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}

	if cfg.DatabaseURL == "" && cfg.DatabasePath == "" {
		homePath, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DatabasePath = homePath + "/dropper.db"
	}

	if cfg.SignerURL == "" && cfg.SignerPrivateKey == "" {
		return nil, fmt.Errorf("either SIGNER_URL or SIGNER_PRIVATE_KEY must be set")
	}

	return cfg, nil
}
