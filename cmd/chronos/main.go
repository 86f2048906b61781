package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/chronos-io/chronos-ce/internal/config"
	"github.com/chronos-io/chronos-ce/internal/database"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPathFlag string

var rootCmd = &cobra.Command{
	Use:   "chronos",
	Short: "Chronos CLI - time tracking service management tool",
	Long: `Chronos Command Line Interface

Utilities for managing a Chronos installation: schema migrations,
seeding lookup data, and minting development tokens.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Chronos CLI %s\n", rootCmd.Version)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.MustLoad(configPathFlag)
		cfg := config.Get()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("Schema is up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed example projects and categories for development",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.MustLoad(configPathFlag)
		cfg := config.Get()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		seeds := []string{
			`INSERT INTO projects (name, color, is_archived, created_at, updated_at)
				VALUES ('Internal', '#4f46e5', FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			`INSERT INTO projects (name, color, is_archived, created_at, updated_at)
				VALUES ('Client Work', '#059669', FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			`INSERT INTO categories (name, is_active, created_at, updated_at)
				VALUES ('Development', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			`INSERT INTO categories (name, is_active, created_at, updated_at)
				VALUES ('Meetings', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			`INSERT INTO categories (name, is_active, created_at, updated_at)
				VALUES ('Support', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		}
		for _, stmt := range seeds {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
		fmt.Printf("Seeded %d rows\n", len(seeds))
		return nil
	},
}

var (
	tokenUserFlag int64
	tokenTTLFlag  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.MustLoad(configPathFlag)
		cfg := config.Get()

		secret := cfg.Auth.JWT.Secret
		if secret == "" {
			secret = os.Getenv("JWT_SECRET")
		}
		if secret == "" {
			return fmt.Errorf("JWT secret is not configured")
		}

		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", tokenUserFlag),
			Issuer:    cfg.Auth.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTLFlag)),
		}
		if cfg.Auth.JWT.Audience != "" {
			claims.Audience = jwt.ClaimStrings{cfg.Auth.JWT.Audience}
		}

		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Println(raw)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", ".", "Directory containing the configuration files")

	tokenCmd.Flags().Int64Var(&tokenUserFlag, "user", 1, "User ID to mint the token for")
	tokenCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
