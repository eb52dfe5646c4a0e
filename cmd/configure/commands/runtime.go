package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bakiel/jasper-portal-api/internal/config"
	"github.com/bakiel/jasper-portal-api/internal/database"
	"github.com/bakiel/jasper-portal-api/internal/models"
	"github.com/spf13/cobra"
)

// NewRatelimitCmd creates the ratelimit command. The rate lives in the
// database and is picked up by the running server within a minute.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the global request rate limit",
		Long:  "Show or update the per-IP request rate (ulule format, e.g. 5-S, 100-M).",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			c, err := database.NewRatelimitConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			if c == nil {
				fmt.Println("No rate limit stored; the server uses its built-in default.")
				return nil
			}
			fmt.Printf("Rate: %s\n", c.Rate)
			return nil
		},
	})

	var rate string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store a new rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if rate == "" {
				return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			repo := database.NewRatelimitConfigRepository(db)
			if err := repo.Set(context.Background(), &models.RatelimitConfig{Rate: rate}); err != nil {
				return fmt.Errorf("set ratelimit config: %w", err)
			}
			fmt.Printf("Rate limit set to %s.\n", rate)
			return nil
		},
	}
	setCmd.Flags().StringVar(&rate, "rate", "", "Rate in ulule format (required)")
	cmd.AddCommand(setCmd)

	return cmd
}

// NewCorsCmd creates the cors command for the database-backed CORS settings
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage the stored CORS configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the stored CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			c, err := database.NewCorsConfigRepository(db).Get(context.Background())
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			if c == nil {
				fmt.Println("No CORS configuration stored; the server falls back to FRONTEND_URL.")
				return nil
			}
			fmt.Printf("Allowed origins:   %s\n", c.AllowedOrigins)
			fmt.Printf("Allow credentials: %v\n", c.AllowCredentials)
			fmt.Printf("Max-Age:           %d\n", c.MaxAge)
			return nil
		},
	})

	var origins string
	var allowCreds bool
	var maxAge int
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store new CORS settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			origins = strings.TrimSpace(origins)
			if origins == "" {
				return fmt.Errorf("--origins is required (comma-separated list)")
			}
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			repo := database.NewCorsConfigRepository(db)
			err = repo.Set(context.Background(), &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			})
			if err != nil {
				return fmt.Errorf("set cors config: %w", err)
			}
			fmt.Println("CORS configuration updated.")
			return nil
		},
	}
	setCmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	setCmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	setCmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age in seconds")
	cmd.AddCommand(setCmd)

	return cmd
}

func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}
