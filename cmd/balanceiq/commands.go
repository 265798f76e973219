package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/balanceiq/balanceiq/internal/coach"
	"github.com/balanceiq/balanceiq/internal/common"
	"github.com/balanceiq/balanceiq/internal/insights"
	"github.com/balanceiq/balanceiq/internal/knot"
	"github.com/balanceiq/balanceiq/internal/llm"
	"github.com/balanceiq/balanceiq/internal/predictor"
	"github.com/balanceiq/balanceiq/internal/receipt"
	"github.com/balanceiq/balanceiq/internal/seed"
	"github.com/balanceiq/balanceiq/internal/server"
	"github.com/balanceiq/balanceiq/internal/storage"
)

func openStore() (*storage.Store, error) {
	return storage.NewStore(storage.Config{
		TursoURL:   viper.GetString("database.turso_url"),
		TursoToken: viper.GetString("database.turso_token"),
		SQLitePath: viper.GetString("database.sqlite_path"),
	})
}

// buildLLM returns nil when no API key is configured; callers degrade
// gracefully.
func buildLLM() llm.Client {
	client, err := llm.NewDigitalOceanClient(llm.Config{
		APIKey:  viper.GetString("llm.api_key"),
		Model:   viper.GetString("llm.model"),
		BaseURL: viper.GetString("llm.base_url"),
	})
	if errors.Is(err, common.ErrLLMNotConfigured) {
		slog.Info("LLM not configured, coach and insights fall back to canned responses")
		return nil
	}
	if err != nil {
		slog.Warn("LLM client unavailable", "error", err)
		return nil
	}
	return client
}

// buildKnot returns nil when Knot credentials are not configured.
func buildKnot() *knot.Client {
	clientID := viper.GetString("knot.client_id")
	apiSecret := viper.GetString("knot.api_secret")
	if clientID == "" || apiSecret == "" {
		return nil
	}

	client, err := knot.NewClient(knot.Config{
		BaseURL:   viper.GetString("knot.base_url"),
		ClientID:  clientID,
		APISecret: apiSecret,
	})
	if err != nil {
		slog.Warn("Knot client unavailable", "error", err)
		return nil
	}
	return client
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Local development keys live in .env.
			_ = godotenv.Load()

			store, err := openStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			llmClient := buildLLM()
			deps := server.Deps{
				Store:    store,
				Coach:    coach.New(llmClient),
				Insights: insights.NewGenerator(llmClient),
				Receipts: receipt.NewProcessor(store),
				Backend:  store.BackendInfo(),
			}
			if knotClient := buildKnot(); knotClient != nil {
				deps.Knot = knot.NewSyncer(knotClient, store)
				deps.Linker = knotClient
			}

			srv := server.New(server.Config{
				Host:           viper.GetString("server.host"),
				Port:           viper.GetInt("server.port"),
				AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
			}, deps)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <user-id>",
		Short: "Sync purchase history from Knot for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			knotClient := buildKnot()
			if knotClient == nil {
				return fmt.Errorf("knot.client_id and knot.api_secret must be configured")
			}

			store, err := openStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			result, err := knot.NewSyncer(knotClient, store).SyncUser(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Synced %d transactions into %d items (%d new)\n",
				result.TransactionsCount, result.ItemsTransformed, result.ItemsSaved)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			saved, err := seed.Run(ctx, store, user, true)
			if err != nil {
				return err
			}

			fmt.Printf("Seeded %d demo purchases\n", saved)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", seed.DefaultUser, "user id to seed data for")
	return cmd
}

func predictCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "predict <user-id>",
		Short: "Predict a user's upcoming purchases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			history, err := store.PurchaseHistory(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			predictions := predictor.PredictNextPurchases(history, limit)

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(predictions)
			}

			if len(predictions) == 0 {
				fmt.Println("Not enough history to predict anything yet.")
				return nil
			}
			for _, p := range predictions {
				fmt.Printf("%-30s %-15s next: %s  confidence: %.3f  (%d samples)\n",
					p.Item, p.Category, p.NextTime.Format("2006-01-02 15:04"), p.Confidence, p.Samples)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of predictions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit predictions as JSON")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Database ready (%s backend)\n", store.BackendInfo())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("balanceiq %s\n", version)
		},
	}
}
