// Package cli provides the command-line interface for lectern.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/internal/config"
	"github.com/lecternhq/lectern/internal/db"
	"github.com/lecternhq/lectern/internal/llm"
	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/parser"
	"github.com/lecternhq/lectern/internal/service"
	"github.com/lecternhq/lectern/internal/session"
	"github.com/lecternhq/lectern/internal/tools"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	configPath string
	verbose    bool

	// Global config and db client
	cfg       config.Config
	dbClient  *db.Client
	collector *metrics.Collector
	logClose  func() error

	// Lazy-initialized LLM components
	embedder *llm.Embedder
	model    *llm.Model
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Course materials chatbot",
	Long: `Lectern is a retrieval-augmented chatbot for course materials.

It indexes course documents into a SurrealDB vector store and answers
questions about them through an LLM with search and outline tools.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closeFn := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logClose = closeFn

		collector = metrics.NewCollector()

		ctx := context.Background()
		dbClient, err = db.NewClient(ctx, db.Config{
			URL:            cfg.SurrealDBURL,
			Namespace:      cfg.SurrealDBNamespace,
			Database:       cfg.SurrealDBDatabase,
			Username:       cfg.SurrealDBUser,
			Password:       cfg.SurrealDBPass,
			AuthLevel:      cfg.SurrealDBAuthLevel,
			EmbedDimension: cfg.EmbedDimension,
		}, logger, collector)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// getEmbedder lazily initializes the embedding client.
func getEmbedder() (*llm.Embedder, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg, collector)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return embedder, nil
}

// getRAG wires the full query path: tools, generator, sessions.
func getRAG(ctx context.Context) (*service.RAG, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	if model == nil {
		model, err = llm.NewModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("init model: %w", err)
		}
	}

	deps := tools.Dependencies{Store: dbClient, Embedder: emb, TopK: cfg.TopK}
	registry := tools.NewRegistry(
		tools.NewSearchTool(deps),
		tools.NewOutlineTool(deps),
	)
	generator := llm.NewGenerator(model, registry, collector)
	sessions := session.NewManager(cfg.MaxHistory)

	return service.NewRAG(dbClient, generator, sessions, collector), nil
}

// getIngestor wires the document indexing path.
func getIngestor() (*service.Ingestor, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	chunkCfg := parser.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	return service.NewIngestor(dbClient, emb, chunkCfg, collector), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(coursesCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
