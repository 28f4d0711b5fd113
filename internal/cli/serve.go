package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/internal/server"
)

var serveNoIngest bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chatbot HTTP API",
	Long: `Start the HTTP API server.

On startup, course documents from the configured docs folder are indexed
(already-indexed courses are skipped). Use --no-ingest to skip this.

Endpoints:
  POST   /api/query          answer a question
  GET    /api/courses        course catalog analytics
  GET    /api/stats          runtime metrics
  DELETE /api/sessions/{id}  clear a conversation
  GET    /health             liveness check`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoIngest, "no-ingest", false, "skip startup document ingestion")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rag, err := getRAG(ctx)
	if err != nil {
		return err
	}

	if !serveNoIngest {
		if _, err := os.Stat(cfg.DocsPath); err == nil {
			ingestor, err := getIngestor()
			if err != nil {
				return err
			}
			result, err := ingestor.IngestFolder(ctx, cfg.DocsPath, nil)
			if err != nil {
				return err
			}
			slog.Info("startup ingestion done",
				"added", result.CoursesAdded, "skipped", result.CoursesSkipped,
				"errors", len(result.Errors))
		} else {
			slog.Warn("docs folder not found, skipping startup ingestion", "path", cfg.DocsPath)
		}
	}

	srv := server.New(cfg.ListenAddr, rag, collector)
	return srv.Run(ctx)
}
