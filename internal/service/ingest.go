package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/parser"
)

// embedBatchSize caps how many chunk texts go to the embedder per call.
const embedBatchSize = 64

// IngestResult summarizes a folder ingestion.
type IngestResult struct {
	CoursesAdded   int
	CoursesSkipped int
	ChunksAdded    int
	Errors         []string
}

// Progress reports ingestion progress after each file. done counts
// processed files (including skipped and failed ones) out of total.
type Progress func(done, total int, file string)

// Ingestor builds the course index from document files.
type Ingestor struct {
	store     Store
	embedder  Embedder
	chunkCfg  parser.ChunkConfig
	collector *metrics.Collector
}

// NewIngestor creates an ingestor chunking with the given configuration.
func NewIngestor(store Store, embedder Embedder, chunkCfg parser.ChunkConfig, collector *metrics.Collector) *Ingestor {
	return &Ingestor{
		store:     store,
		embedder:  embedder,
		chunkCfg:  chunkCfg,
		collector: collector,
	}
}

// IngestFolder indexes every course document in dir. Courses whose title
// is already indexed are skipped, so re-running over the same folder is
// cheap. A failing document is recorded and does not stop the run.
// progress may be nil.
func (s *Ingestor) IngestFolder(ctx context.Context, dir string, progress Progress) (*IngestResult, error) {
	start := time.Now()
	defer func() {
		s.collector.Record(metrics.OpIngest, time.Since(start))
	}()

	files, err := collectCourseFiles(dir)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{}
	for i, file := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		stored, added, err := s.ingestFile(ctx, file)
		if err != nil {
			slog.Warn("skipping document", "file", filepath.Base(file), "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filepath.Base(file), err))
		} else if added {
			result.CoursesAdded++
			result.ChunksAdded += stored
		} else {
			result.CoursesSkipped++
		}

		if progress != nil {
			progress(i+1, len(files), filepath.Base(file))
		}
	}

	slog.Info("ingestion complete", "dir", dir,
		"added", result.CoursesAdded, "skipped", result.CoursesSkipped,
		"chunks", result.ChunksAdded, "errors", len(result.Errors))
	return result, nil
}

// ingestFile indexes one document, returning the number of chunks
// stored. added is false without error when the course title is already
// indexed. The catalog row is written last: a title is only marked
// indexed once every chunk is stored, so a failed document stays
// eligible for the next run.
func (s *Ingestor) ingestFile(ctx context.Context, path string) (stored int, added bool, err error) {
	course, chunks, err := parser.LoadCourseDocument(path, s.chunkCfg)
	if err != nil {
		return 0, false, err
	}

	exists, err := s.store.CourseExists(ctx, course.Title)
	if err != nil {
		return 0, false, err
	}
	if exists {
		slog.Debug("course already indexed", "title", course.Title)
		return 0, false, nil
	}

	titleEmb, err := s.embedder.Embed(ctx, course.Title)
	if err != nil {
		return 0, false, fmt.Errorf("embed title: %w", err)
	}

	// Drops whatever this document managed to store so a rerun starts clean.
	cleanup := func() {
		if derr := s.store.DeleteCourse(ctx, course.Title); derr != nil {
			slog.Warn("cleanup after failed ingestion", "title", course.Title, "error", derr)
		}
	}

	for lo := 0; lo < len(chunks); lo += embedBatchSize {
		hi := min(lo+embedBatchSize, len(chunks))
		batch := chunks[lo:hi]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		embs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			cleanup()
			return 0, false, fmt.Errorf("embed chunks: %w", err)
		}
		if err := s.store.AddChunks(ctx, batch, embs); err != nil {
			cleanup()
			return 0, false, err
		}
		stored += len(batch)
	}

	if err := s.store.AddCourse(ctx, course, titleEmb); err != nil {
		cleanup()
		return 0, false, err
	}

	slog.Info("course indexed", "title", course.Title, "lessons", len(course.Lessons), "chunks", len(chunks))
	return stored, true, nil
}

// collectCourseFiles lists the ingestable documents directly in dir,
// sorted for deterministic processing order.
func collectCourseFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read docs folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
