package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"virtual-hr-be/internal/bootstrap"
	"virtual-hr-be/internal/config"
	"virtual-hr-be/pkg/database"
	"virtual-hr-be/pkg/ingest"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

// Indexes every .md and .txt file under a directory into the configured vector store.
// The document id is the file path relative to the directory, so re-running replaces chunks in place.
func main() {
	dir := flag.String("dir", "policies", "directory containing policy documents")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall ingestion timeout")
	flag.Parse()

	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			color.Red("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	docs, err := collect(*dir)
	if err != nil {
		color.Red("Failed to read %s: %v", *dir, err)
		os.Exit(1)
	}
	if len(docs) == 0 {
		color.Yellow("No .md or .txt files found in %s", *dir)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	color.Cyan("Ingesting %d document(s) from %s into %s\n", len(docs), *dir, cfg.Rag.VectorStore)

	failed := 0
	for _, doc := range docs {
		report, err := container.Pipeline.Ingest(ctx, doc)
		if err != nil {
			failed++
			color.Red("  FAIL %s: %v", doc.ID, err)
			continue
		}
		line := fmt.Sprintf("  OK   %s: %d/%d chunk(s)", doc.ID, report.Written, report.Chunks)
		if len(report.Skipped) > 0 {
			color.Yellow("%s, skipped %v", line, report.Skipped)
			continue
		}
		color.Green(line)
	}

	if failed > 0 {
		color.Red("\n%d of %d document(s) failed", failed, len(docs))
		os.Exit(1)
	}
	color.Cyan("\nDone")
}

func collect(dir string) ([]ingest.Document, error) {
	var docs []ingest.Document
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		docs = append(docs, ingest.Document{
			ID:      rel,
			Source:  filepath.Base(path),
			Content: string(content),
		})
		return nil
	})
	return docs, err
}
