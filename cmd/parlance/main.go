// Copyright 2025 Parlance Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"

	"github.com/parlancehq/parlance"
	"github.com/parlancehq/parlance/ai"
	"github.com/parlancehq/parlance/api"
	"github.com/parlancehq/parlance/core"
	"github.com/parlancehq/parlance/ingestion"
	"github.com/parlancehq/parlance/storage"
	"github.com/parlancehq/parlance/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "parlance",
		Usage: "Transcript ingestion and citation-grounded query system",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address for the HTTP server to listen on",
						Value: ":8080",
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Submit a transcript file and wait for ingestion to finish",
				ArgsUsage: "<transcript-file>",
				Action:    ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "wait-timeout",
						Usage: "How long to wait for ingestion to reach a terminal status",
						Value: 2 * time.Minute,
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Ask a question over the ingested transcripts",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Only consider transcripts from this date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Only consider transcripts whose title contains this substring",
					},
					&cli.StringFlag{
						Name:  "participant",
						Usage: "Only consider transcripts with this participant",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full answer structure as JSON",
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List ingested documents and their statuses",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Filter by date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Filter by title substring",
					},
					&cli.StringFlag{
						Name:  "participant",
						Usage: "Filter by participant name",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// aiFlags returns the provider flags shared by every command that talks to
// the embedding or completion service.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "completion-host",
			Usage: "Completion service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
	}
}

func buildAIConfig(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionHost(c.String("completion-host")),
		ai.WithCompletionModel(c.String("completion-model")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func buildFilter(c *cli.Context) storage.DocumentFilter {
	return storage.DocumentFilter{
		Date:           c.String("date"),
		TitleSubstring: c.String("title"),
		Participant:    c.String("participant"),
	}
}

func serveCommand(c *cli.Context) error {
	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}

	system, err := parlance.NewSystem(c.String("db"), parlance.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer system.Close()

	coordinator, err := system.NewCoordinator()
	if err != nil {
		return fmt.Errorf("failed to create ingestion coordinator: %w", err)
	}
	defer coordinator.Release()

	service, err := system.NewQueryService()
	if err != nil {
		return fmt.Errorf("failed to create query service: %w", err)
	}

	server := api.NewServer(coordinator, service)

	address := c.String("listen")
	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Listening on %s\n", address)

	return server.Run(address)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one transcript file argument")
	}
	path := c.Args().First()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read transcript file: %w", err)
	}

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}

	system, err := parlance.NewSystem(c.String("db"), parlance.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer system.Close()

	coordinator, err := system.NewCoordinator()
	if err != nil {
		return fmt.Errorf("failed to create ingestion coordinator: %w", err)
	}
	defer coordinator.Release()

	documentID, err := coordinator.Submit(ctx, raw, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Submitted %s as document %s\n", path, documentID)

	record, err := waitForTerminal(ctx, coordinator, documentID, c.Duration("wait-timeout"))
	if err != nil {
		return err
	}

	switch record.Status {
	case core.StatusReady:
		fmt.Fprintf(os.Stderr, "Document %s is READY (date=%s, participants=%s)\n",
			documentID, record.Date, strings.Join(record.Participants, ", "))
		return nil
	case core.StatusFailed:
		return fmt.Errorf("ingestion failed: %s", record.ErrorMessage)
	default:
		return fmt.Errorf("document %s ended in unexpected status %s", documentID, record.Status)
	}
}

// waitForTerminal polls until the document leaves PENDING or the timeout
// elapses.
func waitForTerminal(ctx context.Context, coordinator *ingestion.Coordinator, documentID string, timeout time.Duration) (*core.DocumentRecord, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		record, err := coordinator.GetStatus(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to read document status: %w", err)
		}
		if record.Status.Terminal() {
			return record, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for document %s to finish ingesting", documentID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one question argument")
	}
	question := c.Args().First()

	aiConfig, err := buildAIConfig(c)
	if err != nil {
		return err
	}

	system, err := parlance.NewSystem(c.String("db"), parlance.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open system: %w", err)
	}
	defer system.Close()

	service, err := system.NewQueryService()
	if err != nil {
		return fmt.Errorf("failed to create query service: %w", err)
	}

	answer, err := service.Ask(ctx, question, buildFilter(c))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if c.Bool("json") {
		out, err := sonic.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode answer: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(answer.Text)
	if len(answer.Citations) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  [%s] %s (%s-%s): %s\n",
				citation.ChunkID, citation.Speaker,
				citation.TimestampStart, citation.TimestampEnd,
				citation.Snippet)
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repos := badger.NewRepositories(backend)

	records, err := repos.Documents.ListDocuments(ctx, buildFilter(c))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No documents found")
		return nil
	}

	for _, record := range records {
		fmt.Printf("%s  %-7s  %-10s  %s\n",
			record.DocumentID, record.Status, record.Date, record.TitleNormalized)
		if record.Status == core.StatusFailed && record.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", record.ErrorMessage)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
