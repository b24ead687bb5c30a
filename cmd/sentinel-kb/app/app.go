// Package app provides the knowledge base command line application.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/sentinel-kb/cmd/sentinel-kb/app/options"
	ragsvc "github.com/kart-io/sentinel-kb/internal/rag"
	"github.com/kart-io/sentinel-kb/pkg/infra/app"
	"github.com/kart-io/sentinel-kb/pkg/utils/json"
)

const (
	// commandDesc is the description of the command.
	commandDesc = `Sentinel KB

A document knowledge base for retrieval-augmented question answering.

It provides:
  - Structural text reconstruction and token-aware chunking of PDF and text documents
  - Vector indexing with a local flat index or Milvus
  - Similarity search, grounded question answering and document summaries
  - Embedding and chat providers compatible with Ollama and OpenAI`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewKBOptions()
	return app.NewApp(
		app.WithName(ragsvc.Name),
		app.WithShortDescription("Document knowledge base for retrieval-augmented QA"),
		app.WithDescription(commandDesc),
		app.WithEnvPrefix("SENTINEL_KB"),
		app.WithOptions(opts),
		app.WithCommands(
			newIngestCommand(opts),
			newQueryCommand(opts),
			newAskCommand(opts),
			newSummarizeCommand(opts),
			newFilesCommand(opts),
			newResetCommand(opts),
			newStatsCommand(opts),
		),
	)
}

// runWith builds the runtime, runs fn and releases the runtime afterwards.
func runWith(opts *options.KBOptions, fn func(ctx context.Context, rt *ragsvc.Runtime) error) error {
	ctx, stop := setupSignalContext()
	defer stop()

	rt, err := opts.Config().NewRuntime(ctx)
	if err != nil {
		return fmt.Errorf("failed to create knowledge base runtime: %w", err)
	}

	runErr := fn(ctx, rt)
	if err := rt.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// printJSON writes v as one JSON document.
func printJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
		case <-ctx.Done():
			return
		}
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx, func() {
		signal.Stop(c)
		cancel()
	}
}
