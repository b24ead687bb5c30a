package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kart-io/sentinel-kb/cmd/sentinel-kb/app/options"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	ragsvc "github.com/kart-io/sentinel-kb/internal/rag"
	"github.com/kart-io/sentinel-kb/internal/rag/biz"
)

func newIngestCommand(opts *options.KBOptions) *cobra.Command {
	var (
		name      string
		override  bool
		maxLength int
	)
	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Build knowledge bases from documents",
		Long: `Build one knowledge base per document. A directory is expanded to the
supported documents it contains. A document whose content is already
registered under the same knowledge base is skipped unless --override is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			args, err := docutil.ExpandPaths(args)
			if err != nil {
				return err
			}
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name can only be used with a single document")
			}
			ingestOpts := biz.IngestOptions{KBName: name, Override: override, MaxLength: maxLength}

			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				if len(args) == 1 {
					result, err := rt.Service.Ingest(ctx, args[0], &ingestOpts)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), result)
				}

				reqs := make([]biz.IngestRequest, 0, len(args))
				for _, path := range args {
					reqs = append(reqs, biz.IngestRequest{Path: path, Options: ingestOpts})
				}
				results, err := rt.Service.IngestAll(ctx, reqs)
				if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
					return perr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Knowledge base name. Derived from the file name when empty.")
	cmd.Flags().BoolVar(&override, "override", false, "Rebuild even if the document is already registered.")
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Chunk token limit. Uses kb.max-length when 0.")
	return cmd
}

func addQueryFlags(cmd *cobra.Command, q *biz.QueryOptions) {
	cmd.Flags().IntVar(&q.TopK, "top-k", 0, "Number of chunks to retrieve. Uses kb.top-k when 0.")
	cmd.Flags().Float64Var(&q.ScoreThreshold, "score-threshold", 0, "Minimum similarity. Uses kb.score-threshold when 0.")
}

func newQueryCommand(opts *options.KBOptions) *cobra.Command {
	var q biz.QueryOptions
	cmd := &cobra.Command{
		Use:   "query KB QUESTION",
		Short: "Retrieve the chunks most similar to a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				result, err := rt.Service.Query(ctx, args[0], args[1], &q)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	addQueryFlags(cmd, &q)
	return cmd
}

func newAskCommand(opts *options.KBOptions) *cobra.Command {
	var (
		q      biz.QueryOptions
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ask KB QUESTION",
		Short: "Answer a question from the retrieved chunks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				answer, err := rt.Service.Answer(ctx, args[0], args[1], &q)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), answer)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), answer.Answer)
				return err
			})
		},
	}
	addQueryFlags(cmd, &q)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the answer with its prompt and sources as JSON.")
	return cmd
}

func newSummarizeCommand(opts *options.KBOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize KB",
		Short: "Summarize a knowledge base segment by segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				summaries, err := rt.Service.Summarize(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summaries)
			})
		},
	}
}

func newFilesCommand(opts *options.KBOptions) *cobra.Command {
	list := func(cmd *cobra.Command, _ []string) error {
		return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
			files, err := rt.Service.Files(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), files)
		})
	}

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List registered documents",
		Args:  cobra.NoArgs,
		RunE:  list,
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered documents",
		Args:    cobra.NoArgs,
		RunE:    list,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete FILENAME",
		Short: "Delete a document and the knowledge bases built from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				n, err := rt.Service.DeleteFile(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"filename": args[0], "deleted": n})
			})
		},
	})
	return cmd
}

func newResetCommand(opts *options.KBOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset KB",
		Short: "Delete the index and metadata of a knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				if err := rt.Service.Reset(ctx, args[0]); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"kb_name": args[0], "reset": true})
			})
		},
	}
}

func newStatsCommand(opts *options.KBOptions) *cobra.Command {
	var prometheus bool
	cmd := &cobra.Command{
		Use:   "stats KB",
		Short: "Show knowledge base state and counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(opts, func(ctx context.Context, rt *ragsvc.Runtime) error {
				stats, err := rt.Service.Stats(ctx, args[0])
				if err != nil {
					return err
				}
				if prometheus {
					_, err := io.WriteString(cmd.OutOrStdout(), rt.Metrics.Export("sentinel_kb"))
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().BoolVar(&prometheus, "prometheus", false, "Print process counters in Prometheus text format.")
	return cmd
}
