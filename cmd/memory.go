package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/memory"
	"github.com/spf13/cobra"
)

var (
	ingestChunkSize int
	ingestOverlap   int
	queryResults    int
)

// memoryCmd groups long-term memory commands
var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and manage long-term memory",
	Long: `Agents remember each counterparty in a collection named <agent>-<counterparty>.
These commands work on the configured memory backend (sqlite or redis).`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memory collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			store, err := w.requireMemory()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			names, err := store.Collections(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				_, _ = fmt.Fprintln(out, headerStyle.Render("🧠 No memory collections"))
				return nil
			}
			_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🧠 Found %d collection(s)", len(names))))
			for _, name := range names {
				coll, err := store.GetOrCreate(ctx, name)
				if err != nil {
					return err
				}
				n, err := coll.Count(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "  %s %s\n", name, countStyle.Render(fmt.Sprintf("(%d)", n)))
			}
			return nil
		})
	},
}

var memoryQueryCmd = &cobra.Command{
	Use:   "query <collection> <text>",
	Short: "Show what a collection recalls for some text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			store, err := w.requireMemory()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			coll, err := store.GetOrCreate(ctx, args[0])
			if err != nil {
				return err
			}

			k := queryResults
			if k <= 0 {
				k = w.cfg.Memory.Results
			}
			docs, err := coll.Query(ctx, strings.Join(args[1:], " "), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				_, _ = fmt.Fprintln(out, internal.NoResults)
				return nil
			}
			for i, doc := range docs {
				_, _ = fmt.Fprintf(out, "%s %s\n", titleStyle.Render(fmt.Sprintf("%d.", i+1)), idStyle.Render(fmt.Sprintf("%s (score %.2f)", doc.ID, doc.Score)))
				_, _ = fmt.Fprintln(out, messageContentStyle.Render(doc.Text))
			}
			return nil
		})
	},
}

var memoryIngestCmd = &cobra.Command{
	Use:   "ingest <collection> <file>",
	Short: "Add a text file to a collection as overlapping chunks",
	Long: `Split a text file into overlapping word chunks and store them in a
collection. Chunks are keyed by content, so ingesting the same file twice
stores nothing new.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return &internal.StorageError{Path: args[1], Op: "read", Err: err}
		}

		return withWorkspace(cmd.Context(), func(w *workspace) error {
			store, err := w.requireMemory()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			coll, err := store.GetOrCreate(ctx, args[0])
			if err != nil {
				return err
			}

			var n int
			err = internal.ShowProgress(ctx, fmt.Sprintf("Ingesting %s into %s", filepath.Base(args[1]), args[0]), func() error {
				var err error
				n, err = memory.Ingest(ctx, coll, filepath.Base(args[1]), string(data), ingestChunkSize, ingestOverlap)
				return err
			})
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Stored %d chunk(s) in %s", n, args[0]))
			return nil
		})
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <collection>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			store, err := w.requireMemory()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Deleted %s", args[0]))
			return nil
		})
	},
}

var memoryRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			store, err := w.requireMemory()
			if err != nil {
				return err
			}
			if err := store.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Renamed %s to %s", args[0], args[1]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)
	memoryCmd.AddCommand(memoryListCmd, memoryQueryCmd, memoryIngestCmd, memoryDeleteCmd, memoryRenameCmd)

	memoryIngestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", memory.DefaultChunkSize, "Words per chunk")
	memoryIngestCmd.Flags().IntVar(&ingestOverlap, "overlap", memory.DefaultOverlap, "Words shared by consecutive chunks")
	memoryQueryCmd.Flags().IntVarP(&queryResults, "results", "k", 0, "Number of memories to return (default from config)")
}
