package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/convlog"
	"github.com/iksnae/agentroom/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	exportAll bool
)

// exportCmd represents the conversations export command
var exportCmd = &cobra.Command{
	Use:   "export [conversation-id]",
	Short: "Export conversations to files",
	Long: `Export a conversation, or every conversation with --all, to jsonl, md, yaml
or json. Use 'agentroom conversations list' to see conversation IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !exportAll {
			return fmt.Errorf("give a conversation id or --all")
		}

		// Create exporter
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withWorkspace(cmd.Context(), func(w *workspace) error {
			ctx := cmd.Context()
			convs, err := loadForExport(ctx, w.log, args)
			if err != nil {
				return err
			}

			// Ensure output directory exists
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return &internal.StorageError{Path: outputDir, Op: "write", Err: err}
			}

			exported := 0
			err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d conversation(s) to %s", len(convs), outputDir), func() error {
				for _, conv := range convs {
					path := filepath.Join(outputDir, export.FileName(conv, exporter))
					if err := exportFile(conv, exporter, path); err != nil {
						internal.LogError("Failed to export conversation %s: %v", conv.ID, err)
						continue
					}
					internal.LogDebug("Wrote %s", path)
					exported++
				}
				return nil
			})
			if err != nil {
				return err
			}

			internal.PrintSuccess(fmt.Sprintf("Export complete: %d conversation(s) exported to %s", exported, outputDir))
			return nil
		})
	},
}

func loadForExport(ctx context.Context, log *convlog.Log, args []string) ([]*internal.Conversation, error) {
	if len(args) == 1 {
		conv, err := log.Load(ctx, args[0])
		if err != nil {
			return nil, err
		}
		return []*internal.Conversation{conv}, nil
	}

	summaries, err := log.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	convs := make([]*internal.Conversation, 0, len(summaries))
	for _, s := range summaries {
		conv, err := log.Load(ctx, s.ID.String())
		if err != nil {
			internal.LogWarn("Skipping conversation %s: %v", s.ID, err)
			continue
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func exportFile(conv *internal.Conversation, exporter export.Exporter, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	if err := exporter.Export(conv, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return file.Close()
}

func init() {
	conversationsCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every conversation")
}
