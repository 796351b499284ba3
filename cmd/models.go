package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/llm"
	"github.com/iksnae/agentroom/internal/ollama"
	"github.com/spf13/cobra"
)

var modelsPort int

// modelsCmd groups model administration commands
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List, pull, remove and copy Ollama models",
	Long: `Thin wrappers around the ollama binary's model commands. They talk to the
server on --port, or to the binary's default server when --port is not set.`,
}

// newModels builds the model admin runner for the selected server
func newModels() (*ollama.Models, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m := &ollama.Models{Binary: cfg.Ollama.Binary, Stdout: os.Stdout, Stderr: os.Stderr}
	if modelsPort > 0 {
		m.Host = ollama.NewServer(cfg.Ollama.Binary, modelsPort).Host()
	}
	return m, nil
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if modelsPort > 0 {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			models, err := llm.NewClient(llm.LocalURL(modelsPort), cfg.Completion.Timeout).ListModels(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, titleStyle.Render("Name")+"\t"+titleStyle.Render("Size")+"\t"+titleStyle.Render("Modified"))
			for _, m := range models {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, countStyle.Render(humanSize(m.Size)), dateStyle.Render(m.ModifiedAt.Format("2006-01-02 15:04")))
			}
			return w.Flush()
		}

		m, err := newModels()
		if err != nil {
			return err
		}
		listing, err := m.List(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, listing)
		return nil
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newModels()
		if err != nil {
			return err
		}
		if err := m.Pull(cmd.Context(), args[0]); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Pulled %s", args[0]))
		return nil
	},
}

var modelsRemoveCmd = &cobra.Command{
	Use:     "rm <model>",
	Aliases: []string{"remove"},
	Short:   "Remove a model",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newModels()
		if err != nil {
			return err
		}
		if err := m.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Removed %s", args[0]))
		return nil
	},
}

var modelsCopyCmd = &cobra.Command{
	Use:     "cp <source> <destination>",
	Aliases: []string{"copy"},
	Short:   "Copy a model under a new name",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newModels()
		if err != nil {
			return err
		}
		if err := m.Copy(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Copied %s to %s", args[0], args[1]))
		return nil
	},
}

// humanSize formats a byte count with a binary unit
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsPullCmd, modelsRemoveCmd, modelsCopyCmd)
	modelsCmd.PersistentFlags().IntVar(&modelsPort, "port", 0, "Port of the Ollama server to manage")
}
