package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/agentroom/internal/tools"
	"github.com/spf13/cobra"
)

// toolsCmd represents the tools command
var toolsCmd = &cobra.Command{
	Use:   "tools [name] [args...]",
	Short: "List tools, or run one",
	Long: `Without arguments, list the tools available in chat through !tool.
With a tool name, run it with the remaining arguments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := tools.Default(tools.NewWikipedia())
		out := cmd.OutOrStdout()

		if len(args) > 0 {
			result, err := registry.Call(cmd.Context(), args[0], args[1:])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, result)
			return nil
		}

		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🧰 %d tool(s)", len(registry.List()))))
		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, t := range registry.List() {
			var params []string
			for _, p := range t.Params {
				params = append(params, p.Name+": "+p.Description)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\n", titleStyle.Render(t.Usage()), t.Description)
			if len(params) > 0 {
				_, _ = fmt.Fprintf(w, "\t%s\n", dateStyle.Render(strings.Join(params, "; ")))
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
