package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	agentModel       string
	agentDescription string
	agentFocus       string
)

// agentsCmd groups agent management commands
var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agents",
	Long: `Create and inspect agents. Each agent lives in its own directory under
<home>/agents with an instructions.yaml and a params.yaml you can edit.`,
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		entries, err := config.NewStore(cfg.Home).List()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(out, headerStyle.Render("🤖 No agents yet"))
			_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: create one with `agentroom agents create <name> --model <model>`"))
			return nil
		}

		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🤖 Found %d agent(s)", len(entries))))
		_, _ = fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Name")+"\t"+titleStyle.Render("Model")+"\t"+titleStyle.Render("Description"))
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, countStyle.Render(e.Model), dateStyle.Render(e.Description))
		}
		return w.Flush()
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an agent's instructions and parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := config.NewStore(cfg.Home)
		a, err := store.Load(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("🤖 %s", a.Name())))
		_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(store.AgentDir(a.Name())))

		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("failed to render agent: %w", err)
		}
		return enc.Close()
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent with default instructions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := config.NewStore(cfg.Home)

		a := config.DefaultAgent(args[0], agentModel)
		if agentDescription != "" {
			a.Instructions.Description = agentDescription
		}
		if agentFocus != "" {
			a.Instructions.AssistantFocus = agentFocus
		}
		if err := store.Create(a); err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Created agent %s in %s", a.Name(), store.AgentDir(a.Name())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd, agentsShowCmd, agentsCreateCmd)

	agentsCreateCmd.Flags().StringVarP(&agentModel, "model", "m", "", "Ollama model the agent runs on (required)")
	agentsCreateCmd.Flags().StringVar(&agentDescription, "description", "", "One-line description")
	agentsCreateCmd.Flags().StringVar(&agentFocus, "focus", "", "Initial conversational focus")
	_ = agentsCreateCmd.MarkFlagRequired("model")
}
