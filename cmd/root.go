package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	homeDir string
	noColor bool
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agentroom",
	Short: "Chat with local language-model agents, or let two of them talk",
	Long: `A terminal orchestrator for conversational agents backed by a local
Ollama server.

Each agent has its own instructions, model parameters and long-term memory.
Every turn combines the agent's instructions, a window of recent dialogue and
the most relevant memories into one prompt.

Features:
  • Chat with a single agent in the terminal
  • Put two agents in a room and watch them talk
  • Long-term memory per agent and counterparty (sqlite or redis)
  • Conversation log with export (JSONL, Markdown, YAML, JSON)
  • Manages its own Ollama server on a free port

Quick Start:
  agentroom agents create ada --model llama3   # Create an agent
  agentroom chat ada                           # Talk to it
  agentroom duo ada bob --max-rounds 10        # Let two agents talk
  agentroom conversations list                 # Browse past conversations`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		config.LoadDotEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

// loadConfig resolves the home directory and reads the app configuration
func loadConfig() (*config.Config, error) {
	home, err := config.ResolveHome(homeDir)
	if err != nil {
		return nil, err
	}
	return config.Load(home)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "agentroom home directory (default $AGENTROOM_HOME or ~/.agentroom)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
