package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/iksnae/agentroom/internal/ollama"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that agentroom can run sessions",
	Long: `Check the health of agentroom by verifying:
  • Configuration and home directory
  • Conversation database
  • Agents
  • Ollama binary
  • Port availability
  • Memory backend

Use --verbose for paths and details.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 agentroom Health Check"))
		_, _ = fmt.Fprintln(out)

		failed := 0
		fail := func(msg string, err error) {
			failed++
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ "+msg+":"), err)
		}

		// Step 1: Configuration
		step(out, 1, "Loading configuration...")
		cfg, err := loadConfig()
		if err != nil {
			fail("Invalid configuration", err)
			return summarize(out, failed)
		}
		ok(out, "Configuration loaded")
		detail(out, "Home: %s", cfg.Home)
		detail(out, "Ports: %d-%d", cfg.Ollama.PortStart, cfg.Ollama.PortEnd)
		_, _ = fmt.Fprintln(out)

		// Step 2: Home directory
		step(out, 2, "Checking home directory...")
		if err := checkWritable(cfg.Home); err != nil {
			fail("Home directory is not writable", err)
		} else {
			ok(out, "Home directory is writable")
		}
		_, _ = fmt.Fprintln(out)

		// Step 3: Database and memory
		step(out, 3, "Opening database...")
		w, err := openWorkspace(cmd.Context(), cfg)
		if err != nil {
			fail("Failed to open database", err)
		} else {
			defer w.Close()
			ok(out, "Database opened")
			detail(out, "Database: %s", cfg.DatabasePath())
			if summaries, err := w.log.List(cmd.Context(), 0); err == nil {
				detail(out, "Conversations: %d", len(summaries))
			}
			if w.memErr != nil {
				fail(fmt.Sprintf("Memory backend %q unavailable", cfg.Memory.Backend), w.memErr)
			} else {
				ok(out, fmt.Sprintf("Memory backend %q ready", cfg.Memory.Backend))
			}
		}
		_, _ = fmt.Fprintln(out)

		// Step 4: Agents
		step(out, 4, "Checking agents...")
		agents, err := config.NewStore(cfg.Home).List()
		switch {
		case err != nil:
			fail("Failed to read agents", err)
		case len(agents) == 0:
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  No agents yet (agentroom agents create <name> --model <model>)"))
		default:
			ok(out, fmt.Sprintf("Found %d agent(s)", len(agents)))
			for _, a := range agents {
				detail(out, "%s (%s)", a.Name, a.Model)
			}
		}
		_, _ = fmt.Fprintln(out)

		// Step 5: Ollama binary
		step(out, 5, "Looking for the Ollama binary...")
		if cfg.Completion.Backend == "openai" {
			ok(out, "Using the OpenAI-compatible backend; Ollama not required")
		} else if path, err := ollama.DetectBinary(cfg.Ollama.Binary); err != nil {
			fail(fmt.Sprintf("%q not found", cfg.Ollama.Binary), err)
		} else {
			ok(out, "Ollama binary found")
			detail(out, "Binary: %s", path)
		}
		_, _ = fmt.Fprintln(out)

		// Step 6: Ports
		step(out, 6, "Checking port availability...")
		if port, err := ollama.FindFreePort(cfg.Ollama.PortStart, cfg.Ollama.PortEnd); err != nil {
			fail("No free port", err)
		} else {
			ok(out, fmt.Sprintf("Port %d is free", port))
		}
		_, _ = fmt.Fprintln(out)

		return summarize(out, failed)
	},
}

func step(out io.Writer, n int, msg string) {
	_, _ = fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Step %d: %s", n, msg)))
}

func ok(out io.Writer, msg string) {
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ "+msg))
}

func detail(out io.Writer, format string, args ...any) {
	if verbose {
		_, _ = fmt.Fprintf(out, "   "+format+"\n", args...)
	}
}

func summarize(out io.Writer, failed int) error {
	_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
	_, _ = fmt.Fprintln(out)
	if failed > 0 {
		_, _ = fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Health check failed (%d problem(s))", failed)))
		return fmt.Errorf("health check failed: %d problem(s)", failed)
	}
	_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
