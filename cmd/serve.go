package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/agentroom/internal"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an Ollama server on a free port until interrupted",
	Long: `Start an Ollama server on the first free port of the configured range and
keep it running until Ctrl-C. Point chat or duo at it with --port to skip the
startup cost of each session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := startServer(ctx, cfg, portRange(cmd, cfg))
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Ollama listening on %s (use --port %d)", srv.URL(), srv.Port))
		internal.PrintInfo("Press Ctrl-C to stop")

		<-ctx.Done()
		if err := srv.Stop(); err != nil {
			return err
		}
		internal.PrintSuccess("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Var(&serverPorts, "ports", "Port range searched for a free port")
}
