package cmd

import (
	"github.com/spf13/cobra"
)

// conversationsCmd groups the conversation log commands
var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Browse and export past conversations",
	Long: `Every chat and every two-agent room is saved to the conversation log in
<home>/agentroom.db as it happens. Conversations are addressed by ID or by
any unambiguous prefix of it.`,
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
}
