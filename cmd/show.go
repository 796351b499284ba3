package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/iksnae/agentroom/internal"
	"github.com/spf13/cobra"
)

var showLimit int

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the conversations show command
var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show the turns of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			conv, err := w.log.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			displayConversation(cmd.OutOrStdout(), conv, showLimit)
			return nil
		})
	},
}

func displayConversation(out io.Writer, conv *internal.Conversation, limit int) {
	displayConversationHeader(out, conv)

	turns := conv.Turns
	if limit > 0 && limit < len(turns) {
		turns = turns[:limit]
	}

	total := len(conv.Turns)
	for i, turn := range turns {
		displayMessage(out, turn.Request, userMessageStyle, fmt.Sprintf("[%d/%d]", i+1, total))
		displayMessage(out, turn.Response, assistantMessageStyle, "")
	}

	if limit > 0 && limit < total {
		_, _ = fmt.Fprintln(out, lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true).
			Render(fmt.Sprintf("... (%d more turn(s))", total-limit)))
	}
}

func displayConversationHeader(out io.Writer, conv *internal.Conversation) {
	_, _ = fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", conv.Title())))

	metaParts := []string{
		fmt.Sprintf("ID: %s", conv.ID),
		fmt.Sprintf("Started: %s", conv.CreatedAt.Local().Format(internal.TimestampLayout)),
		fmt.Sprintf("Turns: %d", len(conv.Turns)),
	}
	_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
	_, _ = fmt.Fprintln(out)
}

func displayMessage(out io.Writer, msg internal.Message, style lipgloss.Style, position string) {
	icon := "👤"
	if msg.Role == internal.RoleAssistant {
		icon = "🤖"
	}

	header := style.Render(fmt.Sprintf("%s %s", icon, msg.Speaker))
	if position != "" {
		header += " " + timestampStyle.Render(position)
	}
	if msg.Timestamp != "" {
		header += " " + timestampStyle.Render(msg.Timestamp)
	}
	_, _ = fmt.Fprintln(out, header)

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		_, _ = fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
		return
	}
	_, _ = fmt.Fprintln(out, messageContentStyle.Render(ansi.Wordwrap(content, 80, "")))
}

func init() {
	conversationsCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Limit number of turns to show")
}
