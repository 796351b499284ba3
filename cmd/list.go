package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentroom/internal/convlog"
	"github.com/spf13/cobra"
)

var listLimit int

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// listCmd represents the conversations list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently active first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd.Context(), func(w *workspace) error {
			summaries, err := w.log.List(cmd.Context(), listLimit)
			if err != nil {
				return err
			}
			displaySummaries(cmd.OutOrStdout(), summaries, timeNow())
			return nil
		})
	},
}

func displaySummaries(out io.Writer, summaries []convlog.Summary, now time.Time) {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No conversations found"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d conversation(s)", len(summaries))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Participants")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Last active")+"\t")

	for _, s := range summaries {
		title := s.Title()
		if r := []rune(title); len(r) > 40 {
			title = string(r[:37]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(s.ID.String()[:8]),
			title,
			countStyle.Render(strconv.Itoa(s.Turns)),
			dateStyle.Render(relativeTime(s.LastActive, now)),
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(summaries[0].ID.String()[:8])+
		idStyle.Render(") with `agentroom conversations show <id>`"))
}

// relativeTime formats t compactly relative to now
func relativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour && t.Day() == now.Day():
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	conversationsCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of conversations to list (0 = all)")
}
