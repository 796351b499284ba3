package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/chat"
	"github.com/iksnae/agentroom/internal/tools"
	"github.com/spf13/cobra"
)

var chatUser string

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat <agent>",
	Short: "Chat with an agent",
	Long: `Start an interactive chat with an agent.

Type a message and press enter. Commands:
  exit, quit         End the chat
  !focus [text]      Show or set the agent's current focus
  !tools             List tools
  !tool <name> ...   Run a tool
  !history           Show the turns the agent currently remembers

An Ollama server is started on a free port for the session and stopped when
the chat ends, unless --port points at one that is already running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w, err := openWorkspace(ctx, cfg)
		if err != nil {
			return err
		}
		defer w.Close()
		w.warnWithoutMemory()

		a, err := w.agents.Load(args[0])
		if err != nil {
			return err
		}

		be, err := openBackend(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer be.Close()

		ctrl, err := w.controller(ctx, a, chatUser, be.completer)
		if err != nil {
			return err
		}

		conv := internal.NewConversation(
			internal.Participant{Name: a.Name(), IsBot: true},
			internal.Participant{Name: chatUser},
			timeNow(),
		)
		if err := w.log.Create(ctx, conv); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		typewriter := internal.Typewriter{}
		if internal.IsTerminal(out) {
			typewriter = internal.Typewriter{
				Delay:     cfg.Chat.TypewriterDelay,
				ChunkSize: cfg.Chat.ChunkSize,
				Width:     internal.TerminalWidth(os.Stdout),
			}
		}

		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("💬 Chatting with %s (%s)", a.Name(), a.Instructions.Model)))
		_, _ = fmt.Fprintln(out, idStyle.Render("Type exit to leave, !tools for tools."))
		_, _ = fmt.Fprintln(out)

		session := &chat.Session{
			Controller:   ctrl,
			Username:     chatUser,
			Conversation: conv,
			Tools:        tools.Default(tools.NewWikipedia()),
			Recorder:     w.log,
			Typewriter:   typewriter,
			Wait:         internal.ShowSpinner,
			In:           cmd.InOrStdin(),
			Out:          out,
		}
		if err := session.Run(ctx); err != nil {
			return err
		}

		internal.PrintInfo(fmt.Sprintf("Conversation %s saved (%d turn(s))", conv.ID.String()[:8], len(conv.Turns)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", defaultUsername(), "Your name in the conversation")
	addServerFlags(chatCmd)
}
