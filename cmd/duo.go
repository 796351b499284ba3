package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/duo"
	"github.com/spf13/cobra"
)

var duoMaxRounds int

var (
	hostSpeakerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	guestSpeakerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)
)

// duoCmd represents the duo command
var duoCmd = &cobra.Command{
	Use:   "duo <host> <guest>",
	Short: "Put two agents in a room and let them talk",
	Long: `Start a conversation between two agents. The host opens with its scripted
introduction, then the guest and the host take turns until the round limit is
reached, the conversation starts repeating itself, completions keep failing,
or you press Ctrl-C.

Each agent remembers the other under its own memory collection.`,
	Args: cobra.ExactArgs(2),
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

		host, err := w.agents.Load(args[0])
		if err != nil {
			return err
		}
		guest, err := w.agents.Load(args[1])
		if err != nil {
			return err
		}
		if host.Name() == guest.Name() {
			return fmt.Errorf("host and guest must be different agents")
		}

		be, err := openBackend(ctx, cmd, cfg)
		if err != nil {
			return err
		}
		defer be.Close()

		completer := spinning(be.completer)
		hostCtrl, err := w.controller(ctx, host, guest.Name(), completer)
		if err != nil {
			return err
		}
		guestCtrl, err := w.controller(ctx, guest, host.Name(), completer)
		if err != nil {
			return err
		}

		conv := internal.NewConversation(
			internal.Participant{Name: host.Name(), IsBot: true},
			internal.Participant{Name: guest.Name(), IsBot: true},
			timeNow(),
		)
		if err := w.log.Create(ctx, conv); err != nil {
			return err
		}

		maxRounds := cfg.Duo.MaxRounds
		if cmd.Flags().Changed("max-rounds") {
			maxRounds = duoMaxRounds
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🎭 %s", conv.Title())))
		_, _ = fmt.Fprintln(out)

		printer := &roomPrinter{
			ctx:   ctx,
			out:   out,
			host:  host.Name(),
			typer: internal.Typewriter{},
		}
		if internal.IsTerminal(out) {
			printer.typer = internal.Typewriter{
				Delay:     cfg.Chat.TypewriterDelay,
				ChunkSize: cfg.Chat.ChunkSize,
				Width:     internal.TerminalWidth(os.Stdout),
			}
		}

		driver := duo.NewDriver(hostCtrl, guestCtrl, conv, w.log, printer, duo.Options{
			MaxRounds:   maxRounds,
			MaxFailures: cfg.Duo.MaxFailures,
			Detector:    duo.NewDetector(cfg.Duo.NGram, cfg.Duo.Window, cfg.Duo.Threshold),
		})

		reason, err := driver.Run(ctx)
		internal.PrintInfo(fmt.Sprintf("Room closed (%s) after %d turn(s); conversation %s", reason, len(conv.Turns), conv.ID.String()[:8]))
		if err != nil && !errors.Is(err, internal.ErrUserCancelled) {
			return err
		}
		return nil
	},
}

// roomPrinter writes each utterance as it happens
type roomPrinter struct {
	ctx   context.Context
	out   io.Writer
	host  string
	typer internal.Typewriter
}

func (p *roomPrinter) OnUtterance(speaker, text string) {
	style := guestSpeakerStyle
	if speaker == p.host {
		style = hostSpeakerStyle
	}
	_, _ = fmt.Fprintf(p.out, "%s ", style.Render(speaker+":"))
	_ = p.typer.Write(p.ctx, p.out, text)
	_, _ = fmt.Fprint(p.out, "\n\n")
}

func (p *roomPrinter) OnTurn(turn internal.Turn) {
	internal.LogDebug("Turn %s saved", turn.ID)
}

func init() {
	rootCmd.AddCommand(duoCmd)
	duoCmd.Flags().IntVarP(&duoMaxRounds, "max-rounds", "r", 0, "Stop after this many rounds (0 = no limit)")
	addServerFlags(duoCmd)
}
