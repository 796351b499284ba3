// Package duo puts two agents in a room: the host opens, then guest and host
// take strictly alternating turns until the conversation is stopped.
package duo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/agent"
)

// State is where the driver is in the exchange cycle
type State int

const (
	StateInit State = iota
	StateGuestTurn
	StateHostTurn
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateGuestTurn:
		return "guest turn"
	case StateHostTurn:
		return "host turn"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StopReason says why a room closed
type StopReason string

const (
	StopCancelled  StopReason = "cancelled"
	StopDegenerate StopReason = "conversation is repeating itself"
	StopMaxRounds  StopReason = "round limit reached"
	StopFailures   StopReason = "too many failed completions"
)

// DefaultMaxFailures is how many consecutive failed exchanges end the room
const DefaultMaxFailures = 3

// Recorder persists each finished turn
type Recorder interface {
	Record(ctx context.Context, conv *internal.Conversation, turn internal.Turn) error
}

// Observer is told about every utterance and every finished turn
type Observer interface {
	OnUtterance(speaker, text string)
	OnTurn(turn internal.Turn)
}

// Options tune a Driver
type Options struct {
	MaxRounds   int // 0 means unlimited
	MaxFailures int
	Detector    *Detector
	Clock       func() time.Time
}

// Driver alternates two agents over one shared conversation
type Driver struct {
	host     *agent.Controller
	guest    *agent.Controller
	conv     *internal.Conversation
	recorder Recorder
	observer Observer
	opts     Options
	state    State
}

// NewDriver creates a driver. recorder and observer may be nil.
func NewDriver(host, guest *agent.Controller, conv *internal.Conversation, recorder Recorder, observer Observer, opts Options) *Driver {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = DefaultMaxFailures
	}
	if opts.Detector == nil {
		opts.Detector = NewDetector(0, 0, 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Driver{
		host:     host,
		guest:    guest,
		conv:     conv,
		recorder: recorder,
		observer: observer,
		opts:     opts,
		state:    StateInit,
	}
}

// State returns the driver's current state
func (d *Driver) State() State {
	return d.state
}

// Conversation returns the shared conversation log
func (d *Driver) Conversation() *internal.Conversation {
	return d.conv
}

// Run drives the room until it stops. The error is nil for a natural stop
// (degeneracy or round limit), wraps ErrUserCancelled on cancellation, and
// is the last completion error when failures run out.
func (d *Driver) Run(ctx context.Context) (StopReason, error) {
	d.state = StateInit
	hostName, guestName := d.host.Name(), d.guest.Name()

	hostAgent := d.host.Agent()
	hostLast := hostAgent.Opener()
	d.utter(hostName, hostLast)

	rounds, failures := 0, 0
	for {
		d.state = StateGuestTurn
		guestText, err := d.guest.Generate(ctx, hostLast, hostName, true)
		if err != nil {
			if reason, stop := d.failed(err, &failures); stop {
				return reason, err
			}
			continue
		}
		guestAt := d.opts.Clock()
		d.utter(guestName, guestText)

		d.state = StateHostTurn
		hostText, err := d.host.Generate(ctx, guestText, guestName, true)
		if err != nil {
			if reason, stop := d.failed(err, &failures); stop {
				return reason, err
			}
			continue
		}
		now := d.opts.Clock()
		d.utter(hostName, hostText)

		turn := internal.NewTurn(
			internal.NewMessage(internal.RoleUser, guestName, guestText, guestAt),
			internal.NewMessage(internal.RoleAssistant, hostName, hostText, now),
		)
		d.record(context.WithoutCancel(ctx), turn, now)

		failures = 0
		rounds++
		hostLast = hostText

		// Observe both sides so neither repeat goes unnoticed
		degenerate := d.opts.Detector.Observe(guestText)
		if d.opts.Detector.Observe(hostText) {
			degenerate = true
		}
		if degenerate {
			d.state = StateTerminated
			internal.LogInfo("Closing %s after %d rounds: %s", d.conv.Title(), rounds, StopDegenerate)
			return StopDegenerate, nil
		}
		if d.opts.MaxRounds > 0 && rounds >= d.opts.MaxRounds {
			d.state = StateTerminated
			internal.LogInfo("Closing %s after %d rounds: %s", d.conv.Title(), rounds, StopMaxRounds)
			return StopMaxRounds, nil
		}
	}
}

// record appends the turn to the conversation, persists it and commits it
// to both agents. ctx must not be cancellable: a finished turn is stored
// everywhere or nowhere.
func (d *Driver) record(ctx context.Context, turn internal.Turn, at time.Time) {
	d.conv.Append(turn, at)
	if d.recorder != nil {
		if err := d.recorder.Record(ctx, d.conv, turn); err != nil {
			internal.LogWarn("Failed to save turn %s: %v", turn.ID, err)
		}
	}
	d.host.Commit(ctx, turn)
	d.guest.Commit(ctx, turn)
	if d.observer != nil {
		d.observer.OnTurn(turn)
	}
}

// failed decides whether an error ends the room
func (d *Driver) failed(err error, failures *int) (StopReason, bool) {
	if errors.Is(err, internal.ErrUserCancelled) {
		d.state = StateTerminated
		return StopCancelled, true
	}
	*failures++
	internal.LogWarn("Exchange failed (%d/%d) during %s: %v", *failures, d.opts.MaxFailures, d.state, err)
	if *failures >= d.opts.MaxFailures {
		d.state = StateTerminated
		return StopFailures, true
	}
	return "", false
}

func (d *Driver) utter(speaker, text string) {
	if d.observer != nil {
		d.observer.OnUtterance(speaker, text)
	}
}
