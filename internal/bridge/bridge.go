// Package bridge runs the presence poll loop: it reads DMX frames from the
// Enttec receiver, holds the current presence state, and drives the RNBO
// fade-trigger parameter over OSC.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkransborg/presence-bridge/internal/enttec"
)

// FrameSource yields decoded Enttec frames. Satisfied by *enttec.Receiver.
type FrameSource interface {
	// ReadFrame returns the next frame, (nil, nil) when no complete frame
	// arrived within the read timeout, or an error.
	ReadFrame() (*enttec.Frame, error)
	Close() error
}

// Endpoint is the OSC side of the bridge. Satisfied by *rnbo.Connection.
type Endpoint interface {
	// Discover locates the runner and binds the OSC client. Soft failure;
	// the bridge retries.
	Discover(ctx context.Context) error

	// FindParameterPath resolves the first candidate present in the
	// runner's namespace. Best-effort.
	FindParameterPath(ctx context.Context, candidates []string) (string, bool)

	// SendPresence writes the fade-trigger value. No-op before Discover.
	SendPresence(value int, path string) error

	Close() error
}

// StatusPublisher mirrors presence transitions to an external observer.
// Satisfied by *mqtt.Client. Optional; publish failures are logged, never
// fatal.
type StatusPublisher interface {
	PublishPresence(present bool, path string) error
}

// Logger is the logging interface the bridge needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Options configures a Bridge.
type Options struct {
	// Channel is the 1-indexed DMX channel carrying the presence signal.
	Channel int

	// ParameterPath is the OSC address written every poll cycle. Replaced
	// during Setup if a candidate path resolves.
	ParameterPath string

	// CandidatePaths are checked against the runner's namespace in order.
	CandidatePaths []string

	// PollInterval is the sleep between poll cycles.
	PollInterval time.Duration

	// MaxRetries bounds the discovery retry loop; RetryDelay is the fixed
	// delay between attempts.
	MaxRetries int
	RetryDelay time.Duration

	// Endpoint is the OSC side of the bridge.
	Endpoint Endpoint

	// OpenSource acquires the serial frame source. Called once, during
	// Setup, after discovery succeeds. Failure is fatal.
	OpenSource func() (FrameSource, error)

	// Status is an optional presence mirror (nil disables it).
	Status StatusPublisher

	Logger Logger
}

// Bridge owns the poll loop and the held presence state.
//
// Thread Safety:
//   - Setup, Run, and the presence state are owned by a single goroutine.
//   - State() and Stop() are safe to call from other goroutines.
type Bridge struct {
	opts Options

	// paramPath is the resolved OSC address, fixed after Setup.
	paramPath string

	// present is the held presence state, owned by the Run goroutine.
	present bool

	source FrameSource

	state   State
	stateMu sync.RWMutex

	stopOnce sync.Once
}

// New creates a Bridge in the Uninitialized state. Call Setup, then Run.
func New(opts Options) *Bridge {
	return &Bridge{
		opts:      opts,
		paramPath: opts.ParameterPath,
		state:     StateUninitialized,
	}
}

// Setup performs the discovery and connection phases.
//
// Discovery is attempted up to MaxRetries times with a fixed RetryDelay
// between attempts; exhausting the bound returns ErrDiscoveryExhausted.
// After discovery, the candidate parameter paths are checked against the
// runner's namespace; if none resolves, the configured path is kept.
// Finally the serial frame source is opened — failure there is fatal with
// no retry.
//
// Returns:
//   - error: ErrDiscoveryExhausted, a serial open failure, or ctx.Err()
func (b *Bridge) Setup(ctx context.Context) error {
	b.setState(StateDiscovering)

	discovered := false
	for attempt := 1; attempt <= b.opts.MaxRetries; attempt++ {
		err := b.opts.Endpoint.Discover(ctx)
		if err == nil {
			discovered = true
			break
		}
		b.opts.Logger.Warn("discovery attempt failed",
			"attempt", attempt,
			"max_retries", b.opts.MaxRetries,
			"error", err)

		if attempt < b.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.opts.RetryDelay):
			}
		}
	}
	if !discovered {
		return fmt.Errorf("%w: %d attempts", ErrDiscoveryExhausted, b.opts.MaxRetries)
	}

	if path, ok := b.opts.Endpoint.FindParameterPath(ctx, b.opts.CandidatePaths); ok {
		b.paramPath = path
	} else {
		b.opts.Logger.Warn("no candidate parameter path found, keeping configured path",
			"path", b.paramPath)
	}

	source, err := b.opts.OpenSource()
	if err != nil {
		return fmt.Errorf("opening frame source: %w", err)
	}
	b.source = source

	b.setState(StateConnected)
	return nil
}

// Run executes the poll loop until ctx is cancelled or a transport error
// occurs.
//
// Each cycle reads at most one frame, updates the held presence state on a
// valid reading that differs from it, and then resends the held state
// regardless — the OSC transport is fire-and-forget UDP, so continuous
// resend is what guarantees downstream convergence after a dropped
// datagram. Malformed frames are logged and skipped; the decoder resyncs
// on the next start delimiter.
//
// Cancellation is checked at iteration granularity: an in-flight blocking
// read finishes (bounded by the serial read timeout) before the loop exits.
func (b *Bridge) Run(ctx context.Context) error {
	if b.source == nil {
		return ErrNotReady
	}

	b.setState(StateRunning)
	b.opts.Logger.Info("bridge running",
		"channel", b.opts.Channel,
		"parameter_path", b.paramPath,
		"poll_interval", b.opts.PollInterval)

	for {
		select {
		case <-ctx.Done():
			b.setState(StateShuttingDown)
			return nil
		default:
		}

		frame, err := b.source.ReadFrame()
		if err != nil {
			if !recoverable(err) {
				b.setState(StateShuttingDown)
				return fmt.Errorf("reading frame: %w", err)
			}
			b.opts.Logger.Warn("malformed frame, resyncing", "error", err)
		}

		if frame != nil {
			if present, ok := enttec.Presence(frame, b.opts.Channel); ok && present != b.present {
				b.present = present
				b.opts.Logger.Info("presence changed",
					"present", present,
					"channel", b.opts.Channel)
				b.publishStatus(present)
			}
		}

		if err := b.opts.Endpoint.SendPresence(presenceValue(b.present), b.paramPath); err != nil {
			b.setState(StateShuttingDown)
			return fmt.Errorf("sending presence: %w", err)
		}

		select {
		case <-ctx.Done():
			b.setState(StateShuttingDown)
			return nil
		case <-time.After(b.opts.PollInterval):
		}
	}
}

// Stop releases the serial and OSC handles. Safe to call more than once,
// and safe to call even if Setup never completed.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.setState(StateShuttingDown)

		if b.source != nil {
			if err := b.source.Close(); err != nil {
				b.opts.Logger.Warn("closing frame source", "error", err)
			}
		}
		if err := b.opts.Endpoint.Close(); err != nil {
			b.opts.Logger.Warn("closing endpoint", "error", err)
		}

		b.setState(StateStopped)
		b.opts.Logger.Info("bridge stopped")
	})
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

// ParameterPath returns the OSC address in use, resolved or configured.
func (b *Bridge) ParameterPath() string {
	return b.paramPath
}

func (b *Bridge) setState(s State) {
	b.stateMu.Lock()
	b.state = s
	b.stateMu.Unlock()
}

// publishStatus mirrors a transition to the optional status publisher.
func (b *Bridge) publishStatus(present bool) {
	if b.opts.Status == nil {
		return
	}
	if err := b.opts.Status.PublishPresence(present, b.paramPath); err != nil {
		b.opts.Logger.Warn("publishing presence status", "error", err)
	}
}

// recoverable reports whether a frame read error is a transient framing
// problem rather than a dead transport.
func recoverable(err error) bool {
	return errors.Is(err, enttec.ErrEndDelimiter) || errors.Is(err, enttec.ErrFrameTooLarge)
}

// presenceValue maps the held state to the fade-trigger value.
func presenceValue(present bool) int {
	if present {
		return 1
	}
	return 0
}
