package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/live"
	"slidegenie/internal/routes"
	"slidegenie/internal/schedule"
)

const (
	noticeReconnecting = "Connection lost. Trying to reconnect..."
	msgRetryFailed     = "Failed to retry generation"
)

// Generations is the part of the API the tracker drives.
type Generations interface {
	CancelGeneration(ctx context.Context, generationID string) error
	RetryGeneration(ctx context.Context, generationID string) error
}

// TrackerOptions configures a Tracker. Zero values pick defaults.
type TrackerOptions struct {
	Live          live.Options
	Simulator     SimulatorOptions
	Scheduler     schedule.Scheduler
	RedirectDelay time.Duration
	Logger        *slog.Logger
	// Navigate receives the route to open once the job ends.
	Navigate func(path string)
	// OnUpdate is called after every state change.
	OnUpdate func(Snapshot)
}

// Tracker follows one generation job: it listens on the live channel,
// simulates progress while the channel is down, and navigates away when
// the job completes or is cancelled.
type Tracker struct {
	id       string
	vm       *ViewModel
	channel  *live.Channel
	sim      *Simulator
	api      Generations
	sched    schedule.Scheduler
	delay    time.Duration
	navigate func(string)
	onUpdate func(Snapshot)
	logger   *slog.Logger

	mu       sync.Mutex
	redirect schedule.Timer
	finished bool
	closed   bool
	done     chan struct{}
}

// NewTracker prepares a tracker for generationID whose events arrive on
// socketURL. Call Start to begin.
func NewTracker(generationID, socketURL string, api Generations, opts TrackerOptions) *Tracker {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = config.CompletionRedirectDelay
	}
	if opts.Navigate == nil {
		opts.Navigate = func(string) {}
	}
	sched := schedule.OrSystem(opts.Scheduler)
	if opts.Simulator.Scheduler == nil {
		opts.Simulator.Scheduler = sched
	}
	if opts.Live.Scheduler == nil {
		opts.Live.Scheduler = sched
	}
	if opts.Live.Logger == nil {
		opts.Live.Logger = opts.Logger
	}

	t := &Tracker{
		id:       generationID,
		vm:       NewViewModel(generationID),
		api:      api,
		sched:    sched,
		delay:    opts.RedirectDelay,
		navigate: opts.Navigate,
		onUpdate: opts.OnUpdate,
		logger:   opts.Logger.With("generation_id", generationID),
		done:     make(chan struct{}),
	}
	t.sim = NewSimulator(generationID, t.simulated, opts.Simulator)
	t.channel = live.New(socketURL, live.Handlers{
		OnMessage: t.liveMessage,
		OnError:   t.liveError,
		OnOpen:    t.liveOpen,
		OnClose:   t.liveClose,
	}, opts.Live)
	return t
}

// Start runs the simulator and dials the live channel. A failed dial is not
// an error: the simulator keeps the screen moving while reconnects run.
func (t *Tracker) Start(ctx context.Context) {
	t.sim.Start(0)
	if err := t.channel.Connect(ctx); err != nil {
		t.logger.Info("live channel unavailable, simulating progress", "error", err)
	}
	t.notify()
}

// Snapshot returns the current screen state.
func (t *Tracker) Snapshot() Snapshot { return t.vm.Snapshot() }

// Done is closed once the tracker has navigated away.
func (t *Tracker) Done() <-chan struct{} { return t.done }

// Cancel asks the backend to cancel the job and navigates to the creation
// page whether or not the request succeeded.
func (t *Tracker) Cancel(ctx context.Context) error {
	err := t.api.CancelGeneration(ctx, t.id)
	if err != nil {
		t.logger.Error("failed to cancel generation", "error", err)
		err = fmt.Errorf("cancel generation: %w", err)
	}
	t.finish(routes.Create, 0)
	return err
}

// Retry resets the screen to the first stage and asks the backend to run
// the job again.
func (t *Tracker) Retry(ctx context.Context) error {
	t.vm.Reset()
	if !t.channel.IsConnected() {
		t.sim.Stop()
		t.sim.Start(0)
	}
	t.notify()

	if err := t.api.RetryGeneration(ctx, t.id); err != nil {
		t.logger.Error("failed to retry generation", "error", err)
		t.vm.SetError(msgRetryFailed)
		t.notify()
		return fmt.Errorf("retry generation: %w", err)
	}
	return nil
}

// Close stops all timers and the live channel without navigating.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	if t.redirect != nil {
		t.redirect.Stop()
		t.redirect = nil
	}
	t.mu.Unlock()
	t.sim.Stop()
	t.channel.Disconnect()
}

func (t *Tracker) liveMessage(p models.GenerationProgress) {
	if t.isClosed() {
		return
	}
	completed := t.vm.ApplyLive(p)
	t.notify()
	if completed {
		t.complete(p.ID)
	}
}

func (t *Tracker) liveOpen() {
	t.sim.Stop()
	t.vm.SetLive(true)
	t.notify()
}

func (t *Tracker) liveError(err error) {
	t.logger.Warn("live channel error", "error", err)
	t.vm.SetNotice(noticeReconnecting)
	t.notify()
}

func (t *Tracker) liveClose() {
	t.vm.SetLive(false)
	if t.vm.IsComplete() || t.isFinished() || t.isClosed() {
		return
	}
	t.sim.Start(t.vm.Current().Progress)
	t.notify()
}

func (t *Tracker) simulated(p models.GenerationProgress) {
	if t.isClosed() {
		return
	}
	completed := t.vm.ApplySimulated(p)
	t.notify()
	if completed {
		t.complete(p.ID)
	}
}

func (t *Tracker) complete(presentationID string) {
	if presentationID == "" {
		presentationID = t.id
	}
	t.logger.Info("generation complete", "presentation_id", presentationID)
	t.finish(routes.PresentationEdit(presentationID), t.delay)
}

// finish stops the sources and navigates to path after delay. Only the
// first call has any effect.
func (t *Tracker) finish(path string, delay time.Duration) {
	t.mu.Lock()
	if t.finished || t.closed {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.mu.Unlock()

	t.sim.Stop()
	t.channel.Disconnect()

	navigate := func() {
		t.navigate(path)
		close(t.done)
	}
	if delay <= 0 {
		navigate()
		return
	}
	t.mu.Lock()
	t.redirect = t.sched.AfterFunc(delay, navigate)
	t.mu.Unlock()
}

func (t *Tracker) isFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) notify() {
	if t.onUpdate != nil {
		t.onUpdate(t.vm.Snapshot())
	}
}
