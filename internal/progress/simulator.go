package progress

import (
	"math/rand/v2"
	"sync"
	"time"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
	"slidegenie/internal/schedule"
)

// SimulatorOptions configures a Simulator. Zero values pick defaults.
type SimulatorOptions struct {
	Scheduler   schedule.Scheduler
	Tick        time.Duration
	TotalSlides int
	// Intn returns a value in [0,n). Defaults to math/rand/v2.IntN.
	Intn func(n int) int
}

// Simulator fakes generation progress while the live channel is down. Each
// tick adds 5 to 15 points until it reaches 100.
type Simulator struct {
	id    string
	emit  func(models.GenerationProgress)
	sched schedule.Scheduler
	tick  time.Duration
	total int
	intn  func(int) int

	mu      sync.Mutex
	current int
	running bool
	gen     uint64
	timer   schedule.Timer
}

// NewSimulator returns a stopped Simulator reporting each step to emit.
func NewSimulator(generationID string, emit func(models.GenerationProgress), opts SimulatorOptions) *Simulator {
	if opts.Tick <= 0 {
		opts.Tick = config.SimulatorTick
	}
	if opts.TotalSlides <= 0 {
		opts.TotalSlides = config.SimulatedSlideCount
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	return &Simulator{
		id:    generationID,
		emit:  emit,
		sched: schedule.OrSystem(opts.Scheduler),
		tick:  opts.Tick,
		total: opts.TotalSlides,
		intn:  opts.Intn,
	}
}

// Start begins ticking from progress from. It does nothing if already running.
func (s *Simulator) Start(from int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.current = clamp(from, 0, 100)
	s.gen++
	s.scheduleLocked()
}

// Stop cancels the next tick.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Running reports whether ticks are scheduled.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Simulator) scheduleLocked() {
	gen := s.gen
	s.timer = s.sched.AfterFunc(s.tick, func() { s.step(gen) })
}

func (s *Simulator) step(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.running {
		s.mu.Unlock()
		return
	}
	s.current += 5 + s.intn(11)
	if s.current >= 100 {
		s.current = 100
		s.running = false
		s.timer = nil
	} else {
		s.scheduleLocked()
	}
	p := s.eventLocked()
	s.mu.Unlock()

	s.emit(p)
}

func (s *Simulator) eventLocked() models.GenerationProgress {
	stage := StageFor(s.current)
	slides := s.current * s.total / 100
	return models.GenerationProgress{
		ID:           s.id,
		Stage:        stage,
		Progress:     s.current,
		CurrentSlide: slides,
		TotalSlides:  s.total,
		Message:      Message(stage, s.current),
		Preview:      PreviewStubs(slides),
	}
}
