package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrSessionBusy   = errors.New("table is busy, try again")
	ErrSessionClosed = errors.New("table is closed")
)

// Clock supplies monotonically non-decreasing timestamps to the host loop.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// TableListener receives table events from the host loop. Calls are made on
// the loop goroutine, so implementations must return quickly.
type TableListener interface {
	TableUpdated(token string, snap Snapshot)
	BallPotted(token string, ballID int)
	RoundEnded(token string, rem Remaining)
}

// TableCloser is implemented by listeners that keep per-table state. It is
// called once, on the loop goroutine, after the last event for the table.
type TableCloser interface {
	TableClosed(token string)
}

type commandKind int

const (
	cmdStrike commandKind = iota
	cmdReset
)

type command struct {
	kind   commandKind
	angle  float64
	power  float64
	result chan bool
}

// TableSession hosts one Simulation: it owns the loop goroutine that steps
// it, and serialises strikes and resets between steps.
type TableSession struct {
	Token     string
	CreatedAt time.Time

	sim       *Simulation
	clock     Clock
	listeners []TableListener
	commands  chan command
	done      chan struct{}

	// lastTick is zero until the first step after a strike.
	lastTick time.Time

	mu           sync.RWMutex
	snapshot     Snapshot
	lastActivity time.Time
}

// NewTableSession builds a session around a fresh simulation.
func NewTableSession(token string, t Tuning, rng RandSource, clock Clock, listeners ...TableListener) (*TableSession, error) {
	if clock == nil {
		clock = SystemClock
	}
	s := &TableSession{
		Token:     token,
		CreatedAt: clock.Now(),
		clock:     clock,
		listeners: listeners,
		commands:  make(chan command, 16),
		done:      make(chan struct{}),
	}

	sim, err := NewSimulation(t, rng, s.ballPotted)
	if err != nil {
		return nil, err
	}
	s.sim = sim
	s.lastActivity = s.CreatedAt
	s.publish()
	return s, nil
}

// Run drives the simulation until ctx is cancelled. Commands are handled on
// the same goroutine as steps, so a strike never lands mid-step.
func (s *TableSession) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.sim.Tuning().FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, l := range s.listeners {
				if c, ok := l.(TableCloser); ok {
					c.TableClosed(s.Token)
				}
			}
			log.Printf("[TABLE] %s loop stopped", s.Token)
			return
		case cmd := <-s.commands:
			s.apply(cmd)
		case <-ticker.C:
			s.tick(s.clock.Now())
		}
	}
}

// Strike queues a break shot and waits for the loop to accept or ignore it.
func (s *TableSession) Strike(ctx context.Context, angleDegrees, power float64) (bool, error) {
	return s.submit(ctx, command{kind: cmdStrike, angle: angleDegrees, power: power})
}

// Reset queues a re-rack.
func (s *TableSession) Reset(ctx context.Context) error {
	_, err := s.submit(ctx, command{kind: cmdReset})
	return err
}

func (s *TableSession) submit(ctx context.Context, cmd command) (bool, error) {
	cmd.result = make(chan bool, 1)
	select {
	case <-s.done:
		return false, ErrSessionClosed
	default:
	}

	select {
	case s.commands <- cmd:
	default:
		return false, ErrSessionBusy
	}

	select {
	case ok := <-cmd.result:
		return ok, nil
	case <-s.done:
		return false, ErrSessionClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *TableSession) apply(cmd command) {
	var ok bool
	switch cmd.kind {
	case cmdStrike:
		ok = s.sim.Strike(cmd.angle, cmd.power)
		if ok {
			s.lastTick = time.Time{}
			log.Printf("[TABLE] %s break shot angle=%.1f power=%.1f", s.Token, cmd.angle, cmd.power)
		}
	case cmdReset:
		s.sim.Reset()
		s.lastTick = time.Time{}
		ok = true
		log.Printf("[TABLE] %s reset", s.Token)
	}

	s.mu.Lock()
	s.lastActivity = s.clock.Now()
	s.mu.Unlock()

	s.publish()
	cmd.result <- ok
}

// tick runs one host frame. dtRatio is the elapsed time in nominal frames;
// the first frame after a strike counts as exactly one.
func (s *TableSession) tick(now time.Time) {
	if s.sim.Status() != StatusRunning {
		return
	}

	dtRatio := 1.0
	if !s.lastTick.IsZero() {
		dtRatio = float64(now.Sub(s.lastTick)) / float64(s.sim.Tuning().FrameInterval)
	}
	s.lastTick = now

	res := s.sim.Step(dtRatio)
	s.publish()

	if res.Ended {
		rem := s.sim.Remaining()
		log.Printf("[TABLE] %s round ended with %d balls left", s.Token, rem.Count)
		for _, l := range s.listeners {
			l.RoundEnded(s.Token, rem)
		}
	}
}

func (s *TableSession) ballPotted(ballID int) error {
	for _, l := range s.listeners {
		l.BallPotted(s.Token, ballID)
	}
	return nil
}

func (s *TableSession) publish() {
	snap := s.sim.Snapshot()
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	for _, l := range s.listeners {
		l.TableUpdated(s.Token, snap)
	}
}

// Snapshot returns the state published after the last step or command.
func (s *TableSession) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Remaining returns the remaining-ball report from the last published state.
func (s *TableSession) Remaining() Remaining {
	return s.Snapshot().Remaining
}

// LastActivity is the time of the last strike or reset.
func (s *TableSession) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Done is closed once the loop has exited.
func (s *TableSession) Done() <-chan struct{} {
	return s.done
}
