package game

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
)

// ErrNoRandSource is returned when a Simulation is built without a generator.
var ErrNoRandSource = errors.New("random source is required")

// CaptureHandler is told about every pot exactly once. Its errors and panics
// are logged and otherwise ignored; they never affect the simulation.
type CaptureHandler func(ballID int) error

// StepResult reports the outcome of one Step call.
type StepResult struct {
	Ended    bool  `json:"ended"`
	Captured []int `json:"captured,omitempty"`
}

// Remaining lists the numbered balls still in play.
type Remaining struct {
	Count   int   `json:"remaining_count"`
	Numbers []int `json:"remaining_numbers"`
}

// BallView is the read-only rendering view of a ball.
type BallView struct {
	ID    int       `json:"id"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	R     float64   `json:"r"`
	Alive bool      `json:"alive"`
	IsCue bool      `json:"is_cue"`
	Band  ColorBand `json:"band"`
}

// PocketView is the read-only rendering view of a pocket.
type PocketView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Snapshot is a deep copy of everything a renderer needs.
type Snapshot struct {
	Balls     []BallView   `json:"balls"`
	Pockets   []PocketView `json:"pockets"`
	Bounds    Bounds       `json:"bounds"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Running   bool         `json:"running"`
	Ended     bool         `json:"ended"`
	Status    RoundStatus  `json:"status"`
	Remaining Remaining    `json:"remaining"`
}

// Simulation owns one table's balls and round state. It is not safe for
// concurrent use; a single host loop must serialise Step, Strike and Reset.
type Simulation struct {
	tuning    Tuning
	table     *Table
	rng       RandSource
	onCapture CaptureHandler

	balls            []*Ball
	running          bool
	ended            bool
	firstStrikeTaken bool
	stepping         bool
}

// NewSimulation validates the tuning and racks a fresh table in the Idle state.
func NewSimulation(t Tuning, rng RandSource, onCapture CaptureHandler) (*Simulation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrNoRandSource
	}

	s := &Simulation{
		tuning:    t,
		table:     NewTable(t),
		rng:       rng,
		onCapture: onCapture,
	}
	s.Reset()
	return s, nil
}

// Reset replaces the ball store with a fresh rack and returns to Idle.
func (s *Simulation) Reset() {
	s.balls = newBallStore(s.tuning, s.table.Bounds)
	s.running = false
	s.ended = false
	s.firstStrikeTaken = false
}

// Strike sets the cue ball moving. Only the break is accepted: it is ignored
// once a strike was taken, after the round ended, when the cue ball is potted,
// or while a step is in progress. Reports whether the strike was applied.
func (s *Simulation) Strike(angleDegrees, power float64) bool {
	if s.stepping || s.ended || s.firstStrikeTaken {
		return false
	}
	cue := s.cue()
	if cue == nil || !cue.Alive {
		return false
	}
	if !isFinite(angleDegrees) || !isFinite(power) {
		return false
	}

	power = math.Max(0, math.Min(100, power))
	rad := angleDegrees * math.Pi / 180
	speed := power / 100 * s.tuning.StrikeSpeed

	// Screen coordinates: positive angles point up the table.
	cue.Velocity = NewVec2(math.Cos(rad)*speed, -math.Sin(rad)*speed)

	s.running = true
	s.firstStrikeTaken = true
	return true
}

// Step advances the table by dtRatio nominal frames. It does nothing unless
// the round is running; once ended it keeps reporting Ended until Reset.
func (s *Simulation) Step(dtRatio float64) StepResult {
	if s.ended {
		return StepResult{Ended: true}
	}
	if !s.running {
		return StepResult{}
	}

	s.stepping = true
	defer func() { s.stepping = false }()

	dt := clampDt(dtRatio, s.tuning.MaxDtRatio)
	t := &s.tuning
	bounds := s.table.Bounds

	var captured []int
	for _, b := range s.balls {
		if !b.Alive {
			continue
		}
		b.Position = b.Position.Plus(b.Velocity.Times(dt))
		reflectWalls(b, bounds, t.WallRestitution)
		if p := checkPocket(b, s.table.Pockets, t); p != nil {
			captured = append(captured, b.ID)
			s.notifyCapture(b.ID)
		}
	}

	resolvePairs(s.balls, bounds, t.BallRestitution, t.MaxSpeed)
	for _, b := range s.balls {
		if b.Alive {
			contain(b, bounds)
		}
	}

	if t.ConstantSpeed {
		keepConstantSpeed(s.balls, t, s.rng)
	} else {
		applyDecay(s.balls, t)
	}

	alive := s.aliveNumbered()
	if t.KeepMoving {
		nudgeIfStalled(s.balls, alive, t, s.rng)
	}

	if alive <= t.EndThreshold {
		s.running = false
		s.ended = true
	}

	return StepResult{Ended: s.ended, Captured: captured}
}

// Status returns the round state.
func (s *Simulation) Status() RoundStatus {
	switch {
	case s.ended:
		return StatusEnded
	case s.running:
		return StatusRunning
	default:
		return StatusIdle
	}
}

// Remaining returns the alive numbered balls in ascending order.
func (s *Simulation) Remaining() Remaining {
	numbers := make([]int, 0, len(s.balls))
	for _, b := range s.balls {
		if b.Alive && !b.IsCue {
			numbers = append(numbers, b.ID)
		}
	}
	sort.Ints(numbers)
	return Remaining{Count: len(numbers), Numbers: numbers}
}

// Snapshot returns a copy of the table state for rendering.
func (s *Simulation) Snapshot() Snapshot {
	balls := make([]BallView, len(s.balls))
	for i, b := range s.balls {
		balls[i] = BallView{
			ID:    b.ID,
			X:     b.Position.X,
			Y:     b.Position.Y,
			R:     b.Radius,
			Alive: b.Alive,
			IsCue: b.IsCue,
			Band:  BandFor(b.ID),
		}
	}
	pockets := make([]PocketView, len(s.table.Pockets))
	for i, p := range s.table.Pockets {
		pockets[i] = PocketView{X: p.Position.X, Y: p.Position.Y, R: p.Radius}
	}

	return Snapshot{
		Balls:     balls,
		Pockets:   pockets,
		Bounds:    s.table.Bounds,
		Width:     s.table.Width,
		Height:    s.table.Height,
		Running:   s.running,
		Ended:     s.ended,
		Status:    s.Status(),
		Remaining: s.Remaining(),
	}
}

// Tuning returns the tuning the simulation was built with.
func (s *Simulation) Tuning() Tuning {
	return s.tuning
}

func (s *Simulation) cue() *Ball {
	for _, b := range s.balls {
		if b.IsCue {
			return b
		}
	}
	return nil
}

func (s *Simulation) aliveNumbered() int {
	n := 0
	for _, b := range s.balls {
		if b.Alive && !b.IsCue {
			n++
		}
	}
	return n
}

func (s *Simulation) notifyCapture(ballID int) {
	if s.onCapture == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[TABLE] capture handler panicked for ball %d: %v", ballID, r)
		}
	}()
	if err := s.onCapture(ballID); err != nil {
		log.Printf("[TABLE] capture handler failed for ball %d: %v", ballID, err)
	}
}

// clampDt bounds the integration step so a stalled host clock cannot make
// balls jump arbitrarily far in one call.
func clampDt(dtRatio, max float64) float64 {
	if math.IsNaN(dtRatio) || dtRatio < 0 {
		return 0
	}
	return math.Min(dtRatio, max)
}

func (s *Simulation) String() string {
	r := s.Remaining()
	return fmt.Sprintf("simulation{status=%s remaining=%d}", s.Status(), r.Count)
}
