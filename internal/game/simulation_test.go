package game

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type captureLog struct {
	ids []int
}

func (c *captureLog) handle(id int) error {
	c.ids = append(c.ids, id)
	return nil
}

func (c *captureLog) count(id int) int {
	n := 0
	for _, got := range c.ids {
		if got == id {
			n++
		}
	}
	return n
}

func newTestSimulation(t *testing.T, tuning Tuning, onCapture CaptureHandler) *Simulation {
	t.Helper()
	sim, err := NewSimulation(tuning, testRand(), onCapture)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return sim
}

func ballByID(sim *Simulation, id int) *Ball {
	for _, b := range sim.balls {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func assertTableInvariants(t *testing.T, sim *Simulation, step int) {
	t.Helper()
	bounds := sim.table.Bounds
	for _, b := range sim.balls {
		if !b.Alive {
			continue
		}
		if b.Position.X-b.Radius < bounds.X0-eps || b.Position.X+b.Radius > bounds.X1+eps ||
			b.Position.Y-b.Radius < bounds.Y0-eps || b.Position.Y+b.Radius > bounds.Y1+eps {
			t.Fatalf("step %d: ball %d left the table at %+v", step, b.ID, b.Position)
		}
		if s := b.Speed(); s > sim.tuning.MaxSpeed+eps || math.IsNaN(s) {
			t.Fatalf("step %d: ball %d speed %.4f exceeds max", step, b.ID, s)
		}
	}
	for _, o := range pairOverlaps(sim, 0) {
		if o.depth > sim.tuning.BallRadius {
			t.Fatalf("step %d: balls %d and %d overlap by %.3f", step, o.a, o.b, o.depth)
		}
	}
}

// Pairs may overlap briefly when a later pair in the scan pushes a ball back
// into an earlier one. It must not last.
const (
	settleDepth = 0.5
	settleSteps = 10
)

type overlap struct {
	a, b  int
	depth float64
}

func pairOverlaps(sim *Simulation, threshold float64) []overlap {
	var out []overlap
	for i, a := range sim.balls {
		for _, b := range sim.balls[i+1:] {
			if !a.Alive || !b.Alive {
				continue
			}
			if d := a.Radius + b.Radius - a.Position.DistanceTo(b.Position); d > threshold {
				out = append(out, overlap{a: a.ID, b: b.ID, depth: d})
			}
		}
	}
	return out
}

// overlapTracker fails when the same pair stays interpenetrating for more
// than settleSteps consecutive steps.
type overlapTracker map[[2]int]int

func (tr overlapTracker) observe(t *testing.T, sim *Simulation, step int) {
	t.Helper()
	current := map[[2]int]bool{}
	for _, o := range pairOverlaps(sim, settleDepth) {
		key := [2]int{o.a, o.b}
		current[key] = true
		tr[key]++
		if tr[key] > settleSteps {
			t.Fatalf("step %d: balls %d and %d overlapped by more than %.1f for %d steps (now %.3f)",
				step, o.a, o.b, settleDepth, tr[key], o.depth)
		}
	}
	for key := range tr {
		if !current[key] {
			delete(tr, key)
		}
	}
}

func TestResetRacksFullTable(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)

	snap := sim.Snapshot()
	if len(snap.Balls) != 37 {
		t.Fatalf("expected 37 balls, got %d", len(snap.Balls))
	}
	cues := 0
	for _, b := range snap.Balls {
		if !b.Alive {
			t.Errorf("ball %d not alive after reset", b.ID)
		}
		if b.IsCue {
			cues++
			if b.ID != CueBallID {
				t.Errorf("cue ball has id %d", b.ID)
			}
		}
	}
	if cues != 1 {
		t.Errorf("expected exactly one cue ball, got %d", cues)
	}

	rem := sim.Remaining()
	if rem.Count != 36 || len(rem.Numbers) != 36 || rem.Numbers[0] != 1 || rem.Numbers[35] != 36 {
		t.Errorf("remaining = %+v", rem)
	}
	if snap.Running || snap.Ended || snap.Status != StatusIdle {
		t.Errorf("fresh table not idle: %+v", snap.Status)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	sim.Strike(30, 80)
	for i := 0; i < 20; i++ {
		sim.Step(1)
	}

	sim.Reset()
	first := sim.Snapshot()
	sim.Reset()
	second := sim.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Error("two consecutive resets produced different snapshots")
	}
	if first.Running || first.Ended {
		t.Error("reset must clear round flags")
	}
}

func TestBreakShotMovesCue(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	cue := ballByID(sim, CueBallID)
	startX := cue.Position.X

	if !sim.Strike(0, 100) {
		t.Fatal("break shot rejected")
	}
	if !near(cue.Velocity.X, 24) || !near(cue.Velocity.Y, 0) {
		t.Fatalf("cue velocity = %+v, want (24, 0)", cue.Velocity)
	}
	if sim.Status() != StatusRunning {
		t.Fatalf("status = %s after strike", sim.Status())
	}

	res := sim.Step(1)
	if res.Ended {
		t.Fatal("round ended after one step")
	}
	if cue.Position.X <= startX {
		t.Errorf("cue did not move right: start=%.2f now=%.2f", startX, cue.Position.X)
	}
	assertTableInvariants(t, sim, 1)
}

func TestStrikeAngleConvention(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	sim.Strike(90, 50)
	cue := ballByID(sim, CueBallID)
	if !near(cue.Velocity.X, 0) || !near(cue.Velocity.Y, -12) {
		t.Errorf("90 degrees should point up the screen, got %+v", cue.Velocity)
	}
}

func TestSecondStrikeIgnored(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	sim.Strike(0, 100)
	sim.Step(1)

	cue := ballByID(sim, CueBallID)
	before := cue.Velocity
	status := sim.Status()

	if sim.Strike(180, 100) {
		t.Fatal("second strike accepted")
	}
	if cue.Velocity != before || sim.Status() != status {
		t.Error("rejected strike changed state")
	}
}

func TestStrikeRejectsNonFinite(t *testing.T) {
	cases := []struct {
		name         string
		angle, power float64
	}{
		{"positive infinite angle", math.Inf(1), 100},
		{"negative infinite angle", math.Inf(-1), 50},
		{"infinite power", 0, math.Inf(1)},
		{"negative infinite power", 45, math.Inf(-1)},
		{"NaN angle", math.NaN(), 100},
		{"NaN power", 0, math.NaN()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := newTestSimulation(t, DefaultTuning(), nil)
			if sim.Strike(tc.angle, tc.power) {
				t.Fatal("non-finite strike accepted")
			}
			if sim.Status() != StatusIdle {
				t.Errorf("status = %s, want IDLE", sim.Status())
			}
			if v := ballByID(sim, CueBallID).Velocity; !v.IsZero() {
				t.Errorf("cue velocity = %+v, want zero", v)
			}
			sim.Step(1)
			for _, b := range sim.balls {
				if !isFinite(b.Position.X) || !isFinite(b.Position.Y) {
					t.Fatalf("ball %d has non-finite position %+v", b.ID, b.Position)
				}
			}
			if !sim.Strike(0, 100) {
				t.Error("finite break rejected after a non-finite one")
			}
		})
	}
}

func TestStrikeRejectedWithoutCue(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	ballByID(sim, CueBallID).Alive = false

	if sim.Strike(0, 100) {
		t.Fatal("strike accepted with potted cue ball")
	}
	if sim.Status() != StatusIdle {
		t.Errorf("status = %s, want IDLE", sim.Status())
	}
}

func TestStepIdleIsNoop(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	before := sim.Snapshot()
	if res := sim.Step(1); res.Ended || len(res.Captured) != 0 {
		t.Errorf("idle step result = %+v", res)
	}
	if !reflect.DeepEqual(before, sim.Snapshot()) {
		t.Error("idle step changed the table")
	}
}

func TestBallAtPocketCentreIsCaptured(t *testing.T) {
	var captures captureLog
	sim := newTestSimulation(t, DefaultTuning(), captures.handle)
	sim.Strike(0, 100)

	pocket := sim.table.Pockets[0]
	ball := ballByID(sim, 5)
	ball.Position = pocket.Position
	ball.Velocity = Vec2{}

	res := sim.Step(1)
	if ball.Alive {
		t.Fatal("ball at pocket centre survived the step")
	}
	if !reflect.DeepEqual(res.Captured, []int{5}) {
		t.Errorf("captured = %v, want [5]", res.Captured)
	}

	for i := 0; i < 200; i++ {
		sim.Step(1)
		if ball.Alive {
			t.Fatalf("step %d: potted ball came back", i)
		}
	}
	if n := captures.count(5); n != 1 {
		t.Errorf("ball 5 produced %d capture events, want 1", n)
	}
	for _, n := range sim.Remaining().Numbers {
		if n == 5 {
			t.Error("potted ball still listed as remaining")
		}
	}
}

func TestCaptureHandlerFailuresAreSwallowed(t *testing.T) {
	calls := 0
	handlers := []CaptureHandler{
		func(int) error { calls++; return errors.New("speaker unplugged") },
		func(int) error { calls++; panic("audio thread gone") },
	}

	for _, h := range handlers {
		sim := newTestSimulation(t, DefaultTuning(), h)
		sim.Strike(0, 100)
		ball := ballByID(sim, 3)
		ball.Position = sim.table.Pockets[2].Position

		sim.Step(1)
		if ball.Alive {
			t.Error("capture rolled back by failing handler")
		}
		if sim.Status() != StatusRunning {
			t.Errorf("status = %s after failing handler", sim.Status())
		}
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestStrikeFromCaptureHandlerIsRejected(t *testing.T) {
	var sim *Simulation
	accepted := true
	sim = newTestSimulation(t, DefaultTuning(), func(int) error {
		sim.firstStrikeTaken = false
		accepted = sim.Strike(0, 100)
		return nil
	})
	sim.Strike(0, 100)
	ballByID(sim, 4).Position = sim.table.Pockets[3].Position

	sim.Step(1)
	if accepted {
		t.Error("strike during a step must be rejected")
	}
}

func TestRoundEndsAtThreshold(t *testing.T) {
	tuning := DefaultTuning()
	tuning.NumBalls = 8
	sim := newTestSimulation(t, tuning, nil)
	sim.Strike(0, 10)

	ballByID(sim, 1).Position = sim.table.Pockets[1].Position
	if res := sim.Step(1); res.Ended {
		t.Fatal("ended with 7 balls left")
	}

	ballByID(sim, 2).Position = sim.table.Pockets[4].Position
	res := sim.Step(1)
	if !res.Ended || sim.Status() != StatusEnded {
		t.Fatalf("expected round to end at 6 balls, res=%+v status=%s", res, sim.Status())
	}
	if sim.Remaining().Count != 6 {
		t.Errorf("remaining = %d, want 6", sim.Remaining().Count)
	}

	frozen := sim.Snapshot()
	if res := sim.Step(1); !res.Ended {
		t.Error("ended table must keep reporting ended")
	}
	if !reflect.DeepEqual(frozen, sim.Snapshot()) {
		t.Error("step after end changed the table")
	}
	if sim.Strike(0, 100) {
		t.Error("strike accepted on an ended round")
	}

	sim.Reset()
	if sim.Status() != StatusIdle || sim.Remaining().Count != 8 {
		t.Errorf("reset did not re-rack: status=%s remaining=%d", sim.Status(), sim.Remaining().Count)
	}
	if !sim.Strike(0, 100) {
		t.Error("break shot rejected after reset")
	}
}

func TestLongRunKeepsInvariants(t *testing.T) {
	var captures captureLog
	sim := newTestSimulation(t, DefaultTuning(), captures.handle)
	sim.Strike(15, 100)

	dts := []float64{1, 0.5, 2, 1.3, 5, 0}
	dead := map[int]bool{}
	overlaps := overlapTracker{}
	for step := 0; step < 3000; step++ {
		res := sim.Step(dts[step%len(dts)])
		assertTableInvariants(t, sim, step)
		overlaps.observe(t, sim, step)
		for _, b := range sim.balls {
			if dead[b.ID] && b.Alive {
				t.Fatalf("step %d: ball %d un-potted", step, b.ID)
			}
			if !b.Alive {
				dead[b.ID] = true
			}
		}
		if res.Ended != (sim.Remaining().Count <= sim.tuning.EndThreshold) {
			t.Fatalf("step %d: ended=%v with %d remaining", step, res.Ended, sim.Remaining().Count)
		}
		if res.Ended {
			break
		}
	}

	seen := map[int]int{}
	for _, id := range captures.ids {
		seen[id]++
		if seen[id] > 1 {
			t.Errorf("ball %d captured more than once", id)
		}
	}
	if len(captures.ids) != len(dead) {
		t.Errorf("%d capture events for %d potted balls", len(captures.ids), len(dead))
	}
}

func TestNaturalDecayRespectsSpeedClamp(t *testing.T) {
	tuning := DefaultTuning()
	tuning.ConstantSpeed = false
	sim := newTestSimulation(t, tuning, nil)
	sim.Strike(10, 100)

	overlaps := overlapTracker{}
	for step := 0; step < 500; step++ {
		sim.Step(1)
		assertTableInvariants(t, sim, step)
		overlaps.observe(t, sim, step)
	}
}

func TestDefaultBreakLeavesNoLastingOverlap(t *testing.T) {
	sim := newTestSimulation(t, DefaultTuning(), nil)
	sim.Strike(0, 100)

	overlaps := overlapTracker{}
	for step := 0; step < 2000; step++ {
		if sim.Step(1).Ended {
			break
		}
		assertTableInvariants(t, sim, step)
		overlaps.observe(t, sim, step)
	}
}

func TestClampDt(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1, 1},
		{0.5, 0.5},
		{7, 2},
		{-3, 0},
		{math.NaN(), 0},
		{math.Inf(1), 2},
	}
	for _, tc := range cases {
		if got := clampDt(tc.in, 2); got != tc.want {
			t.Errorf("clampDt(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
