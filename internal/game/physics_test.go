package game

import (
	"errors"
	"math"
	mrand "math/rand/v2"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func testRand() *mrand.Rand {
	return mrand.New(mrand.NewPCG(7, 11))
}

func TestNewTableGeometry(t *testing.T) {
	table := NewTable(DefaultTuning())

	want := Bounds{X0: 38, Y0: 38, X1: 962, Y1: 522}
	if table.Bounds != want {
		t.Fatalf("bounds = %+v, want %+v", table.Bounds, want)
	}
	if len(table.Pockets) != 6 {
		t.Fatalf("expected 6 pockets, got %d", len(table.Pockets))
	}
	for _, p := range table.Pockets {
		if p.Radius != 24 {
			t.Errorf("pocket %d radius = %v, want 24", p.ID, p.Radius)
		}
	}
	if table.Pockets[1].Position != NewVec2(500, 28) || table.Pockets[4].Position != NewVec2(500, 532) {
		t.Errorf("middle pockets misplaced: %+v %+v", table.Pockets[1].Position, table.Pockets[4].Position)
	}
	if table.Pockets[5].Position != NewVec2(972, 532) {
		t.Errorf("bottom-right pocket misplaced: %+v", table.Pockets[5].Position)
	}
}

func TestRackFitsInsideBounds(t *testing.T) {
	tuning := DefaultTuning()
	table := NewTable(tuning)
	balls := newBallStore(tuning, table.Bounds)

	if len(balls) != tuning.NumBalls+1 {
		t.Fatalf("expected %d balls, got %d", tuning.NumBalls+1, len(balls))
	}
	for _, b := range balls {
		if !table.Bounds.Contains(b.Position, b.Radius) {
			t.Errorf("ball %d racked outside bounds at %+v", b.ID, b.Position)
		}
	}
	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			if d := balls[i].Position.DistanceTo(balls[j].Position); d < balls[i].Radius+balls[j].Radius {
				t.Errorf("balls %d and %d racked overlapping (d=%.2f)", balls[i].ID, balls[j].ID, d)
			}
		}
	}
}

func TestTuningValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"negative radius", func(t *Tuning) { t.BallRadius = -1 }},
		{"no balls", func(t *Tuning) { t.NumBalls = 0 }},
		{"restitution above one", func(t *Tuning) { t.WallRestitution = 1.2 }},
		{"target above max", func(t *Tuning) { t.TargetSpeed = t.MaxSpeed + 1 }},
		{"zero frame interval", func(t *Tuning) { t.FrameInterval = 0 }},
		{"rack overflow", func(t *Tuning) { t.NumBalls = 500 }},
		{"NaN suction", func(t *Tuning) { t.SuckStrength = math.NaN() }},
		{"infinite max speed", func(t *Tuning) { t.MaxSpeed = math.Inf(1) }},
		{"NaN target speed", func(t *Tuning) { t.TargetSpeed = math.NaN() }},
		{"negative infinite nudge", func(t *Tuning) { t.Nudge = math.Inf(-1) }},
		{"balls at end threshold", func(t *Tuning) { t.NumBalls = t.EndThreshold }},
	}

	if err := DefaultTuning().Validate(); err != nil {
		t.Fatalf("default tuning rejected: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tuning := DefaultTuning()
			tc.mutate(&tuning)
			if _, err := NewSimulation(tuning, testRand(), nil); !errors.Is(err, ErrInvalidTuning) {
				t.Fatalf("expected ErrInvalidTuning, got %v", err)
			}
		})
	}
}

func TestReflectWalls(t *testing.T) {
	bounds := Bounds{X0: 0, Y0: 0, X1: 100, Y1: 100}

	cases := []struct {
		name    string
		pos     Vec2
		vel     Vec2
		wantPos Vec2
		wantVel Vec2
		hit     bool
	}{
		{"inside", NewVec2(50, 50), NewVec2(3, -2), NewVec2(50, 50), NewVec2(3, -2), false},
		{"left", NewVec2(5, 50), NewVec2(-4, 1), NewVec2(10, 50), NewVec2(4*0.98, 1), true},
		{"right", NewVec2(97, 50), NewVec2(4, 0), NewVec2(90, 50), NewVec2(-4*0.98, 0), true},
		{"top", NewVec2(50, 2), NewVec2(0, -5), NewVec2(50, 10), NewVec2(0, 5*0.98), true},
		{"corner", NewVec2(95, 95), NewVec2(2, 3), NewVec2(90, 90), NewVec2(-2*0.98, -3*0.98), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Ball{Position: tc.pos, Velocity: tc.vel, Radius: 10, Alive: true}
			if hit := reflectWalls(b, bounds, 0.98); hit != tc.hit {
				t.Errorf("hit = %v, want %v", hit, tc.hit)
			}
			if !near(b.Position.X, tc.wantPos.X) || !near(b.Position.Y, tc.wantPos.Y) {
				t.Errorf("position = %+v, want %+v", b.Position, tc.wantPos)
			}
			if !near(b.Velocity.X, tc.wantVel.X) || !near(b.Velocity.Y, tc.wantVel.Y) {
				t.Errorf("velocity = %+v, want %+v", b.Velocity, tc.wantVel)
			}
		})
	}
}

func TestHeadOnCollisionTransfersMomentum(t *testing.T) {
	a := &Ball{ID: 1, Position: NewVec2(100, 100), Velocity: NewVec2(2, 0), Radius: 10, Alive: true}
	b := &Ball{ID: 2, Position: NewVec2(118, 100), Radius: 10, Alive: true}

	if !resolveBallBall(a, b, 0.98, 14) {
		t.Fatal("expected an impulse")
	}
	if !near(a.Position.X, 99) || !near(b.Position.X, 119) {
		t.Errorf("pair not separated: a=%.3f b=%.3f", a.Position.X, b.Position.X)
	}
	if !near(a.Velocity.X, 0.02) || !near(b.Velocity.X, 1.98) {
		t.Errorf("velocities after impulse: a=%.4f b=%.4f", a.Velocity.X, b.Velocity.X)
	}
	if d := a.Position.DistanceTo(b.Position); d < 20-eps {
		t.Errorf("still overlapping after resolve: d=%.6f", d)
	}
}

func TestSeparatingPairKeepsVelocities(t *testing.T) {
	a := &Ball{ID: 1, Position: NewVec2(100, 100), Velocity: NewVec2(-1, 0.5), Radius: 10, Alive: true}
	b := &Ball{ID: 2, Position: NewVec2(115, 100), Velocity: NewVec2(1, 0.5), Radius: 10, Alive: true}

	if resolveBallBall(a, b, 0.98, 14) {
		t.Fatal("separating pair must not receive an impulse")
	}
	if a.Velocity != NewVec2(-1, 0.5) || b.Velocity != NewVec2(1, 0.5) {
		t.Errorf("velocities changed: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
	if d := a.Position.DistanceTo(b.Position); !near(d, 20) {
		t.Errorf("position not corrected: d=%.6f", d)
	}
}

func TestCollisionSkipsDegenerateAndDeadPairs(t *testing.T) {
	a := &Ball{ID: 1, Position: NewVec2(50, 50), Velocity: NewVec2(1, 0), Radius: 10, Alive: true}
	b := &Ball{ID: 2, Position: NewVec2(50, 50), Velocity: NewVec2(-1, 0), Radius: 10, Alive: true}
	if resolveBallBall(a, b, 0.98, 14) {
		t.Error("coincident centres must be skipped")
	}
	if a.Position != b.Position {
		t.Error("coincident pair must not be moved")
	}

	c := &Ball{ID: 3, Position: NewVec2(60, 50), Radius: 10, Alive: false}
	if resolveBallBall(a, c, 0.98, 14) || c.Position != NewVec2(60, 50) {
		t.Error("captured ball must be ignored")
	}
}

func TestCollisionClampsSpeed(t *testing.T) {
	a := &Ball{ID: 1, Position: NewVec2(100, 100), Velocity: NewVec2(30, 0), Radius: 10, Alive: true}
	b := &Ball{ID: 2, Position: NewVec2(119, 100), Velocity: NewVec2(-30, 0), Radius: 10, Alive: true}

	resolveBallBall(a, b, 0.98, 14)
	if a.Speed() > 14+eps || b.Speed() > 14+eps {
		t.Errorf("speed not clamped: a=%.3f b=%.3f", a.Speed(), b.Speed())
	}
	if a.Velocity.X >= 0 || b.Velocity.X <= 0 {
		t.Errorf("pair should rebound: a=%+v b=%+v", a.Velocity, b.Velocity)
	}
}

func TestPairPassKeepsGapAgainstCushion(t *testing.T) {
	bounds := Bounds{X0: 0, Y0: 0, X1: 100, Y1: 100}
	a := &Ball{ID: 1, Position: NewVec2(10, 50), Radius: 10, Alive: true}
	b := &Ball{ID: 2, Position: NewVec2(25, 50), Velocity: NewVec2(-2, 0), Radius: 10, Alive: true}

	if hits := resolvePairs([]*Ball{a, b}, bounds, 0.98, 14); hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
	if !near(a.Position.X, 10) {
		t.Errorf("ball on the cushion moved to x=%.3f", a.Position.X)
	}
	if d := a.Position.DistanceTo(b.Position); d < 20-eps {
		t.Errorf("cushion clamp pushed the pair back together: d=%.6f", d)
	}
}

func TestPairPassCornerCluster(t *testing.T) {
	bounds := Bounds{X0: 0, Y0: 0, X1: 200, Y1: 200}
	balls := []*Ball{
		{ID: 1, Position: NewVec2(10, 10), Radius: 10, Alive: true},
		{ID: 2, Position: NewVec2(26, 10), Velocity: NewVec2(-3, 0), Radius: 10, Alive: true},
		{ID: 3, Position: NewVec2(10, 26), Velocity: NewVec2(0, -3), Radius: 10, Alive: true},
	}

	resolvePairs(balls, bounds, 0.98, 14)
	for _, b := range balls {
		if !bounds.Contains(b.Position, b.Radius) {
			t.Errorf("ball %d pushed off the cloth: %+v", b.ID, b.Position)
		}
	}
	for i := range balls {
		for j := i + 1; j < len(balls); j++ {
			if d := balls[i].Position.DistanceTo(balls[j].Position); d < 20-eps {
				t.Errorf("balls %d and %d still overlap: d=%.6f", balls[i].ID, balls[j].ID, d)
			}
		}
	}
}

func TestPocketSuction(t *testing.T) {
	tuning := DefaultTuning()
	table := NewTable(tuning)
	b := &Ball{ID: 3, Position: NewVec2(500, 78), Radius: 10, Alive: true}

	if p := checkPocket(b, table.Pockets, &tuning); p != nil {
		t.Fatalf("ball 50 units away must not be captured (pocket %d)", p.ID)
	}
	if !near(b.Velocity.X, 0) || !near(b.Velocity.Y, -0.08) {
		t.Errorf("suction velocity = %+v, want (0, -0.08)", b.Velocity)
	}
}

func TestPocketCapture(t *testing.T) {
	tuning := DefaultTuning()
	table := NewTable(tuning)
	b := &Ball{ID: 3, Position: NewVec2(500, 60), Velocity: NewVec2(1, -1), Radius: 10, Alive: true}

	p := checkPocket(b, table.Pockets, &tuning)
	if p == nil || p.ID != 1 {
		t.Fatalf("expected capture by pocket 1, got %+v", p)
	}
	if b.Alive || !b.Velocity.IsZero() {
		t.Errorf("captured ball alive=%v velocity=%+v", b.Alive, b.Velocity)
	}
	if again := checkPocket(b, table.Pockets, &tuning); again != nil {
		t.Error("a captured ball cannot be captured twice")
	}
}

func TestPocketFirstMatchWins(t *testing.T) {
	tuning := DefaultTuning()
	pockets := []Pocket{
		{ID: 7, Position: NewVec2(100, 100), Radius: 24},
		{ID: 8, Position: NewVec2(105, 100), Radius: 24},
	}
	b := &Ball{ID: 1, Position: NewVec2(103, 100), Radius: 10, Alive: true}

	if p := checkPocket(b, pockets, &tuning); p == nil || p.ID != 7 {
		t.Fatalf("expected first pocket to win, got %+v", p)
	}
}

func TestKeepConstantSpeed(t *testing.T) {
	tuning := DefaultTuning()
	balls := []*Ball{
		{ID: 0, Velocity: NewVec2(6, 8), Alive: true},
		{ID: 1, Velocity: NewVec2(0.01, 0), Alive: true},
		{ID: 2, Velocity: NewVec2(1, 1), Alive: false},
	}

	keepConstantSpeed(balls, &tuning, testRand())

	if !near(balls[0].Velocity.X, 2.1) || !near(balls[0].Velocity.Y, 2.8) {
		t.Errorf("direction not preserved: %+v", balls[0].Velocity)
	}
	if !near(balls[1].Speed(), tuning.TargetSpeed) {
		t.Errorf("stopped ball speed = %.4f, want %.1f", balls[1].Speed(), tuning.TargetSpeed)
	}
	if balls[2].Velocity != NewVec2(1, 1) {
		t.Error("captured ball must be left alone")
	}
}

func TestConstantSpeedIsSeeded(t *testing.T) {
	tuning := DefaultTuning()
	run := func() Vec2 {
		balls := []*Ball{{ID: 1, Alive: true}}
		keepConstantSpeed(balls, &tuning, testRand())
		return balls[0].Velocity
	}
	if a, b := run(), run(); a != b {
		t.Errorf("same seed gave different headings: %+v vs %+v", a, b)
	}
}

func TestApplyDecay(t *testing.T) {
	tuning := DefaultTuning()
	balls := []*Ball{
		{ID: 0, Velocity: NewVec2(24, 0), Alive: true},
		{ID: 1, Velocity: NewVec2(2, 0), Alive: true},
		{ID: 2, Velocity: NewVec2(0.04, 0), Alive: true},
	}

	applyDecay(balls, &tuning)

	if !near(balls[0].Speed(), tuning.MaxSpeed) {
		t.Errorf("fast ball not clamped: %.3f", balls[0].Speed())
	}
	if !near(balls[1].Velocity.X, 2*tuning.DecayFactor) {
		t.Errorf("decay = %.4f, want %.4f", balls[1].Velocity.X, 2*tuning.DecayFactor)
	}
	if !balls[2].Velocity.IsZero() {
		t.Errorf("slow ball should stop, got %+v", balls[2].Velocity)
	}
}

func TestNudgeIfStalled(t *testing.T) {
	tuning := DefaultTuning()
	still := func() []*Ball {
		return []*Ball{
			{ID: 0, Alive: true, IsCue: true},
			{ID: 1, Alive: true},
			{ID: 2, Alive: true, Velocity: NewVec2(0.02, 0)},
		}
	}

	if n := nudgeIfStalled(still(), tuning.EndThreshold, &tuning, testRand()); n != 0 {
		t.Errorf("nudged %d balls at the end threshold", n)
	}

	moving := still()
	moving[1].Velocity = NewVec2(1, 0)
	if n := nudgeIfStalled(moving, tuning.EndThreshold+1, &tuning, testRand()); n != 0 {
		t.Errorf("nudged %d balls while the table was moving", n)
	}

	balls := still()
	if n := nudgeIfStalled(balls, tuning.EndThreshold+1, &tuning, testRand()); n != 3 {
		t.Fatalf("expected 3 nudged balls, got %d", n)
	}
	lo := tuning.Nudge*0.7 - 0.02
	hi := tuning.Nudge*(0.7+tuning.NudgeSpread) + 0.02
	for _, b := range balls {
		if s := b.Speed(); s < lo || s > hi {
			t.Errorf("ball %d nudged to %.4f, want within [%.3f, %.3f]", b.ID, s, lo, hi)
		}
	}

	again := still()
	nudgeIfStalled(again, tuning.EndThreshold+1, &tuning, testRand())
	for i := range balls {
		if balls[i].Velocity != again[i].Velocity {
			t.Errorf("ball %d: nudge not reproducible with a fixed seed", i)
		}
	}
}
