package game

import "math"

// RandSource is the slice of *rand.Rand the regulator needs.
type RandSource interface {
	Float64() float64
}

func randomAngle(rng RandSource) float64 {
	return rng.Float64() * 2 * math.Pi
}

// keepConstantSpeed renormalises every alive ball to the target speed.
// A ball that is practically stopped gets a fresh random heading instead.
func keepConstantSpeed(balls []*Ball, t *Tuning, rng RandSource) {
	for _, b := range balls {
		if !b.Alive {
			continue
		}

		s := b.Speed()
		if s < t.ZeroCutoff {
			b.Velocity = FromAngle(randomAngle(rng), t.TargetSpeed)
			continue
		}
		b.Velocity = b.Velocity.Times(t.TargetSpeed / s)
	}
}

// applyDecay is the natural-decay policy used when constant speed is off.
func applyDecay(balls []*Ball, t *Tuning) {
	for _, b := range balls {
		if !b.Alive {
			continue
		}
		b.Velocity = b.Velocity.Times(t.DecayFactor)
		if b.Speed() < t.ZeroCutoff {
			b.Velocity = Vec2{}
			continue
		}
		b.clampSpeed(t.MaxSpeed)
	}
}

// allNearlyStopped reports whether no alive ball is faster than the minimum speed.
func allNearlyStopped(balls []*Ball, minSpeed float64) bool {
	for _, b := range balls {
		if b.Alive && b.Speed() > minSpeed {
			return false
		}
	}
	return true
}

// nudgeIfStalled kicks slow balls in random directions once the whole table
// has gone quiet while the round is still undecided. Returns the number of
// balls nudged.
func nudgeIfStalled(balls []*Ball, aliveNumbered int, t *Tuning, rng RandSource) int {
	if aliveNumbered <= t.EndThreshold {
		return 0
	}
	if !allNearlyStopped(balls, t.MinSpeed) {
		return 0
	}

	nudged := 0
	for _, b := range balls {
		if !b.Alive || b.Speed() >= t.WakeSpeed {
			continue
		}
		ang := randomAngle(rng)
		kx := t.Nudge * (0.7 + rng.Float64()*t.NudgeSpread)
		ky := t.Nudge * (0.7 + rng.Float64()*t.NudgeSpread)
		b.Velocity = b.Velocity.Plus(NewVec2(math.Cos(ang)*kx, math.Sin(ang)*ky))
		b.clampSpeed(t.MaxSpeed)
		nudged++
	}
	return nudged
}
