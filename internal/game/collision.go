package game

// resolveBallBall separates an overlapping pair and, when they are closing,
// exchanges an equal-mass elastic impulse along the centre line.
// Returns true when an impulse was applied.
//
// Pairs are resolved one at a time in index order, so a ball touching two
// others in the same tick sees the first contact before the second.
func resolveBallBall(a, b *Ball, restitution, maxSpeed float64) bool {
	if !a.Alive || !b.Alive || a == b {
		return false
	}

	delta := b.Position.Minus(a.Position)
	dist := delta.Magnitude()
	minDist := a.Radius + b.Radius

	// Coincident centres have no defined normal.
	if dist == 0 || dist >= minDist {
		return false
	}

	n := delta.Times(1 / dist)
	overlap := minDist - dist
	push := n.Times(overlap * 0.5)
	a.Position = a.Position.Minus(push)
	b.Position = b.Position.Plus(push)

	velAlongNormal := b.Velocity.Minus(a.Velocity).Dot(n)
	if velAlongNormal >= 0 {
		return false
	}

	j := -(1 + restitution) * velAlongNormal / 2
	impulse := n.Times(j)
	a.Velocity = a.Velocity.Minus(impulse)
	b.Velocity = b.Velocity.Plus(impulse)

	a.clampSpeed(maxSpeed)
	b.clampSpeed(maxSpeed)
	return true
}

func overlapping(a, b *Ball) bool {
	if !a.Alive || !b.Alive || a == b {
		return false
	}
	return b.Position.Minus(a.Position).Magnitude() < a.Radius+b.Radius
}

// resolvePairs runs the O(n²) pair scan. Fine at a few dozen balls; a spatial
// partition would have to keep the same pair order to preserve behaviour.
// Each separated pair is kept on the cloth before the next pair is looked at.
func resolvePairs(balls []*Ball, bounds Bounds, restitution, maxSpeed float64) int {
	hits := 0
	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			a, b := balls[i], balls[j]
			if !overlapping(a, b) {
				continue
			}
			if resolveBallBall(a, b, restitution, maxSpeed) {
				hits++
			}
			containPair(a, b, bounds)
		}
	}
	return hits
}
