package game

// reflectWalls pushes a ball whose edge crossed a bound back inside and
// reverses that velocity component. Axes are handled independently so a
// corner hit bounces on both. Reports whether any bounce happened.
func reflectWalls(b *Ball, bounds Bounds, restitution float64) bool {
	hit := false

	if b.Position.X-b.Radius < bounds.X0 {
		b.Position.X = bounds.X0 + b.Radius
		b.Velocity.X = -b.Velocity.X * restitution
		hit = true
	} else if b.Position.X+b.Radius > bounds.X1 {
		b.Position.X = bounds.X1 - b.Radius
		b.Velocity.X = -b.Velocity.X * restitution
		hit = true
	}

	if b.Position.Y-b.Radius < bounds.Y0 {
		b.Position.Y = bounds.Y0 + b.Radius
		b.Velocity.Y = -b.Velocity.Y * restitution
		hit = true
	} else if b.Position.Y+b.Radius > bounds.Y1 {
		b.Position.Y = bounds.Y1 - b.Radius
		b.Velocity.Y = -b.Velocity.Y * restitution
		hit = true
	}

	return hit
}

// contain clamps the position only. Used after de-overlap pushes, which can
// move a ball resting on a cushion past it without any velocity change.
func contain(b *Ball, bounds Bounds) {
	if b.Position.X-b.Radius < bounds.X0 {
		b.Position.X = bounds.X0 + b.Radius
	} else if b.Position.X+b.Radius > bounds.X1 {
		b.Position.X = bounds.X1 - b.Radius
	}
	if b.Position.Y-b.Radius < bounds.Y0 {
		b.Position.Y = bounds.Y0 + b.Radius
	} else if b.Position.Y+b.Radius > bounds.Y1 {
		b.Position.Y = bounds.Y1 - b.Radius
	}
}

// containPair clamps a freshly separated pair. When the push moved one ball
// into a cushion, the correction is handed on to its partner so the gap
// between them survives the clamp.
func containPair(a, b *Ball, bounds Bounds) {
	beforeA, beforeB := a.Position, b.Position
	contain(a, bounds)
	contain(b, bounds)
	shiftA := a.Position.Minus(beforeA)
	shiftB := b.Position.Minus(beforeB)
	if shiftA.IsZero() && shiftB.IsZero() {
		return
	}
	a.Position = a.Position.Plus(shiftB)
	b.Position = b.Position.Plus(shiftA)
	contain(a, bounds)
	contain(b, bounds)
}
