package game

// pocketSuckEpsilon keeps the pull direction defined right at a pocket centre.
const pocketSuckEpsilon = 0.001

// checkPocket applies suction from every pocket in range and captures the
// ball on the first pocket whose capture radius it is inside. Suction from
// pockets earlier in the list is still applied on the capturing call, which
// is harmless since the velocity is zeroed on capture.
// Returns the capturing pocket, or nil.
func checkPocket(b *Ball, pockets []Pocket, t *Tuning) *Pocket {
	if !b.Alive {
		return nil
	}

	for i := range pockets {
		p := &pockets[i]
		delta := p.Position.Minus(b.Position)
		d := delta.Magnitude()

		if d < t.SuckRange && d > pocketSuckEpsilon {
			n := delta.Times(1 / d)
			closeness := 1 - d/t.SuckRange
			pull := t.SuckStrength * (0.4 + 0.6*closeness)
			b.Velocity = b.Velocity.Plus(n.Times(pull))
		}

		if d < p.Radius+b.Radius*t.PocketCaptureFactor {
			b.Alive = false
			b.Velocity = Vec2{}
			return p
		}
	}
	return nil
}
