package game

// CueBallID is the identity of the single player-controlled ball.
const CueBallID = 0

// Ball represents a single disc on the table.
type Ball struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"r"`
	Alive    bool    `json:"alive"`
	IsCue    bool    `json:"is_cue"`
}

// Speed returns the velocity magnitude.
func (b *Ball) Speed() float64 {
	return b.Velocity.Magnitude()
}

// clampSpeed scales the velocity down to max while keeping its direction.
func (b *Ball) clampSpeed(max float64) {
	s := b.Speed()
	if s > max {
		b.Velocity = b.Velocity.Times(max / s)
	}
}

// ColorBand groups numbered balls for renderers.
type ColorBand string

const (
	BandCue    ColorBand = "CUE"
	BandBlue   ColorBand = "BLUE"
	BandGreen  ColorBand = "GREEN"
	BandOrange ColorBand = "ORANGE"
	BandRed    ColorBand = "RED"
)

// BandFor returns the colour band of a ball id.
func BandFor(id int) ColorBand {
	switch {
	case id == CueBallID:
		return BandCue
	case id <= 10:
		return BandBlue
	case id <= 20:
		return BandGreen
	case id <= 30:
		return BandOrange
	default:
		return BandRed
	}
}

// newBallStore builds a fresh rack: the cue ball first, then balls 1..N.
func newBallStore(t Tuning, b Bounds) []*Ball {
	balls := make([]*Ball, 0, t.NumBalls+1)
	balls = append(balls, &Ball{
		ID:       CueBallID,
		Position: cuePosition(b),
		Radius:   t.BallRadius,
		Alive:    true,
		IsCue:    true,
	})
	for i, p := range rackPositions(t, b) {
		balls = append(balls, &Ball{
			ID:       i + 1,
			Position: p,
			Radius:   t.BallRadius,
			Alive:    true,
		})
	}
	return balls
}
