package game

import "math"

// Bounds is the playable inner rectangle of the table.
type Bounds struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Contains reports whether a disc of radius r centred at p lies inside the bounds.
func (b Bounds) Contains(p Vec2, r float64) bool {
	return p.X-r >= b.X0 && p.X+r <= b.X1 && p.Y-r >= b.Y0 && p.Y+r <= b.Y1
}

// Pocket represents one of the 6 pockets on the table.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Radius   float64 `json:"r"`
}

// Table holds the complete table geometry. It is never mutated after NewTable.
type Table struct {
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Bounds  Bounds   `json:"bounds"`
	Pockets []Pocket `json:"pockets"`
}

// PocketRadius derives the pocket size from the ball size.
func PocketRadius(ballRadius, factor float64) float64 {
	return math.Round(ballRadius * factor)
}

// NewTable derives bounds and pockets from the configured table size.
// Pockets sit on the felt edge: four corners, then the top and bottom midpoints.
func NewTable(t Tuning) *Table {
	w, h := t.TableWidth, t.TableHeight
	margin := t.Inset + t.Cushion
	pr := PocketRadius(t.BallRadius, t.PocketRadiusFactor)
	in := t.Inset

	pockets := []Pocket{
		{ID: 0, Position: NewVec2(in, in), Radius: pr},
		{ID: 1, Position: NewVec2(w/2, in), Radius: pr},
		{ID: 2, Position: NewVec2(w-in, in), Radius: pr},
		{ID: 3, Position: NewVec2(in, h-in), Radius: pr},
		{ID: 4, Position: NewVec2(w/2, h-in), Radius: pr},
		{ID: 5, Position: NewVec2(w-in, h-in), Radius: pr},
	}

	return &Table{
		Width:  w,
		Height: h,
		Bounds: Bounds{
			X0: margin,
			Y0: margin,
			X1: w - margin,
			Y1: h - margin,
		},
		Pockets: pockets,
	}
}

// rackPositions lays the numbered balls out in a packed grid in the right
// half of the table, row by row. Index 0 is ball 1.
func rackPositions(t Tuning, b Bounds) []Vec2 {
	gap := t.BallRadius*2 + t.RackSpacing
	startX := b.X0 + (b.X1-b.X0)*0.60
	startY := b.Y0 + 40

	pos := make([]Vec2, t.NumBalls)
	for i := range pos {
		row := i / t.RackColumns
		col := i % t.RackColumns
		pos[i] = NewVec2(startX+float64(col)*gap, startY+float64(row)*gap)
	}
	return pos
}

// cuePosition places the cue ball a quarter of the way in, vertically centred.
func cuePosition(b Bounds) Vec2 {
	return NewVec2(b.X0+(b.X1-b.X0)*0.25, (b.Y0+b.Y1)/2)
}
