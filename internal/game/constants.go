package game

import "time"

// Reference tuning for the constant-speed table.
// Distances are table units (pixels on the reference 1000x560 canvas),
// velocities are units per nominal frame.
const (
	DefaultTableWidth  = 1000.0
	DefaultTableHeight = 560.0
	TableInset         = 28.0
	TableCushion       = 10.0

	DefaultBallRadius   = 10.0
	DefaultNumBalls     = 36
	RackColumns         = 7
	RackSpacing         = 6.0 // gap between neighbouring rack balls
	PocketRadiusFactor  = 2.4
	PocketCaptureFactor = 1.25
	PocketSuckRange     = 70.0
	PocketSuckStrength  = 0.14

	WallRestitution = 0.98
	BallRestitution = 0.98
	MaxSpeed        = 14.0
	StrikeSpeed     = 24.0 // cue speed at power 100

	TargetSpeed = 3.5
	ZeroCutoff  = 0.05
	DecayFactor = 0.985

	MinSpeed    = 0.03
	WakeSpeed   = 0.12
	Nudge       = 0.35
	NudgeSpread = 0.6

	EndThreshold = 6
	MaxDtRatio   = 2.0

	FrameInterval = 16670 * time.Microsecond
)
