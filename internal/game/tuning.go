package game

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTuning is returned when a Tuning cannot describe a playable table.
var ErrInvalidTuning = errors.New("invalid tuning")

// Tuning holds every numeric policy of a table. Values are fixed for the
// lifetime of a Simulation; runtime overrides only affect new tables.
type Tuning struct {
	TableWidth  float64 `json:"table_width"`
	TableHeight float64 `json:"table_height"`
	Inset       float64 `json:"inset"`
	Cushion     float64 `json:"cushion"`

	BallRadius  float64 `json:"ball_radius"`
	NumBalls    int     `json:"num_balls"`
	RackColumns int     `json:"rack_columns"`
	RackSpacing float64 `json:"rack_spacing"`

	PocketRadiusFactor  float64 `json:"pocket_radius_factor"`
	PocketCaptureFactor float64 `json:"pocket_capture_factor"`
	SuckRange           float64 `json:"suck_range"`
	SuckStrength        float64 `json:"suck_strength"`

	WallRestitution float64 `json:"wall_restitution"`
	BallRestitution float64 `json:"ball_restitution"`
	MaxSpeed        float64 `json:"max_speed"`
	StrikeSpeed     float64 `json:"strike_speed"`

	ConstantSpeed bool    `json:"constant_speed"`
	TargetSpeed   float64 `json:"target_speed"`
	ZeroCutoff    float64 `json:"zero_cutoff"`
	DecayFactor   float64 `json:"decay_factor"`

	KeepMoving  bool    `json:"keep_moving"`
	MinSpeed    float64 `json:"min_speed"`
	WakeSpeed   float64 `json:"wake_speed"`
	Nudge       float64 `json:"nudge"`
	NudgeSpread float64 `json:"nudge_spread"`

	EndThreshold  int           `json:"end_threshold"`
	MaxDtRatio    float64       `json:"max_dt_ratio"`
	FrameInterval time.Duration `json:"frame_interval"`
}

// DefaultTuning returns the reference table.
func DefaultTuning() Tuning {
	return Tuning{
		TableWidth:  DefaultTableWidth,
		TableHeight: DefaultTableHeight,
		Inset:       TableInset,
		Cushion:     TableCushion,

		BallRadius:  DefaultBallRadius,
		NumBalls:    DefaultNumBalls,
		RackColumns: RackColumns,
		RackSpacing: RackSpacing,

		PocketRadiusFactor:  PocketRadiusFactor,
		PocketCaptureFactor: PocketCaptureFactor,
		SuckRange:           PocketSuckRange,
		SuckStrength:        PocketSuckStrength,

		WallRestitution: WallRestitution,
		BallRestitution: BallRestitution,
		MaxSpeed:        MaxSpeed,
		StrikeSpeed:     StrikeSpeed,

		ConstantSpeed: true,
		TargetSpeed:   TargetSpeed,
		ZeroCutoff:    ZeroCutoff,
		DecayFactor:   DecayFactor,

		KeepMoving:  true,
		MinSpeed:    MinSpeed,
		WakeSpeed:   WakeSpeed,
		Nudge:       Nudge,
		NudgeSpread: NudgeSpread,

		EndThreshold:  EndThreshold,
		MaxDtRatio:    MaxDtRatio,
		FrameInterval: FrameInterval,
	}
}

// Validate rejects configurations the stepper cannot run safely.
func (t Tuning) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"table width", t.TableWidth}, {"table height", t.TableHeight},
		{"inset", t.Inset}, {"cushion", t.Cushion},
		{"ball radius", t.BallRadius}, {"rack spacing", t.RackSpacing},
		{"pocket radius factor", t.PocketRadiusFactor}, {"pocket capture factor", t.PocketCaptureFactor},
		{"suck range", t.SuckRange}, {"suck strength", t.SuckStrength},
		{"wall restitution", t.WallRestitution}, {"ball restitution", t.BallRestitution},
		{"max speed", t.MaxSpeed}, {"strike speed", t.StrikeSpeed},
		{"target speed", t.TargetSpeed}, {"zero cutoff", t.ZeroCutoff},
		{"decay factor", t.DecayFactor}, {"min speed", t.MinSpeed},
		{"wake speed", t.WakeSpeed}, {"nudge", t.Nudge},
		{"nudge spread", t.NudgeSpread}, {"max dt ratio", t.MaxDtRatio},
	}
	// NaN slips past every range comparison below.
	for _, f := range fields {
		if !isFinite(f.v) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidTuning, f.name, f.v)
		}
	}

	switch {
	case t.BallRadius <= 0:
		return fmt.Errorf("%w: ball radius must be positive, got %v", ErrInvalidTuning, t.BallRadius)
	case t.NumBalls < 1:
		return fmt.Errorf("%w: need at least one numbered ball, got %d", ErrInvalidTuning, t.NumBalls)
	case t.RackColumns < 1:
		return fmt.Errorf("%w: rack columns must be positive, got %d", ErrInvalidTuning, t.RackColumns)
	case t.RackSpacing < 0 || t.Inset < 0 || t.Cushion < 0:
		return fmt.Errorf("%w: spacing, inset and cushion must not be negative", ErrInvalidTuning)
	case t.PocketRadiusFactor <= 0 || t.PocketCaptureFactor < 0:
		return fmt.Errorf("%w: pocket factors out of range", ErrInvalidTuning)
	case t.SuckRange < 0 || t.SuckStrength < 0:
		return fmt.Errorf("%w: suction must not be negative", ErrInvalidTuning)
	case t.WallRestitution < 0 || t.WallRestitution > 1:
		return fmt.Errorf("%w: wall restitution must be in [0,1], got %v", ErrInvalidTuning, t.WallRestitution)
	case t.BallRestitution < 0 || t.BallRestitution > 1:
		return fmt.Errorf("%w: ball restitution must be in [0,1], got %v", ErrInvalidTuning, t.BallRestitution)
	case t.MaxSpeed <= 0:
		return fmt.Errorf("%w: max speed must be positive, got %v", ErrInvalidTuning, t.MaxSpeed)
	case t.StrikeSpeed < 0:
		return fmt.Errorf("%w: strike speed must not be negative", ErrInvalidTuning)
	case t.ConstantSpeed && (t.TargetSpeed <= 0 || t.TargetSpeed > t.MaxSpeed):
		return fmt.Errorf("%w: target speed must be in (0, max speed], got %v", ErrInvalidTuning, t.TargetSpeed)
	case t.ZeroCutoff < 0:
		return fmt.Errorf("%w: zero cutoff must not be negative", ErrInvalidTuning)
	case t.DecayFactor <= 0 || t.DecayFactor > 1:
		return fmt.Errorf("%w: decay factor must be in (0,1], got %v", ErrInvalidTuning, t.DecayFactor)
	case t.MinSpeed < 0 || t.WakeSpeed < 0 || t.Nudge < 0 || t.NudgeSpread < 0:
		return fmt.Errorf("%w: nudge settings must not be negative", ErrInvalidTuning)
	case t.EndThreshold < 0:
		return fmt.Errorf("%w: end threshold must not be negative", ErrInvalidTuning)
	case t.NumBalls <= t.EndThreshold:
		return fmt.Errorf("%w: %d balls would end the round before the break (threshold %d)", ErrInvalidTuning, t.NumBalls, t.EndThreshold)
	case t.MaxDtRatio <= 0:
		return fmt.Errorf("%w: max dt ratio must be positive", ErrInvalidTuning)
	case t.FrameInterval <= 0:
		return fmt.Errorf("%w: frame interval must be positive", ErrInvalidTuning)
	}

	table := NewTable(t)
	if table.Bounds.X1-table.Bounds.X0 < 2*t.BallRadius || table.Bounds.Y1-table.Bounds.Y0 < 2*t.BallRadius {
		return fmt.Errorf("%w: playfield %.0fx%.0f too small for ball radius %v", ErrInvalidTuning, t.TableWidth, t.TableHeight, t.BallRadius)
	}
	for _, p := range rackPositions(t, table.Bounds) {
		if !table.Bounds.Contains(p, t.BallRadius) {
			return fmt.Errorf("%w: %d balls do not fit the rack", ErrInvalidTuning, t.NumBalls)
		}
	}
	return nil
}
