package admin

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pocketrush/internal/config"
	"github.com/playmatatu/pocketrush/internal/game"
	"github.com/playmatatu/pocketrush/internal/models"
)

type tuningSetter func(t *game.Tuning, value string) error

func floatField(field func(*game.Tuning) *float64) tuningSetter {
	return func(t *game.Tuning, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
		*field(t) = v
		return nil
	}
}

func intField(field func(*game.Tuning) *int) tuningSetter {
	return func(t *game.Tuning, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		*field(t) = v
		return nil
	}
}

func boolField(field func(*game.Tuning) *bool) tuningSetter {
	return func(t *game.Tuning, value string) error {
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
		*field(t) = value == "true"
		return nil
	}
}

// tuningKeys maps runtime_config keys onto table tuning fields.
var tuningKeys = map[string]tuningSetter{
	"table_width":      floatField(func(t *game.Tuning) *float64 { return &t.TableWidth }),
	"table_height":     floatField(func(t *game.Tuning) *float64 { return &t.TableHeight }),
	"ball_radius":      floatField(func(t *game.Tuning) *float64 { return &t.BallRadius }),
	"n_balls":          intField(func(t *game.Tuning) *int { return &t.NumBalls }),
	"pocket_capture":   floatField(func(t *game.Tuning) *float64 { return &t.PocketCaptureFactor }),
	"suck_range":       floatField(func(t *game.Tuning) *float64 { return &t.SuckRange }),
	"suck_strength":    floatField(func(t *game.Tuning) *float64 { return &t.SuckStrength }),
	"restitution":      floatField(func(t *game.Tuning) *float64 { return &t.WallRestitution }),
	"ball_restitution": floatField(func(t *game.Tuning) *float64 { return &t.BallRestitution }),
	"max_speed":        floatField(func(t *game.Tuning) *float64 { return &t.MaxSpeed }),
	"strike_speed":     floatField(func(t *game.Tuning) *float64 { return &t.StrikeSpeed }),
	"constant_speed":   boolField(func(t *game.Tuning) *bool { return &t.ConstantSpeed }),
	"target_speed":     floatField(func(t *game.Tuning) *float64 { return &t.TargetSpeed }),
	"zero_cutoff":      floatField(func(t *game.Tuning) *float64 { return &t.ZeroCutoff }),
	"decay_factor":     floatField(func(t *game.Tuning) *float64 { return &t.DecayFactor }),
	"auto_keep_moving": boolField(func(t *game.Tuning) *bool { return &t.KeepMoving }),
	"min_speed":        floatField(func(t *game.Tuning) *float64 { return &t.MinSpeed }),
	"wake_speed":       floatField(func(t *game.Tuning) *float64 { return &t.WakeSpeed }),
	"nudge":            floatField(func(t *game.Tuning) *float64 { return &t.Nudge }),
	"nudge_spread":     floatField(func(t *game.Tuning) *float64 { return &t.NudgeSpread }),
	"end_threshold":    intField(func(t *game.Tuning) *int { return &t.EndThreshold }),
	"max_dt_ratio":     floatField(func(t *game.Tuning) *float64 { return &t.MaxDtRatio }),
}

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	var configs []models.RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuntimeValue checks a value against its declared type and, for tuning
// keys, that the resulting tuning is still playable.
func ValidateRuntimeValue(current game.Tuning, key, valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}

	set, ok := tuningKeys[key]
	if !ok {
		return nil
	}
	if err := set(&current, value); err != nil {
		return err
	}
	return current.Validate()
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, cfg *config.Config, key, value, adminPhone string) error {
	// Get existing config to validate type
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}

	if err := ValidateRuntimeValue(cfg.Tuning(), key, existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminPhone, key)
	return err
}

// ApplyOverrides applies runtime config entries on top of base. Entries that fail
// to parse are skipped; the override count is returned alongside.
func ApplyOverrides(base game.Tuning, entries []models.RuntimeConfig) (game.Tuning, int) {
	applied := 0
	for _, c := range entries {
		set, ok := tuningKeys[c.Key]
		if !ok {
			continue
		}
		if err := set(&base, c.Value); err != nil {
			log.Printf("[CONFIG] Skipping runtime config %s: %v", c.Key, err)
			continue
		}
		applied++
	}
	return base, applied
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	tuning, applied := ApplyOverrides(cfg.Tuning(), configs)
	if err := tuning.Validate(); err != nil {
		return fmt.Errorf("runtime config rejected: %w", err)
	}
	cfg.SetTuning(tuning)

	for _, c := range configs {
		switch c.Key {
		case "table_idle_minutes":
			if v, err := strconv.Atoi(c.Value); err == nil {
				cfg.TableIdleMinutes = v
				applied++
			}
		case "table_tick_ms":
			if v, err := strconv.ParseFloat(c.Value, 64); err == nil && v > 0 {
				tuning.FrameInterval = time.Duration(v * float64(time.Millisecond))
				cfg.SetTuning(tuning)
				applied++
			}
		}
	}

	log.Printf("[CONFIG] Applied %d runtime config overrides from database", applied)
	return nil
}
