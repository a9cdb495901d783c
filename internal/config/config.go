package config

import (
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/playmatatu/pocketrush/internal/game"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; enables runtime tuning overrides and admin)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (optional; enables snapshot cache and pocket event fan-out)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Tables
	TableIdleMinutes     int
	ExpiryCheckSeconds   int
	SnapshotTTLSeconds   int
	StrikeTimeoutSeconds int

	// Security
	JWTSecret         string
	ControlTokenHours int
	AdminSessionHours int

	tuningMu sync.RWMutex
	tuning   game.Tuning
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Tables
		TableIdleMinutes:     getEnvInt("TABLE_IDLE_MINUTES", 30),
		ExpiryCheckSeconds:   getEnvInt("EXPIRY_CHECK_SECONDS", 30),
		SnapshotTTLSeconds:   getEnvInt("SNAPSHOT_TTL_SECONDS", 600),
		StrikeTimeoutSeconds: getEnvInt("STRIKE_TIMEOUT_SECONDS", 2),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		ControlTokenHours: getEnvInt("CONTROL_TOKEN_HOURS", 12),
		AdminSessionHours: getEnvInt("ADMIN_SESSION_HOURS", 4),
	}
	cfg.tuning = loadTuning()
	return cfg
}

// loadTuning reads physics overrides from the environment on top of the reference table.
func loadTuning() game.Tuning {
	t := game.DefaultTuning()

	t.TableWidth = getEnvFloat("TABLE_WIDTH", t.TableWidth)
	t.TableHeight = getEnvFloat("TABLE_HEIGHT", t.TableHeight)
	t.Inset = getEnvFloat("TABLE_INSET", t.Inset)
	t.Cushion = getEnvFloat("TABLE_CUSHION", t.Cushion)

	t.BallRadius = getEnvFloat("BALL_RADIUS", t.BallRadius)
	t.NumBalls = getEnvInt("N_BALLS", t.NumBalls)
	t.RackColumns = getEnvInt("RACK_COLUMNS", t.RackColumns)

	t.PocketCaptureFactor = getEnvFloat("POCKET_CAPTURE", t.PocketCaptureFactor)
	t.SuckRange = getEnvFloat("POCKET_SUCK_RANGE", t.SuckRange)
	t.SuckStrength = getEnvFloat("POCKET_SUCK_STRENGTH", t.SuckStrength)

	t.WallRestitution = getEnvFloat("RESTITUTION", t.WallRestitution)
	t.BallRestitution = getEnvFloat("BALL_RESTITUTION", t.BallRestitution)
	t.MaxSpeed = getEnvFloat("MAX_SPEED", t.MaxSpeed)
	t.StrikeSpeed = getEnvFloat("STRIKE_SPEED", t.StrikeSpeed)

	t.ConstantSpeed = getEnvBool("CONSTANT_SPEED", t.ConstantSpeed)
	t.TargetSpeed = getEnvFloat("TARGET_SPEED", t.TargetSpeed)
	t.ZeroCutoff = getEnvFloat("ZERO_CUTOFF", t.ZeroCutoff)
	t.DecayFactor = getEnvFloat("DECAY_FACTOR", t.DecayFactor)

	t.KeepMoving = getEnvBool("AUTO_KEEP_MOVING", t.KeepMoving)
	t.MinSpeed = getEnvFloat("MIN_SPEED", t.MinSpeed)
	t.WakeSpeed = getEnvFloat("WAKE_SPEED", t.WakeSpeed)
	t.Nudge = getEnvFloat("NUDGE", t.Nudge)
	t.NudgeSpread = getEnvFloat("NUDGE_SPREAD", t.NudgeSpread)

	t.EndThreshold = getEnvInt("END_THRESHOLD", t.EndThreshold)
	t.MaxDtRatio = getEnvFloat("MAX_DT_RATIO", t.MaxDtRatio)
	if ms := getEnvFloat("TABLE_TICK_MS", 0); ms > 0 {
		t.FrameInterval = time.Duration(ms * float64(time.Millisecond))
	}
	return t
}

// Tuning returns the physics tuning used for new tables.
func (c *Config) Tuning() game.Tuning {
	c.tuningMu.RLock()
	defer c.tuningMu.RUnlock()
	return c.tuning
}

// SetTuning replaces the tuning for tables created from now on.
func (c *Config) SetTuning(t game.Tuning) {
	c.tuningMu.Lock()
	defer c.tuningMu.Unlock()
	c.tuning = t
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
