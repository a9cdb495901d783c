package game

// RoundStatus represents where a table is in its round lifecycle.
type RoundStatus string

const (
	StatusIdle    RoundStatus = "IDLE"
	StatusRunning RoundStatus = "RUNNING"
	StatusEnded   RoundStatus = "ENDED"
)
