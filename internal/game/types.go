package game

import "time"

// Status is the lifecycle state of a room. Transitions only move
// forward (waiting -> playing -> finished) except for the host's
// explicit play-again reset back to waiting.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Identity is the stable user identity handed to every operation by
// the auth layer. How it is produced is not the games' concern.
type Identity struct {
	ID        string
	Name      string
	AvatarURL string
}

// TTLs applied by the periodic idle sweep.
const (
	WaitingRoomTTL   = time.Hour
	FinishedRoomTTL  = 24 * time.Hour
	HeartbeatTimeout = 30 * time.Minute
	SweepInterval    = 15 * time.Minute
)
