package hitster

import (
	"sort"
	"sync"
	"time"

	"partygames/internal/game"
)

// Mode controls where the preview audio plays; it has no effect on the
// rules and is echoed back to clients as stored.
type Mode string

const (
	// ModeRemote plays the preview for everyone.
	ModeRemote Mode = "remote"
	// ModeGroup plays it only for the active player's device.
	ModeGroup Mode = "group"
)

// TurnPhase is the per-turn state machine. A correct placement routes
// through bonus; an incorrect one jumps straight to result.
type TurnPhase string

const (
	PhaseListening TurnPhase = "listening"
	PhasePlacing   TurnPhase = "placing"
	PhaseBonus     TurnPhase = "bonus"
	PhaseResult    TurnPhase = "result"
)

const (
	maxPlayers        = 8
	defaultCardsToWin = 6
	minDeckSongs      = 30
)

// Room is the aggregate for one timeline-game session.
type Room struct {
	ID     string
	Name   string
	Code   string
	HostID string
	Status game.Status
	Mode   Mode

	CardsToWin    int
	TurnTimeLimit int // seconds, 0 = unlimited

	DeckIDs []string
	// DeckCards is the shuffled draw pile of song ids, consumed one
	// per turn via CurrentCardIndex.
	DeckCards        []string
	CurrentCardIndex int

	// PlayerOrder freezes the rotation at game start.
	PlayerOrder        []string // user ids
	CurrentPlayerIndex int

	Players map[string]*Player // by user id
	Turns   []*Turn

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// Player is one user's membership, including their growing timeline.
type Player struct {
	ID          string
	UserID      string
	Name        string
	AvatarURL   string
	IsHost      bool
	IsConnected bool
	Score       int
	Timeline    []TimelineCard
	JoinedAt    time.Time
	LastSeenAt  time.Time
}

// TimelineCard is one placed song, kept in non-decreasing year order.
type TimelineCard struct {
	SongID    string `json:"songId"`
	Year      int    `json:"year"`
	IsInitial bool   `json:"isInitial,omitempty"`
}

// Turn is one unit of play. The latest turn is always the current one
// for a playing room.
type Turn struct {
	UserID string
	SongID string
	Phase  TurnPhase

	PlacedAtIndex int // -1 until the card is placed
	IsCorrect     bool

	ArtistGuess   string
	SongGuess     string
	ArtistCorrect bool
	SongCorrect   bool

	PointsEarned   int
	StartedAt      time.Time
	PhaseStartedAt time.Time
}

// Placed reports whether the card has been committed to the timeline
// attempt, correct or not.
func (t *Turn) Placed() bool { return t.PlacedAtIndex >= 0 }

func (r *Room) currentTurn() *Turn {
	if len(r.Turns) == 0 {
		return nil
	}
	return r.Turns[len(r.Turns)-1]
}

func (r *Room) connectedPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsConnected {
			out = append(out, p)
		}
	}
	sortPlayersByJoin(out)
	return out
}

func (r *Room) allPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sortPlayersByJoin(out)
	return out
}

func sortPlayersByJoin(players []*Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
}
