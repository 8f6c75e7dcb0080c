package wavelength

import (
	"sort"
	"sync"
	"time"

	"partygames/internal/catalog"
	"partygames/internal/game"
)

// Mode selects how psychic duty rotates and how scores are read.
type Mode string

const (
	// ModeIndividual is everyone-for-themselves; the psychic role
	// walks a fixed order captured at game start.
	ModeIndividual Mode = "individual"
	// ModeTeams splits players into two teams; the psychic alternates
	// between teams each round.
	ModeTeams Mode = "teams"
)

// RoundPhase is the per-round state machine.
type RoundPhase string

const (
	PhasePsychicTurn RoundPhase = "psychic_turn"
	PhaseGuessing    RoundPhase = "guessing"
	PhaseResults     RoundPhase = "results"
	PhaseCompleted   RoundPhase = "completed"
)

const maxPlayers = 12

const defaultRoundsPerPlayer = 5

// Room is the aggregate for one spectrum-game session. All child
// records live inside it and every operation runs under mu, so each
// mutation is atomic with respect to the others.
type Room struct {
	ID        string
	Name      string
	Code      string
	HostID    string
	IsPrivate bool
	Password  string
	Mode      Mode
	Status    game.Status

	CurrentRound    int
	RoundsPerPlayer int
	// TotalRounds is fixed at start: RoundsPerPlayer times the number
	// of players connected at that moment.
	TotalRounds int
	TotalScore  int

	Players map[string]*Player // by user id
	Rounds  []*Round
	// PsychicOrder freezes the rotation at game start so temporary
	// disconnects cannot skip anyone's turn (individual mode).
	PsychicOrder []string

	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex
}

// Player is one user's membership in a room.
type Player struct {
	ID          string
	UserID      string
	Name        string
	AvatarURL   string
	IsHost      bool
	IsConnected bool
	Score       int
	Team        int // 0 = unassigned, 1 or 2 in teams mode
	JoinedAt    time.Time
	LastSeenAt  time.Time
}

// Round is one unit of play. The highest-numbered round is always the
// current one for a playing room.
type Round struct {
	Number         int
	Spectrum       catalog.Spectrum
	PsychicID      string // user id
	TargetPosition float64
	Clue           string
	Phase          RoundPhase
	PointsEarned   int // sum of all guessers' points
	Guesses        map[string]*Guess
	CreatedAt      time.Time
	CompletedAt    time.Time
}

// Guess tracks one player's dial for one round: a live position shared
// for visual feedback, then a single immutable confirmation.
type Guess struct {
	UserID        string
	Position      float64
	FinalPosition float64
	Points        int
	ConfirmedAt   time.Time // zero until confirmed
	UpdatedAt     time.Time
}

// Confirmed reports whether the guess has been locked in.
func (g *Guess) Confirmed() bool { return !g.ConfirmedAt.IsZero() }

func (r *Room) currentRound() *Round {
	if r.CurrentRound == 0 || r.CurrentRound > len(r.Rounds) {
		return nil
	}
	return r.Rounds[r.CurrentRound-1]
}

// connectedPlayers returns connected members ordered by join time.
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

// allPlayers returns every member ordered by join time.
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
