package wavelength

import (
	"fmt"
	"sort"
	"strings"

	"partygames/internal/catalog"
	"partygames/internal/game"
)

// RedactedTarget replaces the hidden target in views for players who
// may not see it yet.
const RedactedTarget = -1

type RoomView struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Code         string      `json:"code"`
	Mode         Mode        `json:"mode"`
	Status       game.Status `json:"status"`
	IsPrivate    bool        `json:"isPrivate"`
	CurrentRound int         `json:"currentRound"`
	TotalRounds  int         `json:"totalRounds"`
	TotalScore   int         `json:"totalScore"`
}

type PlayerView struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
	Score       int    `json:"score"`
	Team        int    `json:"team,omitempty"`
}

type RoundView struct {
	Number         int              `json:"number"`
	Spectrum       catalog.Spectrum `json:"spectrum"`
	PsychicID      string           `json:"psychicId"`
	TargetPosition float64          `json:"targetPosition"`
	Clue           string           `json:"clue,omitempty"`
	Phase          RoundPhase       `json:"phase"`
	PointsEarned   int              `json:"pointsEarned"`
}

type GuessView struct {
	UserID     string  `json:"userId"`
	PlayerName string  `json:"playerName,omitempty"`
	Position   float64 `json:"position"`
	Confirmed  bool    `json:"confirmed"`
	Points     int     `json:"points"`
}

type GameState struct {
	Room         RoomView     `json:"room"`
	Players      []PlayerView `json:"players"`
	CurrentRound *RoundView   `json:"currentRound,omitempty"`
	Guesses      []GuessView  `json:"guesses,omitempty"`
	IsHost       bool         `json:"isHost"`
	IsPsychic    bool         `json:"isPsychic"`
	Me           PlayerView   `json:"me"`
}

// GameState assembles a consistent snapshot for one member. The hidden
// target is redacted unless the caller is the psychic or the round has
// reached its results.
func (m *Manager) GameState(user game.Identity, roomID string) (*GameState, error) {
	room, err := m.get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	me, ok := room.Players[user.ID]
	if !ok {
		return nil, fmt.Errorf("%w: not a member of this room", game.ErrNotFound)
	}

	state := &GameState{
		Room: RoomView{
			ID:           room.ID,
			Name:         room.Name,
			Code:         room.Code,
			Mode:         room.Mode,
			Status:       room.Status,
			IsPrivate:    room.IsPrivate,
			CurrentRound: room.CurrentRound,
			TotalRounds:  room.TotalRounds,
			TotalScore:   room.TotalScore,
		},
		IsHost: room.HostID == user.ID,
		Me:     playerView(me),
	}
	for _, p := range room.allPlayers() {
		state.Players = append(state.Players, playerView(p))
	}

	round := room.currentRound()
	if round == nil {
		return state, nil
	}

	state.IsPsychic = round.PsychicID == user.ID
	rv := RoundView{
		Number:         round.Number,
		Spectrum:       round.Spectrum,
		PsychicID:      round.PsychicID,
		TargetPosition: round.TargetPosition,
		Clue:           round.Clue,
		Phase:          round.Phase,
		PointsEarned:   round.PointsEarned,
	}
	revealed := round.Phase == PhaseResults || round.Phase == PhaseCompleted
	if !state.IsPsychic && !revealed {
		rv.TargetPosition = RedactedTarget
	}
	state.CurrentRound = &rv

	if round.Phase == PhaseGuessing || round.Phase == PhaseResults {
		for _, g := range round.Guesses {
			gv := GuessView{
				UserID:    g.UserID,
				Position:  g.Position,
				Confirmed: g.Confirmed(),
				Points:    g.Points,
			}
			if p, ok := room.Players[g.UserID]; ok {
				gv.PlayerName = p.Name
			}
			state.Guesses = append(state.Guesses, gv)
		}
		sort.Slice(state.Guesses, func(i, j int) bool {
			return state.Guesses[i].UserID < state.Guesses[j].UserID
		})
	}
	return state, nil
}

func playerView(p *Player) PlayerView {
	return PlayerView{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		AvatarURL:   p.AvatarURL,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
		Score:       p.Score,
		Team:        p.Team,
	}
}

type RoomPreview struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	IsPrivate   bool        `json:"isPrivate"`
	Status      game.Status `json:"status"`
	PlayerCount int         `json:"playerCount"`
}

// RoomByCode returns a join-screen preview without sensitive fields.
func (m *Manager) RoomByCode(code string) (*RoomPreview, error) {
	m.mu.RLock()
	room, ok := m.byCode[strings.ToUpper(code)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no room with code %s", game.ErrNotFound, code)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return &RoomPreview{
		ID:          room.ID,
		Name:        room.Name,
		IsPrivate:   room.IsPrivate,
		Status:      room.Status,
		PlayerCount: len(room.connectedPlayers()),
	}, nil
}
