package hitster

import (
	"fmt"
	"strings"

	"partygames/internal/game"
)

type RoomView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Code           string      `json:"code"`
	Status         game.Status `json:"status"`
	Mode           Mode        `json:"mode"`
	CardsToWin     int         `json:"cardsToWin"`
	TurnTimeLimit  int         `json:"turnTimeLimit,omitempty"`
	DeckIDs        []string    `json:"deckIds,omitempty"`
	CardsRemaining int         `json:"cardsRemaining"`
}

type TimelineCardView struct {
	SongID     string `json:"songId"`
	Year       int    `json:"year"`
	IsInitial  bool   `json:"isInitial,omitempty"`
	Name       string `json:"name,omitempty"`
	ArtistName string `json:"artistName,omitempty"`
	CoverURL   string `json:"coverUrl,omitempty"`
}

type PlayerView struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Name        string             `json:"name"`
	AvatarURL   string             `json:"avatarUrl,omitempty"`
	IsHost      bool               `json:"isHost"`
	IsConnected bool               `json:"isConnected"`
	Score       int                `json:"score"`
	Timeline    []TimelineCardView `json:"timeline"`
}

// SongView is the current turn's card. Identifying fields stay empty
// until the placement is resolved; the preview and cover are always
// available.
type SongView struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	ArtistName  string `json:"artistName,omitempty"`
	AlbumName   string `json:"albumName"`
	ReleaseYear int    `json:"releaseYear,omitempty"`
	PreviewURL  string `json:"previewUrl"`
	CoverURL    string `json:"coverUrl"`
}

type TurnView struct {
	UserID        string    `json:"userId"`
	PlayerName    string    `json:"playerName,omitempty"`
	Phase         TurnPhase `json:"phase"`
	PlacedAtIndex *int      `json:"placedAtIndex,omitempty"`
	IsCorrect     *bool     `json:"isCorrect,omitempty"`
	ArtistCorrect bool      `json:"artistCorrect,omitempty"`
	SongCorrect   bool      `json:"songCorrect,omitempty"`
	PointsEarned  int       `json:"pointsEarned"`
}

type GameState struct {
	Room        RoomView     `json:"room"`
	Players     []PlayerView `json:"players"`
	CurrentTurn *TurnView    `json:"currentTurn,omitempty"`
	CurrentSong *SongView    `json:"currentSong,omitempty"`
	IsHost      bool         `json:"isHost"`
	IsMyTurn    bool         `json:"isMyTurn"`
	Me          *PlayerView  `json:"me,omitempty"`
}

// GameState assembles a consistent snapshot. Non-members get the
// public preview of the table; the current card's identity and year
// are hidden until the placement is resolved.
func (m *Manager) GameState(user game.Identity, roomID string) (*GameState, error) {
	room, err := m.get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	state := &GameState{
		Room: RoomView{
			ID:             room.ID,
			Name:           room.Name,
			Code:           room.Code,
			Status:         room.Status,
			Mode:           room.Mode,
			CardsToWin:     room.CardsToWin,
			TurnTimeLimit:  room.TurnTimeLimit,
			DeckIDs:        room.DeckIDs,
			CardsRemaining: len(room.DeckCards) - room.CurrentCardIndex,
		},
		IsHost: room.HostID == user.ID,
	}

	for _, p := range room.allPlayers() {
		pv := m.playerView(p)
		state.Players = append(state.Players, pv)
		if p.UserID == user.ID {
			me := pv
			state.Me = &me
		}
	}

	turn := room.currentTurn()
	if turn == nil {
		return state, nil
	}

	state.IsMyTurn = turn.UserID == user.ID
	tv := TurnView{
		UserID:        turn.UserID,
		Phase:         turn.Phase,
		ArtistCorrect: turn.ArtistCorrect,
		SongCorrect:   turn.SongCorrect,
		PointsEarned:  turn.PointsEarned,
	}
	if p, ok := room.Players[turn.UserID]; ok {
		tv.PlayerName = p.Name
	}
	if turn.Placed() {
		idx := turn.PlacedAtIndex
		correct := turn.IsCorrect
		tv.PlacedAtIndex = &idx
		tv.IsCorrect = &correct
	}
	state.CurrentTurn = &tv

	if song, ok := m.songs.Song(turn.SongID); ok {
		sv := SongView{
			ID:         song.ID,
			AlbumName:  song.AlbumName,
			PreviewURL: song.PreviewURL,
			CoverURL:   song.CoverURL,
		}
		if turn.Phase == PhaseResult || turn.Placed() {
			sv.Name = song.Name
			sv.ArtistName = song.ArtistName
			sv.ReleaseYear = song.ReleaseYear
		}
		state.CurrentSong = &sv
	}
	return state, nil
}

func (m *Manager) playerView(p *Player) PlayerView {
	pv := PlayerView{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		AvatarURL:   p.AvatarURL,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
		Score:       p.Score,
		Timeline:    make([]TimelineCardView, 0, len(p.Timeline)),
	}
	for _, card := range p.Timeline {
		cv := TimelineCardView{SongID: card.SongID, Year: card.Year, IsInitial: card.IsInitial}
		if song, ok := m.songs.Song(card.SongID); ok {
			cv.Name = song.Name
			cv.ArtistName = song.ArtistName
			cv.CoverURL = song.CoverURL
		}
		pv.Timeline = append(pv.Timeline, cv)
	}
	return pv
}

type RoomPreview struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Status      game.Status `json:"status"`
	PlayerCount int         `json:"playerCount"`
	MaxPlayers  int         `json:"maxPlayers"`
	CardsToWin  int         `json:"cardsToWin"`
	DeckNames   []string    `json:"deckNames,omitempty"`
}

// RoomByCode returns a join-screen preview.
func (m *Manager) RoomByCode(code string) (*RoomPreview, error) {
	m.mu.RLock()
	room, ok := m.byCode[strings.ToUpper(code)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no room with code %s", game.ErrNotFound, code)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	preview := &RoomPreview{
		ID:          room.ID,
		Name:        room.Name,
		Status:      room.Status,
		PlayerCount: len(room.connectedPlayers()),
		MaxPlayers:  maxPlayers,
		CardsToWin:  room.CardsToWin,
	}
	if len(room.DeckIDs) > 0 {
		selected := make(map[string]bool, len(room.DeckIDs))
		for _, id := range room.DeckIDs {
			selected[id] = true
		}
		for _, d := range m.songs.Decks() {
			if selected[d.ID] {
				preview.DeckNames = append(preview.DeckNames, d.Name)
			}
		}
	}
	return preview, nil
}
