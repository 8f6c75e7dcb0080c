package hitster

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"partygames/internal/catalog"
	"partygames/internal/game"
)

// Manager owns every timeline-game room.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byCode map[string]*Room

	songs  catalog.SongSource
	log    zerolog.Logger
	notify func(roomID string)
}

func NewManager(songs catalog.SongSource, log zerolog.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		byCode: make(map[string]*Room),
		songs:  songs,
		log:    log.With().Str("game", "hitster").Logger(),
	}
}

// SetNotify registers a callback invoked after every committed
// mutation, with the affected room id.
func (m *Manager) SetNotify(fn func(roomID string)) { m.notify = fn }

func (m *Manager) emit(roomID string) {
	if m.notify != nil {
		m.notify(roomID)
	}
}

type CreateRoomParams struct {
	Name          string
	CardsToWin    int
	TurnTimeLimit int
	Mode          Mode
}

type RoomRef struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// CreateRoom opens a new room in waiting state with the caller as host.
func (m *Manager) CreateRoom(user game.Identity, p CreateRoomParams) (RoomRef, error) {
	if user.ID == "" {
		return RoomRef{}, game.ErrNotAuthorized
	}
	mode := p.Mode
	if mode == "" {
		mode = ModeRemote
	}
	if mode != ModeRemote && mode != ModeGroup {
		return RoomRef{}, fmt.Errorf("%w: unknown game mode %q", game.ErrValidation, p.Mode)
	}
	cardsToWin := p.CardsToWin
	if cardsToWin <= 0 {
		cardsToWin = defaultCardsToWin
	}
	if p.TurnTimeLimit < 0 {
		return RoomRef{}, fmt.Errorf("%w: negative turn time limit", game.ErrValidation)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("%s's room", user.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := game.NewCode(func(c string) bool {
		_, taken := m.byCode[c]
		return taken
	})
	if err != nil {
		return RoomRef{}, err
	}

	now := time.Now().UTC()
	room := &Room{
		ID:            uuid.NewString(),
		Name:          name,
		Code:          code,
		HostID:        user.ID,
		Status:        game.StatusWaiting,
		Mode:          mode,
		CardsToWin:    cardsToWin,
		TurnTimeLimit: p.TurnTimeLimit,
		Players:       make(map[string]*Player),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	room.Players[user.ID] = newPlayer(user, true, now)

	m.rooms[room.ID] = room
	m.byCode[code] = room

	m.log.Info().Str("room", room.ID).Str("code", code).Int("cardsToWin", cardsToWin).Msg("room created")
	return RoomRef{RoomID: room.ID, Code: code}, nil
}

func newPlayer(user game.Identity, host bool, now time.Time) *Player {
	return &Player{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		IsHost:      host,
		IsConnected: true,
		JoinedAt:    now,
		LastSeenAt:  now,
	}
}

func (m *Manager) get(roomID string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", game.ErrNotFound, roomID)
	}
	return room, nil
}

func (m *Manager) remove(room *Room) {
	m.mu.Lock()
	delete(m.rooms, room.ID)
	delete(m.byCode, room.Code)
	m.mu.Unlock()
	m.log.Info().Str("room", room.ID).Msg("room deleted")
}

type JoinResult struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// JoinRoom adds the caller to a waiting room, or reconnects them if
// they are already a member.
func (m *Manager) JoinRoom(user game.Identity, code string) (JoinResult, error) {
	if user.ID == "" {
		return JoinResult{}, game.ErrNotAuthorized
	}
	m.mu.RLock()
	room, ok := m.byCode[strings.ToUpper(code)]
	m.mu.RUnlock()
	if !ok {
		return JoinResult{}, fmt.Errorf("%w: no room with code %s", game.ErrNotFound, code)
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusWaiting {
		return JoinResult{}, fmt.Errorf("%w: game already in progress", game.ErrInvalidState)
	}

	now := time.Now().UTC()
	if existing, ok := room.Players[user.ID]; ok {
		existing.IsConnected = true
		existing.LastSeenAt = now
		m.emit(room.ID)
		return JoinResult{RoomID: room.ID, PlayerID: existing.ID}, nil
	}

	if len(room.Players) >= maxPlayers {
		return JoinResult{}, fmt.Errorf("%w: room is full (max %d players)", game.ErrValidation, maxPlayers)
	}

	player := newPlayer(user, false, now)
	room.Players[user.ID] = player
	room.UpdatedAt = now

	m.emit(room.ID)
	return JoinResult{RoomID: room.ID, PlayerID: player.ID}, nil
}

type LeaveResult struct {
	Deleted bool `json:"deleted"`
}

// LeaveRoom disconnects the caller, deleting the room when nobody is
// left and migrating the host while still waiting.
func (m *Manager) LeaveRoom(user game.Identity, roomID string) (LeaveResult, error) {
	room, err := m.get(roomID)
	if err != nil {
		return LeaveResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player, ok := room.Players[user.ID]
	if !ok {
		return LeaveResult{}, fmt.Errorf("%w: not a member of this room", game.ErrNotFound)
	}
	now := time.Now().UTC()
	player.IsConnected = false
	room.UpdatedAt = now

	connected := room.connectedPlayers()
	if len(connected) == 0 {
		m.remove(room)
		return LeaveResult{Deleted: true}, nil
	}

	if player.IsHost && room.Status == game.StatusWaiting {
		player.IsHost = false
		next := connected[0]
		next.IsHost = true
		room.HostID = next.UserID
		m.log.Info().Str("room", room.ID).Str("host", next.UserID).Msg("host migrated")
	}

	m.emit(room.ID)
	return LeaveResult{}, nil
}

// SetDecks selects the song decks to draw from. Host-only, before the
// game starts.
func (m *Manager) SetDecks(user game.Identity, roomID string, deckIDs []string) error {
	room, err := m.get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.HostID != user.ID {
		return fmt.Errorf("%w: only the host can configure decks", game.ErrNotAuthorized)
	}
	if room.Status != game.StatusWaiting {
		return fmt.Errorf("%w: game already started", game.ErrInvalidState)
	}
	if len(deckIDs) == 0 {
		return fmt.Errorf("%w: select at least one deck", game.ErrValidation)
	}
	if _, err := m.songs.Songs(deckIDs...); err != nil {
		return fmt.Errorf("%w: %v", game.ErrNotFound, err)
	}

	room.DeckIDs = append([]string(nil), deckIDs...)
	room.UpdatedAt = time.Now().UTC()

	m.emit(room.ID)
	return nil
}

// StartGame shuffles the draw pile and the turn order, deals one
// face-up card to every player and opens the first turn.
func (m *Manager) StartGame(user game.Identity, roomID string) error {
	room, err := m.get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.HostID != user.ID {
		return fmt.Errorf("%w: only the host can start the game", game.ErrNotAuthorized)
	}
	if room.Status != game.StatusWaiting {
		return fmt.Errorf("%w: game already started", game.ErrInvalidState)
	}
	if len(room.DeckIDs) == 0 {
		return fmt.Errorf("%w: select a deck first", game.ErrValidation)
	}

	connected := room.connectedPlayers()
	if len(connected) < 2 {
		return fmt.Errorf("%w: at least 2 players required", game.ErrValidation)
	}

	songs, err := m.songs.Songs(room.DeckIDs...)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrNotFound, err)
	}
	if len(songs) < minDeckSongs {
		return fmt.Errorf("%w: decks need at least %d songs in total", game.ErrValidation, minDeckSongs)
	}

	byID := make(map[string]catalog.Song, len(songs))
	deck := make([]string, len(songs))
	for i, s := range songs {
		byID[s.ID] = s
		deck[i] = s.ID
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	order := make([]*Player, len(connected))
	copy(order, connected)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	// One face-up starter card each before the first draw.
	cardIndex := 0
	for _, p := range order {
		song := byID[deck[cardIndex]]
		p.Timeline = []TimelineCard{{SongID: song.ID, Year: song.ReleaseYear, IsInitial: true}}
		cardIndex++
	}

	now := time.Now().UTC()
	room.PlayerOrder = make([]string, len(order))
	for i, p := range order {
		room.PlayerOrder[i] = p.UserID
	}
	room.DeckCards = deck
	room.CurrentPlayerIndex = 0
	room.Status = game.StatusPlaying
	room.Turns = append(room.Turns, &Turn{
		UserID:         order[0].UserID,
		SongID:         deck[cardIndex],
		Phase:          PhaseListening,
		PlacedAtIndex:  -1,
		StartedAt:      now,
		PhaseStartedAt: now,
	})
	room.CurrentCardIndex = cardIndex + 1
	room.UpdatedAt = now

	m.log.Info().Str("room", room.ID).Int("players", len(order)).Int("deck", len(deck)).Msg("game started")
	m.emit(room.ID)
	return nil
}

// AdvancePhase moves the active player from listening to placing.
func (m *Manager) AdvancePhase(user game.Identity, roomID string) (TurnPhase, error) {
	room, err := m.get(roomID)
	if err != nil {
		return "", err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	turn := room.currentTurn()
	if turn == nil {
		return "", fmt.Errorf("%w: no active turn", game.ErrNotFound)
	}
	if turn.UserID != user.ID {
		return "", fmt.Errorf("%w: not your turn", game.ErrNotYourTurn)
	}
	if turn.Phase != PhaseListening {
		return "", fmt.Errorf("%w: cannot advance from phase %s", game.ErrInvalidState, turn.Phase)
	}

	turn.Phase = PhasePlacing
	turn.PhaseStartedAt = time.Now().UTC()
	room.UpdatedAt = turn.PhaseStartedAt

	m.emit(room.ID)
	return PhasePlacing, nil
}

type PlaceResult struct {
	IsCorrect  bool   `json:"isCorrect"`
	Year       int    `json:"year"`
	SongName   string `json:"songName,omitempty"`
	ArtistName string `json:"artistName,omitempty"`
}

// PlaceCard commits the active player's insertion index. The timeline
// must stay non-decreasing by year; equal years at either boundary are
// accepted. A correct placement inserts the card, scores a point and
// opens the bonus phase; an incorrect one reveals the song and goes
// straight to result.
func (m *Manager) PlaceCard(user game.Identity, roomID string, positionIndex int) (PlaceResult, error) {
	room, err := m.get(roomID)
	if err != nil {
		return PlaceResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusPlaying {
		return PlaceResult{}, fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}
	turn := room.currentTurn()
	if turn == nil {
		return PlaceResult{}, fmt.Errorf("%w: no active turn", game.ErrNotFound)
	}
	if turn.Phase != PhaseListening && turn.Phase != PhasePlacing {
		return PlaceResult{}, fmt.Errorf("%w: not the placing phase", game.ErrInvalidState)
	}
	player, ok := room.Players[turn.UserID]
	if !ok {
		return PlaceResult{}, fmt.Errorf("%w: player record for %s is gone", game.ErrInternal, turn.UserID)
	}
	if player.UserID != user.ID {
		return PlaceResult{}, fmt.Errorf("%w: not your turn", game.ErrNotYourTurn)
	}
	if positionIndex < 0 || positionIndex > len(player.Timeline) {
		return PlaceResult{}, fmt.Errorf("%w: position index out of range", game.ErrValidation)
	}
	song, ok := m.songs.Song(turn.SongID)
	if !ok {
		return PlaceResult{}, fmt.Errorf("%w: song %s missing from catalog", game.ErrInternal, turn.SongID)
	}

	correct := true
	if positionIndex > 0 && player.Timeline[positionIndex-1].Year > song.ReleaseYear {
		correct = false
	}
	if positionIndex < len(player.Timeline) && player.Timeline[positionIndex].Year < song.ReleaseYear {
		correct = false
	}

	now := time.Now().UTC()
	turn.PlacedAtIndex = positionIndex
	turn.IsCorrect = correct
	turn.PhaseStartedAt = now
	room.UpdatedAt = now

	if correct {
		timeline := make([]TimelineCard, 0, len(player.Timeline)+1)
		timeline = append(timeline, player.Timeline[:positionIndex]...)
		timeline = append(timeline, TimelineCard{SongID: song.ID, Year: song.ReleaseYear})
		timeline = append(timeline, player.Timeline[positionIndex:]...)
		player.Timeline = timeline
		player.Score++
		turn.Phase = PhaseBonus
		turn.PointsEarned = 1

		m.emit(room.ID)
		return PlaceResult{IsCorrect: true, Year: song.ReleaseYear}, nil
	}

	turn.Phase = PhaseResult
	turn.PointsEarned = 0

	m.emit(room.ID)
	return PlaceResult{
		IsCorrect:  false,
		Year:       song.ReleaseYear,
		SongName:   song.Name,
		ArtistName: song.ArtistName,
	}, nil
}

type BonusResult struct {
	ArtistCorrect bool   `json:"artistCorrect"`
	SongCorrect   bool   `json:"songCorrect"`
	BonusPoints   int    `json:"bonusPoints"`
	TotalPoints   int    `json:"totalPoints"`
	CorrectArtist string `json:"correctArtist"`
	CorrectSong   string `json:"correctSong"`
}

// SubmitBonus scores the two free-text bonus answers independently
// with fuzzy matching, one extra point each.
func (m *Manager) SubmitBonus(user game.Identity, roomID, artistGuess, songGuess string) (BonusResult, error) {
	room, err := m.get(roomID)
	if err != nil {
		return BonusResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusPlaying {
		return BonusResult{}, fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}
	turn := room.currentTurn()
	if turn == nil {
		return BonusResult{}, fmt.Errorf("%w: no active turn", game.ErrNotFound)
	}
	if turn.Phase != PhaseBonus {
		return BonusResult{}, fmt.Errorf("%w: not the bonus phase", game.ErrInvalidState)
	}
	player, ok := room.Players[turn.UserID]
	if !ok {
		return BonusResult{}, fmt.Errorf("%w: player record for %s is gone", game.ErrInternal, turn.UserID)
	}
	if player.UserID != user.ID {
		return BonusResult{}, fmt.Errorf("%w: not your turn", game.ErrNotYourTurn)
	}
	song, ok := m.songs.Song(turn.SongID)
	if !ok {
		return BonusResult{}, fmt.Errorf("%w: song %s missing from catalog", game.ErrInternal, turn.SongID)
	}

	artistCorrect := game.FuzzyMatch(artistGuess, song.ArtistName)
	songCorrect := game.FuzzyMatch(songGuess, song.Name)

	bonus := 0
	if artistCorrect {
		bonus++
	}
	if songCorrect {
		bonus++
	}
	player.Score += bonus

	now := time.Now().UTC()
	turn.Phase = PhaseResult
	turn.ArtistGuess = artistGuess
	turn.SongGuess = songGuess
	turn.ArtistCorrect = artistCorrect
	turn.SongCorrect = songCorrect
	turn.PointsEarned += bonus
	turn.PhaseStartedAt = now
	room.UpdatedAt = now

	m.emit(room.ID)
	return BonusResult{
		ArtistCorrect: artistCorrect,
		SongCorrect:   songCorrect,
		BonusPoints:   bonus,
		TotalPoints:   turn.PointsEarned,
		CorrectArtist: song.ArtistName,
		CorrectSong:   song.Name,
	}, nil
}

type NextTurnResult struct {
	Finished       bool   `json:"finished"`
	WinnerID       string `json:"winnerId,omitempty"`
	WinnerName     string `json:"winnerName,omitempty"`
	Reason         string `json:"reason,omitempty"`
	NextPlayerName string `json:"nextPlayerName,omitempty"`
}

// NextTurn checks the win conditions and either finishes the game or
// opens a turn for the next player in the frozen order, skipping
// anyone currently disconnected.
func (m *Manager) NextTurn(user game.Identity, roomID string) (NextTurnResult, error) {
	room, err := m.get(roomID)
	if err != nil {
		return NextTurnResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if _, ok := room.Players[user.ID]; !ok {
		return NextTurnResult{}, fmt.Errorf("%w: not a member of this room", game.ErrNotFound)
	}
	if room.Status != game.StatusPlaying {
		return NextTurnResult{}, fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}

	now := time.Now().UTC()
	connected := room.connectedPlayers()

	// Reaching the card threshold wins immediately, regardless of
	// score standings.
	for _, p := range connected {
		if len(p.Timeline) >= room.CardsToWin {
			room.Status = game.StatusFinished
			room.UpdatedAt = now
			m.log.Info().Str("room", room.ID).Str("winner", p.UserID).Msg("game finished")
			m.emit(room.ID)
			return NextTurnResult{Finished: true, WinnerID: p.ID, WinnerName: p.Name}, nil
		}
	}

	// Empty draw pile ends the game on points. Ties go to the earlier
	// player in join order.
	if room.CurrentCardIndex >= len(room.DeckCards) {
		room.Status = game.StatusFinished
		room.UpdatedAt = now
		best := make([]*Player, len(connected))
		copy(best, connected)
		sort.SliceStable(best, func(i, j int) bool { return best[i].Score > best[j].Score })
		winner := best[0]
		m.log.Info().Str("room", room.ID).Str("winner", winner.UserID).Msg("deck exhausted, game finished")
		m.emit(room.ID)
		return NextTurnResult{Finished: true, WinnerID: winner.ID, WinnerName: winner.Name, Reason: "deck_empty"}, nil
	}

	next, nextIndex, err := room.nextActor()
	if err != nil {
		return NextTurnResult{}, err
	}

	room.Turns = append(room.Turns, &Turn{
		UserID:         next.UserID,
		SongID:         room.DeckCards[room.CurrentCardIndex],
		Phase:          PhaseListening,
		PlacedAtIndex:  -1,
		StartedAt:      now,
		PhaseStartedAt: now,
	})
	room.CurrentPlayerIndex = nextIndex
	room.CurrentCardIndex++
	room.UpdatedAt = now

	m.emit(room.ID)
	return NextTurnResult{NextPlayerName: next.Name}, nil
}

// nextActor walks PlayerOrder from the current index, skipping
// disconnected players. A user id in the order without a player record
// is data corruption and is surfaced, never silently skipped.
func (r *Room) nextActor() (*Player, int, error) {
	n := len(r.PlayerOrder)
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: empty turn order", game.ErrInternal)
	}
	for step := 1; step <= n; step++ {
		idx := (r.CurrentPlayerIndex + step) % n
		player, ok := r.Players[r.PlayerOrder[idx]]
		if !ok {
			return nil, 0, fmt.Errorf("%w: player record for %s is gone", game.ErrInternal, r.PlayerOrder[idx])
		}
		if player.IsConnected {
			return player, idx, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no connected players in turn order", game.ErrInternal)
}

// PlayAgain resets a finished room back to waiting. Deck selection is
// kept; turns, timelines and scores are cleared.
func (m *Manager) PlayAgain(user game.Identity, roomID string) error {
	room, err := m.get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.HostID != user.ID {
		return fmt.Errorf("%w: only the host can restart", game.ErrNotAuthorized)
	}
	if room.Status != game.StatusFinished {
		return fmt.Errorf("%w: game is not finished", game.ErrInvalidState)
	}

	room.Turns = nil
	for _, p := range room.Players {
		p.Score = 0
		p.Timeline = nil
	}
	room.Status = game.StatusWaiting
	room.PlayerOrder = nil
	room.CurrentPlayerIndex = 0
	room.DeckCards = nil
	room.CurrentCardIndex = 0
	room.UpdatedAt = time.Now().UTC()

	m.emit(room.ID)
	return nil
}

// Heartbeat refreshes the caller's liveness; stray beats are dropped.
func (m *Manager) Heartbeat(user game.Identity, roomID string) {
	if user.ID == "" {
		return
	}
	room, err := m.get(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player, ok := room.Players[user.ID]
	if !ok {
		return
	}
	reconnected := !player.IsConnected
	player.IsConnected = true
	player.LastSeenAt = time.Now().UTC()
	if reconnected {
		m.emit(room.ID)
	}
}

// Sweep reaps idle rooms and silent players, mirroring the wavelength
// sweep TTLs. Returns the number of rooms deleted.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	removed := 0
	for _, room := range rooms {
		room.mu.Lock()
		switch {
		case room.Status == game.StatusWaiting && now.Sub(room.UpdatedAt) > game.WaitingRoomTTL,
			room.Status == game.StatusFinished && now.Sub(room.UpdatedAt) > game.FinishedRoomTTL:
			m.remove(room)
			removed++
		default:
			changed := false
			for _, p := range room.Players {
				if p.IsConnected && now.Sub(p.LastSeenAt) > game.HeartbeatTimeout {
					p.IsConnected = false
					changed = true
				}
			}
			if changed && room.Status == game.StatusWaiting && len(room.connectedPlayers()) == 0 {
				m.remove(room)
				removed++
			} else if changed {
				m.emit(room.ID)
			}
		}
		room.mu.Unlock()
	}
	return removed
}
