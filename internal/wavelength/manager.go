package wavelength

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"partygames/internal/catalog"
	"partygames/internal/game"
)

// Manager owns every spectrum-game room. The map is guarded by mu;
// each room guards its own state, so operations on different rooms do
// not contend.
type Manager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byCode map[string]*Room

	spectrums catalog.SpectrumSource
	log       zerolog.Logger
	notify    func(roomID string)
}

func NewManager(spectrums catalog.SpectrumSource, log zerolog.Logger) *Manager {
	return &Manager{
		rooms:     make(map[string]*Room),
		byCode:    make(map[string]*Room),
		spectrums: spectrums,
		log:       log.With().Str("game", "wavelength").Logger(),
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
	Name            string
	IsPrivate       bool
	Password        string
	RoundsPerPlayer int
	Mode            Mode
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
		mode = ModeIndividual
	}
	if mode != ModeIndividual && mode != ModeTeams {
		return RoomRef{}, fmt.Errorf("%w: unknown game mode %q", game.ErrValidation, p.Mode)
	}
	rounds := p.RoundsPerPlayer
	if rounds <= 0 {
		rounds = defaultRoundsPerPlayer
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("%s's room", user.Name)
	}
	password := ""
	if p.IsPrivate {
		password = p.Password
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
		ID:              uuid.NewString(),
		Name:            name,
		Code:            code,
		HostID:          user.ID,
		IsPrivate:       p.IsPrivate,
		Password:        password,
		Mode:            mode,
		Status:          game.StatusWaiting,
		RoundsPerPlayer: rounds,
		Players:         make(map[string]*Player),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	room.Players[user.ID] = newPlayer(user, true, now)

	m.rooms[room.ID] = room
	m.byCode[code] = room

	m.log.Info().Str("room", room.ID).Str("code", code).Str("mode", string(mode)).Msg("room created")
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

// remove drops the room and all its descendants from the indexes.
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
// they are already a member. Joining twice is idempotent.
func (m *Manager) JoinRoom(user game.Identity, code, password string) (JoinResult, error) {
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
	if room.IsPrivate && room.Password != password {
		return JoinResult{}, fmt.Errorf("%w: wrong password", game.ErrValidation)
	}

	now := time.Now().UTC()
	if existing, ok := room.Players[user.ID]; ok {
		existing.IsConnected = true
		existing.LastSeenAt = now
		m.emit(room.ID)
		return JoinResult{RoomID: room.ID, PlayerID: existing.ID}, nil
	}

	if len(room.Players) >= maxPlayers {
		return JoinResult{}, fmt.Errorf("%w: room is full", game.ErrValidation)
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

// LeaveRoom disconnects the caller. The room is deleted outright when
// the last connected player leaves; a departing host hands the room to
// the longest-joined connected player while still waiting.
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

// StartGame moves a waiting room into play: freezes the psychic
// rotation, assigns teams when needed and deals the first round.
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

	connected := room.connectedPlayers()
	if len(connected) < 2 {
		return fmt.Errorf("%w: at least 2 players required", game.ErrValidation)
	}
	if room.Mode == ModeTeams && len(connected) < 4 {
		return fmt.Errorf("%w: teams mode requires at least 4 players", game.ErrValidation)
	}

	room.TotalRounds = room.RoundsPerPlayer * len(connected)

	if room.Mode == ModeTeams {
		shuffled := make([]*Player, len(connected))
		copy(shuffled, connected)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		for i, p := range shuffled {
			p.Team = i%2 + 1
		}
	}

	room.PsychicOrder = make([]string, len(connected))
	for i, p := range connected {
		room.PsychicOrder[i] = p.UserID
	}

	psychic := connected[rand.Intn(len(connected))]
	round, err := m.newRound(room, 1, psychic.UserID)
	if err != nil {
		return err
	}
	room.Rounds = append(room.Rounds, round)
	room.Status = game.StatusPlaying
	room.CurrentRound = 1
	room.UpdatedAt = time.Now().UTC()

	m.log.Info().Str("room", room.ID).Int("players", len(connected)).Int("rounds", room.TotalRounds).Msg("game started")
	m.emit(room.ID)
	return nil
}

// newRound picks a spectrum card, preferring ones this room has not
// seen yet, and rolls a fresh hidden target.
func (m *Manager) newRound(room *Room, number int, psychicID string) (*Round, error) {
	all := m.spectrums.Spectrums()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no spectrum cards available", game.ErrInvalidState)
	}
	used := make(map[string]bool, len(room.Rounds))
	for _, r := range room.Rounds {
		used[r.Spectrum.ID] = true
	}
	var unused []catalog.Spectrum
	for _, s := range all {
		if !used[s.ID] {
			unused = append(unused, s)
		}
	}
	pool := unused
	if len(pool) == 0 {
		pool = all
	}
	return &Round{
		Number:         number,
		Spectrum:       pool[rand.Intn(len(pool))],
		PsychicID:      psychicID,
		TargetPosition: float64(rand.Intn(101)),
		Phase:          PhasePsychicTurn,
		Guesses:        make(map[string]*Guess),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// SubmitClue records the psychic's clue and opens the guessing phase.
func (m *Manager) SubmitClue(user game.Identity, roomID, clue string) error {
	clue = strings.TrimSpace(clue)
	if clue == "" {
		return fmt.Errorf("%w: clue cannot be empty", game.ErrValidation)
	}
	room, err := m.get(roomID)
	if err != nil {
		return err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusPlaying {
		return fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}
	round := room.currentRound()
	if round == nil {
		return fmt.Errorf("%w: no active round", game.ErrNotFound)
	}
	if round.PsychicID != user.ID {
		return fmt.Errorf("%w: you are not this round's psychic", game.ErrNotYourTurn)
	}
	if round.Phase != PhasePsychicTurn {
		return fmt.Errorf("%w: clue already given", game.ErrInvalidState)
	}

	round.Clue = clue
	round.Phase = PhaseGuessing
	room.UpdatedAt = time.Now().UTC()

	m.emit(room.ID)
	return nil
}

// UpdateGuessPosition shares a player's live dial position with the
// room. It is fire-and-forget: anything invalid is silently dropped so
// a drag gesture never produces client-visible errors.
func (m *Manager) UpdateGuessPosition(user game.Identity, roomID string, position float64) {
	if user.ID == "" || position < 0 || position > 100 {
		return
	}
	room, err := m.get(roomID)
	if err != nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusPlaying {
		return
	}
	round := room.currentRound()
	if round == nil || round.Phase != PhaseGuessing || round.PsychicID == user.ID {
		return
	}
	if _, member := room.Players[user.ID]; !member {
		return
	}

	now := time.Now().UTC()
	if g, ok := round.Guesses[user.ID]; ok {
		if g.Confirmed() {
			return
		}
		g.Position = position
		g.UpdatedAt = now
	} else {
		round.Guesses[user.ID] = &Guess{UserID: user.ID, Position: position, UpdatedAt: now}
	}
	m.emit(room.ID)
}

type GuessResult struct {
	Points         int     `json:"points"`
	TargetPosition float64 `json:"targetPosition"`
}

// SubmitGuess confirms a player's final dial position, scores it and,
// once every eligible guesser has confirmed, closes the round: the
// psychic earns one point per guesser who scored, and the room total
// accumulates the sum. The all-confirmed check runs inside the same
// critical section as the confirmation, so two racing guessers cannot
// advance the phase twice.
func (m *Manager) SubmitGuess(user game.Identity, roomID string, position float64) (GuessResult, error) {
	if position < 0 || position > 100 {
		return GuessResult{}, fmt.Errorf("%w: position must be between 0 and 100", game.ErrValidation)
	}
	room, err := m.get(roomID)
	if err != nil {
		return GuessResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Status != game.StatusPlaying {
		return GuessResult{}, fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}
	round := room.currentRound()
	if round == nil {
		return GuessResult{}, fmt.Errorf("%w: no active round", game.ErrNotFound)
	}
	if round.Phase != PhaseGuessing {
		return GuessResult{}, fmt.Errorf("%w: not the guessing phase", game.ErrInvalidState)
	}
	if round.PsychicID == user.ID {
		return GuessResult{}, fmt.Errorf("%w: the psychic cannot guess", game.ErrNotYourTurn)
	}
	player, ok := room.Players[user.ID]
	if !ok {
		return GuessResult{}, fmt.Errorf("%w: not a member of this room", game.ErrNotFound)
	}

	now := time.Now().UTC()
	points := game.PointsFor(round.TargetPosition, position)

	g, ok := round.Guesses[user.ID]
	if ok && g.Confirmed() {
		return GuessResult{}, fmt.Errorf("%w: guess already confirmed", game.ErrAlreadyDone)
	}
	if !ok {
		g = &Guess{UserID: user.ID}
		round.Guesses[user.ID] = g
	}
	g.Position = position
	g.FinalPosition = position
	g.Points = points
	g.ConfirmedAt = now
	g.UpdatedAt = now

	player.Score += points

	// Recompute counts fresh; a concurrent confirm may have landed
	// between this caller's read and its write.
	eligible := 0
	for _, p := range room.Players {
		if p.IsConnected && p.UserID != round.PsychicID {
			eligible++
		}
	}
	confirmed := 0
	total := 0
	scored := 0
	for _, other := range round.Guesses {
		if !other.Confirmed() {
			continue
		}
		confirmed++
		total += other.Points
		if other.Points > 0 {
			scored++
		}
	}

	if confirmed >= eligible {
		if psychic, ok := room.Players[round.PsychicID]; ok {
			psychic.Score += scored
		}
		round.PointsEarned = total
		round.Phase = PhaseResults
		round.CompletedAt = now
		room.TotalScore += total
	}
	room.UpdatedAt = now

	m.emit(room.ID)
	return GuessResult{Points: points, TargetPosition: round.TargetPosition}, nil
}

type NextRoundResult struct {
	Finished   bool `json:"finished"`
	NextRound  int  `json:"nextRound,omitempty"`
	TotalScore int  `json:"totalScore"`
}

// NextRound finalizes the current round and either deals the next one
// or finishes the game once all rounds are played.
func (m *Manager) NextRound(user game.Identity, roomID string) (NextRoundResult, error) {
	room, err := m.get(roomID)
	if err != nil {
		return NextRoundResult{}, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if _, ok := room.Players[user.ID]; !ok {
		return NextRoundResult{}, fmt.Errorf("%w: not a member of this room", game.ErrNotFound)
	}
	if room.Status != game.StatusPlaying {
		return NextRoundResult{}, fmt.Errorf("%w: room is not in play", game.ErrInvalidState)
	}

	now := time.Now().UTC()
	round := room.currentRound()
	if round != nil {
		round.Phase = PhaseCompleted
		if round.CompletedAt.IsZero() {
			round.CompletedAt = now
		}
	}

	if room.CurrentRound >= room.TotalRounds {
		room.Status = game.StatusFinished
		room.UpdatedAt = now
		m.log.Info().Str("room", room.ID).Int("totalScore", room.TotalScore).Msg("game finished")
		m.emit(room.ID)
		return NextRoundResult{Finished: true, TotalScore: room.TotalScore}, nil
	}

	nextPsychic, err := m.nextPsychic(room, round)
	if err != nil {
		return NextRoundResult{}, err
	}

	next, err := m.newRound(room, room.CurrentRound+1, nextPsychic)
	if err != nil {
		return NextRoundResult{}, err
	}
	room.Rounds = append(room.Rounds, next)
	room.CurrentRound = next.Number
	room.UpdatedAt = now

	m.emit(room.ID)
	return NextRoundResult{NextRound: next.Number, TotalScore: room.TotalScore}, nil
}

// nextPsychic resolves who takes the psychic seat for the upcoming
// round. Individual mode walks the order frozen at game start, paying
// no attention to connection state so nobody's turn is skipped by a
// blip. Teams mode flips to the other team and picks a random
// connected member of it.
func (m *Manager) nextPsychic(room *Room, current *Round) (string, error) {
	if current == nil {
		return "", fmt.Errorf("%w: no round to rotate from", game.ErrInternal)
	}

	if room.Mode == ModeTeams {
		currentTeam := 1
		if p, ok := room.Players[current.PsychicID]; ok && p.Team != 0 {
			currentTeam = p.Team
		}
		nextTeam := 3 - currentTeam
		var candidates []*Player
		for _, p := range room.connectedPlayers() {
			if p.Team == nextTeam {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			return "", fmt.Errorf("%w: no connected players on team %d", game.ErrInternal, nextTeam)
		}
		return candidates[rand.Intn(len(candidates))].UserID, nil
	}

	idx := -1
	for i, id := range room.PsychicOrder {
		if id == current.PsychicID {
			idx = i
			break
		}
	}
	if idx < 0 || len(room.PsychicOrder) == 0 {
		return "", fmt.Errorf("%w: psychic %s not in rotation order", game.ErrInternal, current.PsychicID)
	}
	nextID := room.PsychicOrder[(idx+1)%len(room.PsychicOrder)]
	if _, ok := room.Players[nextID]; !ok {
		return "", fmt.Errorf("%w: player record for %s is gone", game.ErrInternal, nextID)
	}
	return nextID, nil
}

// PlayAgain resets a finished room back to waiting, clearing rounds,
// guesses, scores and team assignments.
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

	room.Rounds = nil
	room.PsychicOrder = nil
	for _, p := range room.Players {
		p.Score = 0
		p.Team = 0
	}
	room.Status = game.StatusWaiting
	room.CurrentRound = 0
	room.TotalRounds = 0
	room.TotalScore = 0
	room.UpdatedAt = time.Now().UTC()

	m.emit(room.ID)
	return nil
}

// Heartbeat refreshes the caller's liveness. It never fails: a stray
// beat from a non-member or against a dead room is dropped.
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

// Sweep reaps idle state: waiting rooms silent for an hour, finished
// rooms older than a day, and players whose heartbeat stopped half an
// hour ago. Returns the number of rooms deleted.
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
