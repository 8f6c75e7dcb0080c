package wavelength

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"partygames/internal/catalog"
	"partygames/internal/game"
)

func testManager() *Manager {
	spectrums := []catalog.Spectrum{
		{ID: "s1", LeftLabel: "Hot", RightLabel: "Cold"},
		{ID: "s2", LeftLabel: "Loud", RightLabel: "Quiet"},
		{ID: "s3", LeftLabel: "Old", RightLabel: "New"},
	}
	return NewManager(catalog.NewMemorySource(spectrums, nil, nil), zerolog.Nop())
}

func user(n string) game.Identity {
	return game.Identity{ID: "user-" + n, Name: n}
}

// setupGame creates a room, joins the given players and starts it.
func setupGame(t *testing.T, m *Manager, players ...game.Identity) string {
	t.Helper()
	host := players[0]
	ref, err := m.CreateRoom(host, CreateRoomParams{Name: "test", RoundsPerPlayer: 1})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	for _, p := range players[1:] {
		if _, err := m.JoinRoom(p, ref.Code, ""); err != nil {
			t.Fatalf("JoinRoom(%s): %v", p.Name, err)
		}
	}
	if err := m.StartGame(host, ref.RoomID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return ref.RoomID
}

func TestCreateRoomRequiresIdentity(t *testing.T) {
	m := testManager()
	if _, err := m.CreateRoom(game.Identity{}, CreateRoomParams{}); !errors.Is(err, game.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	m := testManager()
	ref, err := m.CreateRoom(user("alice"), CreateRoomParams{})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	first, err := m.JoinRoom(user("bob"), ref.Code, "")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	second, err := m.JoinRoom(user("bob"), ref.Code, "")
	if err != nil {
		t.Fatalf("JoinRoom again: %v", err)
	}
	if first.PlayerID != second.PlayerID {
		t.Fatalf("rejoin produced a new player: %s != %s", first.PlayerID, second.PlayerID)
	}

	room, _ := m.get(ref.RoomID)
	if len(room.Players) != 2 {
		t.Fatalf("got %d players, want 2", len(room.Players))
	}
}

func TestJoinRoomWrongPassword(t *testing.T) {
	m := testManager()
	ref, err := m.CreateRoom(user("alice"), CreateRoomParams{IsPrivate: true, Password: "hunter2"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := m.JoinRoom(user("bob"), ref.Code, "wrong"); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := m.JoinRoom(user("bob"), ref.Code, "hunter2"); err != nil {
		t.Fatalf("JoinRoom with password: %v", err)
	}
}

func TestJoinRoomAfterStart(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"))
	room, _ := m.get(roomID)
	if _, err := m.JoinRoom(user("carol"), room.Code, ""); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	m := testManager()
	ref, err := m.CreateRoom(user("alice"), CreateRoomParams{})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if err := m.StartGame(user("alice"), ref.RoomID); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStartGameHostOnly(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{})
	if _, err := m.JoinRoom(user("bob"), ref.Code, ""); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if err := m.StartGame(user("bob"), ref.RoomID); !errors.Is(err, game.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestStartGameTeamsNeedsFour(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{Mode: ModeTeams})
	m.JoinRoom(user("bob"), ref.Code, "")
	m.JoinRoom(user("carol"), ref.Code, "")
	if err := m.StartGame(user("alice"), ref.RoomID); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	m.JoinRoom(user("dave"), ref.Code, "")
	if err := m.StartGame(user("alice"), ref.RoomID); err != nil {
		t.Fatalf("StartGame with 4: %v", err)
	}

	room, _ := m.get(ref.RoomID)
	teams := map[int]int{}
	for _, p := range room.Players {
		teams[p.Team]++
	}
	if teams[1] != 2 || teams[2] != 2 {
		t.Fatalf("teams unbalanced: %v", teams)
	}
}

func TestStartGameFixesRoundsAndOrder(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"), user("carol"))

	room, _ := m.get(roomID)
	if room.TotalRounds != 3 {
		t.Fatalf("TotalRounds = %d, want 3", room.TotalRounds)
	}
	if len(room.PsychicOrder) != 3 {
		t.Fatalf("PsychicOrder has %d entries, want 3", len(room.PsychicOrder))
	}
	if room.CurrentRound != 1 || room.currentRound() == nil {
		t.Fatalf("first round not dealt")
	}
	round := room.currentRound()
	if round.Phase != PhasePsychicTurn {
		t.Fatalf("phase = %s, want %s", round.Phase, PhasePsychicTurn)
	}
	if round.TargetPosition < 0 || round.TargetPosition > 100 {
		t.Fatalf("target %v out of range", round.TargetPosition)
	}
}

func TestSubmitCluePsychicOnly(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"))
	room, _ := m.get(roomID)
	psychicID := room.currentRound().PsychicID

	other := user("alice")
	if psychicID == other.ID {
		other = user("bob")
	}
	if err := m.SubmitClue(other, roomID, "somewhere warm"); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("err = %v, want ErrNotYourTurn", err)
	}
	if err := m.SubmitClue(game.Identity{ID: psychicID}, roomID, "  "); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("empty clue err = %v, want ErrValidation", err)
	}
	if err := m.SubmitClue(game.Identity{ID: psychicID}, roomID, "somewhere warm"); err != nil {
		t.Fatalf("SubmitClue: %v", err)
	}
	if room.currentRound().Phase != PhaseGuessing {
		t.Fatalf("phase = %s, want %s", room.currentRound().Phase, PhaseGuessing)
	}
	if err := m.SubmitClue(game.Identity{ID: psychicID}, roomID, "again"); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("second clue err = %v, want ErrInvalidState", err)
	}
}

// guessers returns the round's non-psychic members.
func guessers(room *Room) []game.Identity {
	psychicID := room.currentRound().PsychicID
	var out []game.Identity
	for _, p := range room.allPlayers() {
		if p.UserID != psychicID {
			out = append(out, game.Identity{ID: p.UserID, Name: p.Name})
		}
	}
	return out
}

func TestRoundScoringAndAutoAdvance(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"), user("carol"))
	room, _ := m.get(roomID)
	round := room.currentRound()
	psychic := game.Identity{ID: round.PsychicID}
	round.TargetPosition = 52

	if err := m.SubmitClue(psychic, roomID, "lukewarm"); err != nil {
		t.Fatalf("SubmitClue: %v", err)
	}

	gs := guessers(room)
	res, err := m.SubmitGuess(gs[0], roomID, 50)
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if res.Points != 4 {
		t.Fatalf("points = %d, want 4", res.Points)
	}
	if round.Phase != PhaseGuessing {
		t.Fatalf("round advanced before all guessers confirmed")
	}

	res, err = m.SubmitGuess(gs[1], roomID, 10)
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if res.Points != 0 {
		t.Fatalf("points = %d, want 0", res.Points)
	}

	if round.Phase != PhaseResults {
		t.Fatalf("phase = %s, want %s after all confirmed", round.Phase, PhaseResults)
	}
	if round.PointsEarned != 4 {
		t.Fatalf("PointsEarned = %d, want 4", round.PointsEarned)
	}
	if room.TotalScore != 4 {
		t.Fatalf("TotalScore = %d, want 4", room.TotalScore)
	}
	// One guesser scored, so the psychic earns one point.
	if got := room.Players[psychic.ID].Score; got != 1 {
		t.Fatalf("psychic score = %d, want 1", got)
	}
	if got := room.Players[gs[0].ID].Score; got != 4 {
		t.Fatalf("guesser score = %d, want 4", got)
	}
}

func TestSubmitGuessRejectsPsychicAndDoubles(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"), user("carol"))
	room, _ := m.get(roomID)
	psychic := game.Identity{ID: room.currentRound().PsychicID}

	if _, err := m.SubmitGuess(psychic, roomID, 50); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("guess before clue err = %v, want ErrInvalidState", err)
	}
	if err := m.SubmitClue(psychic, roomID, "hm"); err != nil {
		t.Fatalf("SubmitClue: %v", err)
	}
	if _, err := m.SubmitGuess(psychic, roomID, 50); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("psychic guess err = %v, want ErrNotYourTurn", err)
	}
	if _, err := m.SubmitGuess(guessers(room)[0], roomID, 101); !errors.Is(err, game.ErrValidation) {
		t.Fatalf("out of range err = %v, want ErrValidation", err)
	}

	g := guessers(room)[0]
	if _, err := m.SubmitGuess(g, roomID, 40); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if _, err := m.SubmitGuess(g, roomID, 41); !errors.Is(err, game.ErrAlreadyDone) {
		t.Fatalf("double guess err = %v, want ErrAlreadyDone", err)
	}
}

func TestUpdateGuessPositionIgnoresConfirmed(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"), user("carol"))
	room, _ := m.get(roomID)
	round := room.currentRound()
	psychic := game.Identity{ID: round.PsychicID}
	if err := m.SubmitClue(psychic, roomID, "hm"); err != nil {
		t.Fatalf("SubmitClue: %v", err)
	}

	g := guessers(room)[0]
	m.UpdateGuessPosition(g, roomID, 30)
	if round.Guesses[g.ID].Position != 30 {
		t.Fatalf("live position not recorded")
	}
	if _, err := m.SubmitGuess(g, roomID, 40); err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	m.UpdateGuessPosition(g, roomID, 90)
	if got := round.Guesses[g.ID].FinalPosition; got != 40 {
		t.Fatalf("confirmed guess moved to %v", got)
	}
	if got := round.Guesses[g.ID].Position; got != 40 {
		t.Fatalf("position moved after confirm: %v", got)
	}
}

// playRound drives the current round to the results phase.
func playRound(t *testing.T, m *Manager, roomID string) {
	t.Helper()
	room, _ := m.get(roomID)
	round := room.currentRound()
	if err := m.SubmitClue(game.Identity{ID: round.PsychicID}, roomID, "clue"); err != nil {
		t.Fatalf("SubmitClue: %v", err)
	}
	for _, g := range guessers(room) {
		if round.Phase != PhaseGuessing {
			break
		}
		if _, err := m.SubmitGuess(g, roomID, 50); err != nil {
			t.Fatalf("SubmitGuess(%s): %v", g.ID, err)
		}
	}
}

func TestPsychicRotationVisitsEveryone(t *testing.T) {
	m := testManager()
	players := []game.Identity{user("alice"), user("bob"), user("carol")}
	roomID := setupGame(t, m, players...)
	room, _ := m.get(roomID)

	seen := map[string]int{}
	for {
		round := room.currentRound()
		seen[round.PsychicID]++
		playRound(t, m, roomID)
		res, err := m.NextRound(players[0], roomID)
		if err != nil {
			t.Fatalf("NextRound: %v", err)
		}
		if res.Finished {
			break
		}
	}

	if len(seen) != 3 {
		t.Fatalf("psychic seat visited %d players, want 3", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("player %s was psychic %d times, want 1", id, n)
		}
	}
	if room.Status != game.StatusFinished {
		t.Fatalf("status = %s, want finished", room.Status)
	}
}

func TestRotationIncludesDisconnected(t *testing.T) {
	m := testManager()
	players := []game.Identity{user("alice"), user("bob"), user("carol")}
	roomID := setupGame(t, m, players...)
	room, _ := m.get(roomID)

	// Someone drops mid-game; their psychic turn must still come up.
	first := room.currentRound().PsychicID
	idx := -1
	for i, id := range room.PsychicOrder {
		if id == first {
			idx = i
		}
	}
	nextID := room.PsychicOrder[(idx+1)%len(room.PsychicOrder)]
	room.Players[nextID].IsConnected = false

	playRound(t, m, roomID)
	if _, err := m.NextRound(players[0], roomID); err != nil {
		t.Fatalf("NextRound: %v", err)
	}
	if got := room.currentRound().PsychicID; got != nextID {
		t.Fatalf("psychic = %s, want %s despite disconnect", got, nextID)
	}
}

// setupTeamsGame starts a 4-player teams game.
func setupTeamsGame(t *testing.T, m *Manager) (string, []game.Identity) {
	t.Helper()
	players := []game.Identity{user("alice"), user("bob"), user("carol"), user("dave")}
	ref, err := m.CreateRoom(players[0], CreateRoomParams{Mode: ModeTeams, RoundsPerPlayer: 1})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	for _, p := range players[1:] {
		if _, err := m.JoinRoom(p, ref.Code, ""); err != nil {
			t.Fatalf("JoinRoom(%s): %v", p.Name, err)
		}
	}
	if err := m.StartGame(players[0], ref.RoomID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return ref.RoomID, players
}

func TestTeamsPsychicAlternatesTeams(t *testing.T) {
	m := testManager()
	roomID, players := setupTeamsGame(t, m)
	room, _ := m.get(roomID)

	prevTeam := 0
	for {
		round := room.currentRound()
		team := room.Players[round.PsychicID].Team
		if team != 1 && team != 2 {
			t.Fatalf("psychic %s on team %d, want 1 or 2", round.PsychicID, team)
		}
		if prevTeam != 0 && team == prevTeam {
			t.Fatalf("round %d psychic stayed on team %d", round.Number, team)
		}
		prevTeam = team

		playRound(t, m, roomID)
		res, err := m.NextRound(players[0], roomID)
		if err != nil {
			t.Fatalf("NextRound: %v", err)
		}
		if res.Finished {
			break
		}
	}
	if room.Status != game.StatusFinished {
		t.Fatalf("status = %s, want finished", room.Status)
	}
}

func TestTeamsRotationNeedsConnectedOpponent(t *testing.T) {
	m := testManager()
	roomID, players := setupTeamsGame(t, m)
	room, _ := m.get(roomID)

	// Drop everyone on the team due up next; rotation has nowhere to go.
	psychicTeam := room.Players[room.currentRound().PsychicID].Team
	for _, p := range room.Players {
		if p.Team != psychicTeam {
			p.IsConnected = false
		}
	}

	playRound(t, m, roomID)
	if _, err := m.NextRound(players[0], roomID); !errors.Is(err, game.ErrInternal) {
		t.Fatalf("err = %v, want ErrInternal with the other team gone", err)
	}
}

func TestPlayAgain(t *testing.T) {
	m := testManager()
	players := []game.Identity{user("alice"), user("bob")}
	roomID := setupGame(t, m, players...)
	room, _ := m.get(roomID)

	if err := m.PlayAgain(players[0], roomID); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("PlayAgain mid-game err = %v, want ErrInvalidState", err)
	}

	for room.Status == game.StatusPlaying {
		playRound(t, m, roomID)
		if _, err := m.NextRound(players[0], roomID); err != nil {
			t.Fatalf("NextRound: %v", err)
		}
	}

	if err := m.PlayAgain(players[1], roomID); !errors.Is(err, game.ErrNotAuthorized) {
		t.Fatalf("non-host PlayAgain err = %v, want ErrNotAuthorized", err)
	}
	if err := m.PlayAgain(players[0], roomID); err != nil {
		t.Fatalf("PlayAgain: %v", err)
	}
	if room.Status != game.StatusWaiting {
		t.Fatalf("status = %s, want waiting", room.Status)
	}
	if len(room.Rounds) != 0 || room.TotalScore != 0 || room.CurrentRound != 0 {
		t.Fatalf("game state not cleared")
	}
	for _, p := range room.Players {
		if p.Score != 0 || p.Team != 0 {
			t.Fatalf("player %s not reset", p.UserID)
		}
	}
}

func TestLeaveRoomHostMigration(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{})
	m.JoinRoom(user("bob"), ref.Code, "")
	m.JoinRoom(user("carol"), ref.Code, "")

	res, err := m.LeaveRoom(user("alice"), ref.RoomID)
	if err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if res.Deleted {
		t.Fatalf("room deleted with players remaining")
	}

	room, _ := m.get(ref.RoomID)
	if room.HostID != "user-bob" {
		t.Fatalf("host = %s, want user-bob (earliest join)", room.HostID)
	}
	hosts := 0
	for _, p := range room.Players {
		if p.IsHost {
			hosts++
		}
	}
	if hosts != 1 {
		t.Fatalf("got %d hosts, want exactly 1", hosts)
	}
}

func TestLeaveRoomLastPlayerDeletes(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{})
	res, err := m.LeaveRoom(user("alice"), ref.RoomID)
	if err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	if !res.Deleted {
		t.Fatalf("expected room deletion")
	}
	if _, err := m.get(ref.RoomID); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("room still resolvable after delete")
	}
}

func TestHeartbeatReconnects(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{})
	m.JoinRoom(user("bob"), ref.Code, "")
	m.LeaveRoom(user("bob"), ref.RoomID)

	room, _ := m.get(ref.RoomID)
	if room.Players["user-bob"].IsConnected {
		t.Fatalf("bob still connected after leave")
	}
	m.Heartbeat(user("bob"), ref.RoomID)
	if !room.Players["user-bob"].IsConnected {
		t.Fatalf("heartbeat did not reconnect bob")
	}
}

func TestSweep(t *testing.T) {
	m := testManager()
	ref, _ := m.CreateRoom(user("alice"), CreateRoomParams{})
	room, _ := m.get(ref.RoomID)

	// Fresh room survives.
	if removed := m.Sweep(time.Now().UTC()); removed != 0 {
		t.Fatalf("swept %d rooms, want 0", removed)
	}

	// Stale waiting room is reaped.
	room.mu.Lock()
	room.UpdatedAt = time.Now().UTC().Add(-2 * game.WaitingRoomTTL)
	room.mu.Unlock()
	if removed := m.Sweep(time.Now().UTC()); removed != 1 {
		t.Fatalf("swept %d rooms, want 1", removed)
	}
	if _, err := m.get(ref.RoomID); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("room survived sweep")
	}
}

func TestSweepDisconnectsSilentPlayers(t *testing.T) {
	m := testManager()
	roomID := setupGame(t, m, user("alice"), user("bob"))
	room, _ := m.get(roomID)

	now := time.Now().UTC()
	room.mu.Lock()
	room.Players["user-bob"].LastSeenAt = now.Add(-2 * game.HeartbeatTimeout)
	room.mu.Unlock()

	if removed := m.Sweep(now); removed != 0 {
		t.Fatalf("playing room swept")
	}
	if room.Players["user-bob"].IsConnected {
		t.Fatalf("silent player still marked connected")
	}
	if !room.Players["user-alice"].IsConnected {
		t.Fatalf("fresh player disconnected")
	}
}
