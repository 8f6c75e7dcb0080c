package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"partygames/internal/auth"
	"partygames/internal/catalog"
	"partygames/internal/hitster"
	"partygames/internal/wavelength"
	"partygames/internal/ws"
)

func testRouter() (*gin.Engine, *auth.MemoryProvider) {
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()
	source := catalog.NewSeededSource()
	guests := auth.NewMemoryProvider()
	srv := New(
		guests,
		wavelength.NewManager(source, log),
		hitster.NewManager(source, log),
		source,
		ws.NewHub(log),
		"http://localhost:8080",
		log,
	)
	r := gin.New()
	srv.Routes(r)
	return r, guests
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGuestRegistration(t *testing.T) {
	r, _ := testRouter()
	w := do(t, r, http.MethodPost, "/api/auth/guest", "", map[string]string{"name": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Token == "" || res.UserID == "" {
		t.Fatalf("incomplete response: %s", w.Body.String())
	}
}

func TestMissingTokenRejected(t *testing.T) {
	r, _ := testRouter()
	w := do(t, r, http.MethodPost, "/api/wavelength/rooms", "", map[string]string{"name": "x"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateJoinAndErrorMapping(t *testing.T) {
	r, guests := testRouter()
	aliceToken, _ := guests.Register("alice", "")
	bobToken, _ := guests.Register("bob", "")

	w := do(t, r, http.MethodPost, "/api/wavelength/rooms", aliceToken, map[string]any{"name": "test"})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var ref struct {
		RoomID string `json:"roomId"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ref); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Unknown code -> 404.
	w = do(t, r, http.MethodPost, "/api/wavelength/rooms/join", bobToken, map[string]string{"code": "ZZZZZ"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("bad code status = %d, want 404", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/wavelength/rooms/join", bobToken, map[string]string{"code": ref.Code})
	if w.Code != http.StatusOK {
		t.Fatalf("join status = %d, body %s", w.Code, w.Body.String())
	}

	// Non-host start -> 401.
	w = do(t, r, http.MethodPost, "/api/wavelength/rooms/"+ref.RoomID+"/start", bobToken, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("non-host start status = %d, want 401", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/wavelength/rooms/"+ref.RoomID+"/start", aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", w.Code, w.Body.String())
	}

	// Starting twice -> 409.
	w = do(t, r, http.MethodPost, "/api/wavelength/rooms/"+ref.RoomID+"/start", aliceToken, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double start status = %d, want 409", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/wavelength/rooms/"+ref.RoomID, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRoomPreviewIsPublic(t *testing.T) {
	r, guests := testRouter()
	token, _ := guests.Register("alice", "")
	w := do(t, r, http.MethodPost, "/api/hitster/rooms", token, map[string]any{"name": "test"})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var ref struct {
		Code string `json:"code"`
	}
	json.Unmarshal(w.Body.Bytes(), &ref)

	w = do(t, r, http.MethodGet, "/api/hitster/rooms/code/"+ref.Code, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d, want 200 without token", w.Code)
	}
}

func TestDeckListing(t *testing.T) {
	r, guests := testRouter()
	token, _ := guests.Register("alice", "")
	w := do(t, r, http.MethodGet, "/api/hitster/decks", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res struct {
		Decks []catalog.Deck `json:"decks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Decks) == 0 {
		t.Fatalf("no decks in seeded catalog")
	}
}

func TestJoinQR(t *testing.T) {
	r, guests := testRouter()
	token, _ := guests.Register("alice", "")
	w := do(t, r, http.MethodPost, "/api/wavelength/rooms", token, map[string]any{"name": "test"})
	var ref struct {
		Code string `json:"code"`
	}
	json.Unmarshal(w.Body.Bytes(), &ref)

	w = do(t, r, http.MethodGet, "/api/wavelength/rooms/code/"+ref.Code+"/qr", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("qr status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q, want image/png", ct)
	}

	w = do(t, r, http.MethodGet, "/api/wavelength/rooms/code/ZZZZZ/qr", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing room qr status = %d, want 404", w.Code)
	}
}
