package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"partygames/internal/auth"
	"partygames/internal/catalog"
	"partygames/internal/game"
	"partygames/internal/hitster"
	"partygames/internal/wavelength"
	"partygames/internal/ws"
)

const identityKey = "identity"

// Server wires the two game managers, the guest identity provider and
// the websocket hub onto a gin router.
type Server struct {
	guests     *auth.MemoryProvider
	wavelength *wavelength.Manager
	hitster    *hitster.Manager
	songs      catalog.SongSource
	hub        *ws.Hub
	publicURL  string
	log        zerolog.Logger
}

func New(guests *auth.MemoryProvider, wl *wavelength.Manager, hs *hitster.Manager, songs catalog.SongSource, hub *ws.Hub, publicURL string, log zerolog.Logger) *Server {
	return &Server{
		guests:     guests,
		wavelength: wl,
		hitster:    hs,
		songs:      songs,
		hub:        hub,
		publicURL:  strings.TrimRight(publicURL, "/"),
		log:        log,
	}
}

// Routes registers every endpoint on the router.
func (s *Server) Routes(r *gin.Engine) {
	r.POST("/api/auth/guest", s.handleGuest)

	api := r.Group("/api", s.requireIdentity)

	wl := api.Group("/wavelength")
	wl.POST("/rooms", s.wlCreateRoom)
	wl.POST("/rooms/join", s.wlJoinRoom)
	wl.POST("/rooms/:id/leave", s.wlLeaveRoom)
	wl.POST("/rooms/:id/start", s.wlStartGame)
	wl.POST("/rooms/:id/clue", s.wlSubmitClue)
	wl.POST("/rooms/:id/guess/position", s.wlUpdateGuessPosition)
	wl.POST("/rooms/:id/guess", s.wlSubmitGuess)
	wl.POST("/rooms/:id/next", s.wlNextRound)
	wl.POST("/rooms/:id/play-again", s.wlPlayAgain)
	wl.POST("/rooms/:id/heartbeat", s.wlHeartbeat)
	wl.GET("/rooms/:id", s.wlGameState)

	hs := api.Group("/hitster")
	hs.GET("/decks", s.hsDecks)
	hs.POST("/rooms", s.hsCreateRoom)
	hs.POST("/rooms/join", s.hsJoinRoom)
	hs.POST("/rooms/:id/leave", s.hsLeaveRoom)
	hs.POST("/rooms/:id/decks", s.hsSetDecks)
	hs.POST("/rooms/:id/start", s.hsStartGame)
	hs.POST("/rooms/:id/advance", s.hsAdvancePhase)
	hs.POST("/rooms/:id/place", s.hsPlaceCard)
	hs.POST("/rooms/:id/bonus", s.hsSubmitBonus)
	hs.POST("/rooms/:id/next", s.hsNextTurn)
	hs.POST("/rooms/:id/play-again", s.hsPlayAgain)
	hs.POST("/rooms/:id/heartbeat", s.hsHeartbeat)
	hs.GET("/rooms/:id", s.hsGameState)

	// Join previews are public: no identity required to peek at a code.
	r.GET("/api/wavelength/rooms/code/:code", s.wlRoomByCode)
	r.GET("/api/wavelength/rooms/code/:code/qr", s.wlRoomQR)
	r.GET("/api/hitster/rooms/code/:code", s.hsRoomByCode)
	r.GET("/api/hitster/rooms/code/:code/qr", s.hsRoomQR)

	r.GET("/ws/:game/:id", s.handleWS)
}

type guestRequest struct {
	Name      string `json:"name" binding:"required"`
	AvatarURL string `json:"avatarUrl"`
}

func (s *Server) handleGuest(c *gin.Context) {
	var req guestRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	token, identity := s.guests.Register(req.Name, req.AvatarURL)
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": identity.ID, "name": identity.Name})
}

// requireIdentity resolves the bearer token into a game.Identity.
func (s *Server) requireIdentity(c *gin.Context) {
	token := bearerToken(c)
	identity, ok := s.guests.Identify(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}
	c.Set(identityKey, identity)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	// Browsers cannot set headers on websocket dials.
	return c.Query("token")
}

func identity(c *gin.Context) game.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(game.Identity)
	return id
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotAuthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrNotYourTurn):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrAlreadyDone):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleWS(c *gin.Context) {
	kind := c.Param("game")
	if kind != "wavelength" && kind != "hitster" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown game"})
		return
	}
	if _, ok := s.guests.Identify(bearerToken(c)); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}
	topic := kind + "/" + c.Param("id")
	if err := s.hub.Serve(c.Writer, c.Request, topic); err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
	}
}

// joinQR renders a QR code pointing at the join page for a code.
func (s *Server) joinQR(c *gin.Context, kind, code string) {
	url := fmt.Sprintf("%s/%s/join?code=%s", s.publicURL, kind, strings.ToUpper(code))
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
