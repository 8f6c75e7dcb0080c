package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partygames/internal/wavelength"
)

type wlCreateRequest struct {
	Name            string          `json:"name" binding:"required"`
	IsPrivate       bool            `json:"isPrivate"`
	Password        string          `json:"password"`
	RoundsPerPlayer int             `json:"roundsPerPlayer"`
	Mode            wavelength.Mode `json:"mode"`
}

func (s *Server) wlCreateRoom(c *gin.Context) {
	var req wlCreateRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	ref, err := s.wavelength.CreateRoom(identity(c), wavelength.CreateRoomParams{
		Name:            req.Name,
		IsPrivate:       req.IsPrivate,
		Password:        req.Password,
		RoundsPerPlayer: req.RoundsPerPlayer,
		Mode:            req.Mode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

type wlJoinRequest struct {
	Code     string `json:"code" binding:"required"`
	Password string `json:"password"`
}

func (s *Server) wlJoinRoom(c *gin.Context) {
	var req wlJoinRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	res, err := s.wavelength.JoinRoom(identity(c), req.Code, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) wlLeaveRoom(c *gin.Context) {
	res, err := s.wavelength.LeaveRoom(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) wlStartGame(c *gin.Context) {
	if err := s.wavelength.StartGame(identity(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

type wlClueRequest struct {
	Clue string `json:"clue" binding:"required"`
}

func (s *Server) wlSubmitClue(c *gin.Context) {
	var req wlClueRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.wavelength.SubmitClue(identity(c), c.Param("id"), req.Clue); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted": true})
}

type wlPositionRequest struct {
	Position *float64 `json:"position" binding:"required"`
}

func (s *Server) wlUpdateGuessPosition(c *gin.Context) {
	var req wlPositionRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	s.wavelength.UpdateGuessPosition(identity(c), c.Param("id"), *req.Position)
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) wlSubmitGuess(c *gin.Context) {
	var req wlPositionRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	res, err := s.wavelength.SubmitGuess(identity(c), c.Param("id"), *req.Position)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) wlNextRound(c *gin.Context) {
	res, err := s.wavelength.NextRound(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) wlPlayAgain(c *gin.Context) {
	if err := s.wavelength.PlayAgain(identity(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (s *Server) wlHeartbeat(c *gin.Context) {
	s.wavelength.Heartbeat(identity(c), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) wlGameState(c *gin.Context) {
	state, err := s.wavelength.GameState(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) wlRoomByCode(c *gin.Context) {
	preview, err := s.wavelength.RoomByCode(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) wlRoomQR(c *gin.Context) {
	if _, err := s.wavelength.RoomByCode(c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	s.joinQR(c, "wavelength", c.Param("code"))
}
