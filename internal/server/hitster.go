package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partygames/internal/hitster"
)

func (s *Server) hsDecks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"decks": s.songs.Decks()})
}

type hsCreateRequest struct {
	Name          string       `json:"name" binding:"required"`
	CardsToWin    int          `json:"cardsToWin"`
	TurnTimeLimit int          `json:"turnTimeLimit"`
	Mode          hitster.Mode `json:"mode"`
}

func (s *Server) hsCreateRoom(c *gin.Context) {
	var req hsCreateRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	ref, err := s.hitster.CreateRoom(identity(c), hitster.CreateRoomParams{
		Name:          req.Name,
		CardsToWin:    req.CardsToWin,
		TurnTimeLimit: req.TurnTimeLimit,
		Mode:          req.Mode,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

type hsJoinRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) hsJoinRoom(c *gin.Context) {
	var req hsJoinRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	res, err := s.hitster.JoinRoom(identity(c), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) hsLeaveRoom(c *gin.Context) {
	res, err := s.hitster.LeaveRoom(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type hsDecksRequest struct {
	DeckIDs []string `json:"deckIds" binding:"required"`
}

func (s *Server) hsSetDecks(c *gin.Context) {
	var req hsDecksRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.hitster.SetDecks(identity(c), c.Param("id"), req.DeckIDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

func (s *Server) hsStartGame(c *gin.Context) {
	if err := s.hitster.StartGame(identity(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

func (s *Server) hsAdvancePhase(c *gin.Context) {
	phase, err := s.hitster.AdvancePhase(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phase": phase})
}

type hsPlaceRequest struct {
	PositionIndex *int `json:"positionIndex" binding:"required"`
}

func (s *Server) hsPlaceCard(c *gin.Context) {
	var req hsPlaceRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	res, err := s.hitster.PlaceCard(identity(c), c.Param("id"), *req.PositionIndex)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type hsBonusRequest struct {
	ArtistGuess string `json:"artistGuess"`
	SongGuess   string `json:"songGuess"`
}

func (s *Server) hsSubmitBonus(c *gin.Context) {
	var req hsBonusRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	res, err := s.hitster.SubmitBonus(identity(c), c.Param("id"), req.ArtistGuess, req.SongGuess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) hsNextTurn(c *gin.Context) {
	res, err := s.hitster.NextTurn(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) hsPlayAgain(c *gin.Context) {
	if err := s.hitster.PlayAgain(identity(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (s *Server) hsHeartbeat(c *gin.Context) {
	s.hitster.Heartbeat(identity(c), c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) hsGameState(c *gin.Context) {
	state, err := s.hitster.GameState(identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) hsRoomByCode(c *gin.Context) {
	preview, err := s.hitster.RoomByCode(c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) hsRoomQR(c *gin.Context) {
	if _, err := s.hitster.RoomByCode(c.Param("code")); err != nil {
		writeError(c, err)
		return
	}
	s.joinQR(c, "hitster", c.Param("code"))
}
