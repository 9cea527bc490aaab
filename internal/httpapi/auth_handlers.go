package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock/internal/roster"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, validationError("email and password are required"))
		return
	}

	e, err := s.roster.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, roster.ErrNotFound) {
		writeError(c, validationError("employee not found"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	token, expires, err := s.tokens.Issue(e.ID, e.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "login successful",
		"token":      token,
		"expires_at": expires,
		"employee":   e,
	})
}

func (s *Server) Me(c *gin.Context) {
	e, err := s.roster.Get(c.Request.Context(), requester(c).EmployeeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
