package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timeclock/internal/roster"
)

func (s *Server) ListEmployees(c *gin.Context) {
	list, err := s.roster.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) GetEmployee(c *gin.Context) {
	id, ok := employeeIDParam(c)
	if !ok {
		return
	}
	e, err := s.roster.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var in roster.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, validationError("invalid body"))
		return
	}
	e, err := s.roster.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) UpdateEmployee(c *gin.Context) {
	id, ok := employeeIDParam(c)
	if !ok {
		return
	}
	var in roster.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, validationError("invalid body"))
		return
	}
	e, err := s.roster.Update(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) DeleteEmployee(c *gin.Context) {
	id, ok := employeeIDParam(c)
	if !ok {
		return
	}
	if err := s.roster.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "employee deleted"})
}

func employeeIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, validationError("id must be a positive integer"))
		return 0, false
	}
	return id, true
}
