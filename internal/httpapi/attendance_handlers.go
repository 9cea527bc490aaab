package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"timeclock/internal/attendance"
)

// punchRequest optionally names the employee to punch for. Only admins may
// act for someone else; staff are silently pinned to themselves.
type punchRequest struct {
	EmployeeID *int64 `json:"employee_id"`
}

func (s *Server) punchTarget(c *gin.Context) (int64, error) {
	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return 0, validationError("invalid body")
	}
	r := requester(c)
	if target := attendance.TargetEmployee(r, req.EmployeeID); target != nil {
		return *target, nil
	}
	return r.EmployeeID, nil
}

func (s *Server) CheckIn(c *gin.Context) {
	employeeID, err := s.punchTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	id, err := s.engine.CheckIn(c.Request.Context(), employeeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "check-in recorded", "session_id": id})
}

func (s *Server) CheckOut(c *gin.Context) {
	employeeID, err := s.punchTarget(c)
	if err != nil {
		writeError(c, err)
		return
	}
	closed, err := s.engine.CheckOut(c.Request.Context(), employeeID)
	if err != nil {
		writeError(c, err)
		return
	}
	v := attendance.Record{Session: closed}.View()
	c.JSON(http.StatusOK, gin.H{
		"message": "check-out recorded",
		"session": gin.H{
			"id":        v.ID,
			"date":      v.Date,
			"check_in":  v.CheckIn,
			"check_out": v.CheckOut,
			"worked":    v.Worked,
			"state":     v.State,
		},
	})
}

func (s *Server) ListSessions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	views, err := s.query.ListSessions(c.Request.Context(), requester(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) ListOpen(c *gin.Context) {
	views, err := s.query.ListOpen(c.Request.Context(), requester(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func parseFilter(c *gin.Context) (attendance.Filter, error) {
	var f attendance.Filter
	if raw := c.Query("employee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, validationError("employee_id must be a positive integer")
		}
		f.EmployeeID = &id
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"date_from", &f.DateFrom},
		{"date_to", &f.DateTo},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		d, err := attendance.ParseDate(raw)
		if err != nil {
			return f, validationError(p.name + ": " + err.Error())
		}
		*p.dst = &d
	}
	return f, nil
}
