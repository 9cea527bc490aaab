package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
	"timeclock/internal/roster"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var kindStatus = map[attendance.Kind]int{
	attendance.KindValidation:    http.StatusBadRequest,
	attendance.KindConflict:      http.StatusBadRequest,
	attendance.KindNoOpenSession: http.StatusBadRequest,
	attendance.KindAccessDenied:  http.StatusForbidden,
	attendance.KindStorage:       http.StatusInternalServerError,
}

// writeError maps err to a status and a stable kind. Unclassified errors
// are logged and reported generically.
func writeError(c *gin.Context, err error) {
	var ae *attendance.Error
	switch {
	case errors.As(err, &ae):
		status, ok := kindStatus[ae.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.AbortWithStatusJSON(status, errorResponse{Kind: string(ae.Kind), Message: ae.Message})
		return
	case errors.Is(err, roster.ErrNotFound):
		abort(c, http.StatusNotFound, "not_found", "employee not found")
		return
	case errors.Is(err, roster.ErrEmailTaken), errors.Is(err, roster.ErrDiscordLinked):
		abort(c, http.StatusConflict, string(attendance.KindConflict), unwrapMessage(err))
		return
	case errors.Is(err, roster.ErrInvalid):
		abort(c, http.StatusBadRequest, string(attendance.KindValidation), err.Error())
		return
	case errors.Is(err, roster.ErrInvalidCredentials):
		abort(c, http.StatusUnauthorized, "unauthenticated", "wrong password")
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled error")
	abort(c, http.StatusInternalServerError, string(attendance.KindStorage), "internal server error")
}

func unwrapMessage(err error) string {
	for _, known := range []error{roster.ErrEmailTaken, roster.ErrDiscordLinked} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func validationError(message string) error {
	return &attendance.Error{Kind: attendance.KindValidation, Message: message}
}
