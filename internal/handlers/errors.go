package handlers

import (
	"errors"
	"net/http"

	"controlling_pod/internal/device"
	"controlling_pod/internal/schedule"

	"github.com/gin-gonic/gin"
)

const errInvalidBodyPref = "invalid body: "

// statusFor maps service errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, schedule.ErrConfigInvalid), errors.Is(err, device.ErrInvalidUpdate):
		return http.StatusBadRequest
	case errors.Is(err, device.ErrChannelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, device.ErrProtocol):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail logs err and writes it with the mapped status. Client errors carry the
// message; server errors carry userMsg only.
func (h *Handler) fail(c *gin.Context, userMsg, logKey string, err error, kv ...interface{}) {
	code := statusFor(err)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "code", code}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	msg := userMsg
	if code != http.StatusInternalServerError {
		msg = err.Error()
	}
	c.JSON(code, gin.H{"error": msg})
}
