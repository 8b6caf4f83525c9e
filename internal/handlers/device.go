package handlers

import (
	"net/http"

	"controlling_pod/internal/device"
	"controlling_pod/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusApplied = "applied"
	statusQueued  = "queued"

	errGetDevice   = "failed to read device state"
	errSetDevice   = "failed to update device"
	errExecute     = "failed to execute command"
	errNudgeDevice = "failed to queue nudge"
)

// NudgeRequest is the payload of a debounced temperature change.
type NudgeRequest struct {
	TemperatureF int `json:"temperatureF" binding:"required" example:"84"`
}

// ExecuteRequest sends one raw command to the pod.
type ExecuteRequest struct {
	// Command name, e.g. PRIME or DEVICE_STATUS
	Command string `json:"command" binding:"required" example:"DEVICE_STATUS"`
	// Argument; omitted means "empty"
	Arg string `json:"arg,omitempty" example:"empty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get device state
// @Description  Returns the last state confirmed by the pod. Pass refresh=true to re-read it.
// @Tags         device
// @Produce      json
// @Param        refresh  query  bool  false  "Re-read from the pod"
// @Success      200  {object}  models.DeviceState
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/device [get]
func (h *Handler) getDevice(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		st  models.DeviceState
		err error
	)
	if c.Query("refresh") == "true" {
		st, err = h.services.Device.Refresh(ctx)
	} else {
		st, err = h.services.Device.GetState(ctx)
	}
	if err != nil {
		h.fail(c, errGetDevice, "device_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Update device state
// @Description  Partial update; only the fields present are written.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  models.PartialDeviceState  true  "Partial state"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/device [post]
func (h *Handler) setDevice(c *gin.Context) {
	var req models.PartialDeviceState
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Device.ApplyPartial(ctx, req); err != nil {
		h.fail(c, errSetDevice, "device_apply_failed", err)
		return
	}
	resp := gin.H{"status": statusApplied}
	if st, err := h.services.Device.GetState(ctx); err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Nudge side temperature
// @Description  Bursts are collapsed; only the last value is written once requests stop.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        side  path  string        true  "left or right"
// @Param        body  body  NudgeRequest  true  "Target temperature"
// @Success      202  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/device/{side}/nudge [post]
func (h *Handler) nudge(c *gin.Context) {
	side, err := models.ParseSide(c.Param("side"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req NudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Device.Nudge(side, req.TemperatureF); err != nil {
		h.fail(c, errNudgeDevice, "device_nudge_failed", err, "side", side)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusQueued})
}

// @Summary      Execute raw command
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  ExecuteRequest  true  "Command"
// @Success      200  {object}  map[string]string  "command, response"
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/execute [post]
func (h *Handler) execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	arg := req.Arg
	if arg == "" {
		arg = device.DefaultArg
	}
	out, err := h.services.Device.Execute(c.Request.Context(), req.Command, arg)
	if err != nil {
		h.fail(c, errExecute, "device_execute_failed", err, "command", req.Command)
		return
	}
	c.JSON(http.StatusOK, gin.H{"command": req.Command, "response": out})
}
