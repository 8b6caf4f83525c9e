package handlers

import (
	"net/http"

	"controlling_pod/internal/models"
	"controlling_pod/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errGetSchedules    = "failed to load schedules"
	errUpdateSchedules = "failed to update schedules"
	errGetSettings     = "failed to load settings"
	errUpdateSettings  = "failed to update settings"
)

// @Summary      Get weekly schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  models.Schedules
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules [get]
func (h *Handler) getSchedules(c *gin.Context) {
	s, err := h.services.Schedules.GetSchedules(c.Request.Context())
	if err != nil {
		h.fail(c, errGetSchedules, "schedules_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update schedules
// @Description  Replaces the given days of the given sides; everything else is kept. Jobs are rebuilt.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]map[string]models.DailySchedule  true  "side -> day -> schedule"
// @Success      200  {object}  models.Schedules
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules [post]
func (h *Handler) updateSchedules(c *gin.Context) {
	var req service.ScheduleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	s, err := h.services.Schedules.UpdateSchedules(c.Request.Context(), req)
	if err != nil {
		h.fail(c, errUpdateSchedules, "schedules_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Get settings
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  models.Settings
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	s, err := h.services.Schedules.GetSettings(c.Request.Context())
	if err != nil {
		h.fail(c, errGetSettings, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update settings
// @Description  A null timeZone suspends every scheduled job.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body  models.Settings  true  "Settings"
// @Success      200  {object}  models.Settings
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [post]
func (h *Handler) updateSettings(c *gin.Context) {
	var req models.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	s, err := h.services.Schedules.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		h.fail(c, errUpdateSettings, "settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}
