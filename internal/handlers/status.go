package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Subsystem status
// @Tags         system
// @Produce      json
// @Success      200  {object}  models.StatusDocument
// @Router       /api/v1/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.GetStatus(c.Request.Context()))
}

// @Summary      Registered jobs
// @Description  Every scheduled trigger with its next fire time and last outcome.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, jobs"
// @Router       /api/v1/jobs [get]
func (h *Handler) getJobs(c *gin.Context) {
	jobs := h.services.Monitoring.Jobs()
	c.JSON(http.StatusOK, gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

// BiometricsRequest toggles post-power-off sleep analysis.
type BiometricsRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

// @Summary      Optional services
// @Tags         system
// @Produce      json
// @Success      200  {object}  models.Services
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/services [get]
func (h *Handler) getServices(c *gin.Context) {
	svc, err := h.services.Flags.GetServices(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to load services", "services_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// @Summary      Enable or disable biometrics
// @Tags         system
// @Accept       json
// @Produce      json
// @Param        body  body  BiometricsRequest  true  "Flag"
// @Success      200  {object}  models.Services
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/services/biometrics [post]
func (h *Handler) setBiometrics(c *gin.Context) {
	var req BiometricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	svc, err := h.services.Flags.SetBiometrics(c.Request.Context(), *req.Enabled)
	if err != nil {
		h.fail(c, "failed to update services", "services_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// @Summary      Run a job now
// @Description  Fires the job immediately; its weekly slot is unchanged.
// @Tags         system
// @Produce      json
// @Param        key  path  string  true  "Job key, e.g. left-monday-22:00-power-on-82"
// @Success      200  {object}  map[string]interface{}  "key, durationMs, error"
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/jobs/{key}/run [post]
func (h *Handler) runJob(c *gin.Context) {
	key := c.Param("key")
	o, err := h.services.Monitoring.RunJob(key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{"key": o.Key, "durationMs": o.Duration.Milliseconds()}
	if o.Err != nil {
		resp["error"] = o.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
