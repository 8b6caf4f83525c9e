package handlers

import (
	"controlling_pod/internal/logger"
	"controlling_pod/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// device state and status stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/jobs", h.getJobs)
		api.POST("/jobs/:key/run", h.runJob)
		api.POST("/execute", h.execute)
		api.GET("/services", h.getServices)
		api.POST("/services/biometrics", h.setBiometrics)

		h.registerDeviceRoutes(api)
		h.registerScheduleRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("", h.getDevice)
		// Body example: {"left":{"isOn":true,"targetTemperatureF":84}}
		device.POST("", h.setDevice)
		device.POST("/:side/nudge", h.nudge)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	api.GET("/schedules", h.getSchedules)
	api.POST("/schedules", h.updateSchedules)
	api.GET("/settings", h.getSettings)
	api.POST("/settings", h.updateSettings)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
