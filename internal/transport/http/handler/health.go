package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"antrelay/internal/app"
	"antrelay/internal/bootstrap"
)

type HealthHandler struct {
	app  *bootstrap.App
	chat *app.ChatService
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(boot *bootstrap.App, chat *app.ChatService) *HealthHandler {
	return &HealthHandler{app: boot, chat: chat}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	mysqlStatus := h.checkMySQL(ctx)
	redisStatus := h.checkRedis(ctx)
	rmqStatus := h.checkRabbitMQ()

	deps := gin.H{
		"mysql":    mysqlStatus,
		"redis":    redisStatus,
		"rabbitmq": rmqStatus,
	}
	allOK := mysqlStatus.OK && redisStatus.OK && rmqStatus.OK

	if h.app.ObjectStore != nil {
		osStatus := h.checkObjectStore(ctx)
		deps["object_store"] = osStatus
		allOK = allOK && osStatus.OK
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

// Mode reports whether a completion provider is wired into the turn
// pipeline.
func (h *HealthHandler) Mode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"openai": h.chat.ProviderConfigured()})
}

func (h *HealthHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": h.app.Config.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkObjectStore(ctx context.Context) dependencyStatus {
	if err := h.app.ObjectStore.Healthy(ctx); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}
