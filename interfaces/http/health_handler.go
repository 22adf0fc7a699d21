package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	platforms func() []string
}

// NewHealthHandler reports liveness along with the platforms the registry serves.
func NewHealthHandler(platforms func() []string) IHealthHandler {
	return &HealthHandler{platforms: platforms}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.platforms != nil {
		body["platforms"] = h.platforms()
	}
	ctx.JSON(http.StatusOK, body)
}
