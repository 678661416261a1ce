package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/domain"
)

type handlers struct {
	ctx  context.Context
	deps Deps
}

func (h *handlers) ws(c *gin.Context) {
	h.deps.Signal.HandleSignal(h.ctx, c, currentUser(c))
}

type recentChatsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=0"`
}

type recentChatsResponse struct {
	RecentChats []domain.Operation `json:"recentChats"`
}

func (h *handlers) recentChats(c *gin.Context) {
	room, err := domain.ParseRoomID(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var q recentChatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	ops, err := h.deps.Replay.RecentOperations(c.Request.Context(), room, q.Limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("recent chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}
	if ops == nil {
		ops = []domain.Operation{}
	}
	c.JSON(http.StatusOK, recentChatsResponse{RecentChats: ops})
}

func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.deps.Health.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": h.deps.Registry.ConnectionCount(),
		"rooms":       len(h.deps.Registry.List()),
	})
}

func (h *handlers) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.deps.Registry.List()})
}
