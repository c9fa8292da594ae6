// Package handler exposes the read-only operations API: complaint listings
// for dashboards and the live WebSocket event feed.
package handler

import (
	"net/http"

	"civicbot/backend/internal/config"
	"civicbot/backend/internal/feed"
	"civicbot/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler carries the API's collaborators.
type Handler struct {
	Storage storage.Storage
	Hub     *feed.Hub
	Secret  []byte
}

// NewHandler builds the API handler. The secret signs and verifies the
// bearer tokens minted by the operator CLI.
func NewHandler(store storage.Storage, hub *feed.Hub, secret string) *Handler {
	return &Handler{
		Storage: store,
		Hub:     hub,
		Secret:  []byte(secret),
	}
}

// Register mounts the API routes on a gin engine.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api", h.AuthRequired())
	api.GET("/complaints/free", h.ListFree)
	api.GET("/complaints/active", h.ListActive)
	api.GET("/complaints/done", h.ListDone)
	api.GET("/complaints/:id", h.GetComplaint)

	r.GET("/ws", h.ServeWebSocket)
}

// ListFree returns unassigned complaints, newest first.
func (h *Handler) ListFree(c *gin.Context) {
	rows, err := h.Storage.ListFree(config.GroupListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows})
}

// ListActive returns complaints currently in progress.
func (h *Handler) ListActive(c *gin.Context) {
	rows, err := h.Storage.ListInProgress(config.GroupListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows})
}

// ListDone returns recently completed complaints.
func (h *Handler) ListDone(c *gin.Context) {
	rows, err := h.Storage.ListDone(config.GroupListLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": rows})
}

// GetComplaint returns one complaint with its attachments.
func (h *Handler) GetComplaint(c *gin.Context) {
	id := c.Param("id")
	complaint, err := h.Storage.GetComplaint(id)
	if err == storage.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load complaint"})
		return
	}
	media, err := h.Storage.GetMedia(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load media"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaint": complaint, "media": media})
}
