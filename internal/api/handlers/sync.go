package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/ingest"
	"github.com/langchou/fuelgazer/internal/service"
)

// TriggerSync 手动触发表格同步
// POST /api/sync
func (h *Handler) TriggerSync(c *gin.Context) {
	res, err := h.syncService.Sync(c.Request.Context())
	switch {
	case err == nil:
	case errors.Is(err, service.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Sync already in progress"})
		return
	case errors.Is(err, service.ErrSyncNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Spreadsheet source not configured"})
		return
	case errors.Is(err, ingest.ErrFetchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch spreadsheet rows"})
		return
	default:
		h.logger.Error("Sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"entries_synced": res.Accepted,
		"inserted":       res.Inserted,
		"updated":        res.Updated,
		"rows_rejected":  len(res.Rejected),
	})
}

// GetSyncStatus 获取同步状态
func (h *Handler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.syncService.Status()})
}
