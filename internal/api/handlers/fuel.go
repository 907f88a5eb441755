package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/repository"
)

// ListFuelEntries 获取全部加油记录，按时间倒序
func (h *Handler) ListFuelEntries(c *gin.Context) {
	entries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list fuel entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list fuel entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// GetFuelEntry 获取加油记录详情
func (h *Handler) GetFuelEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fuel entry ID"})
		return
	}

	entry, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fuel entry not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get fuel entry", zap.Error(err), zap.Int64("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get fuel entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}

// GetLastFillup 获取最近一次加油
func (h *Handler) GetLastFillup(c *gin.Context) {
	entry, err := h.store.Latest(c.Request.Context())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No fuel entries found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get last fillup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get last fillup"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entry})
}
