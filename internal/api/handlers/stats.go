package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/calc"
	"github.com/langchou/fuelgazer/internal/service"
)

// statsError 统一处理统计接口错误
func (h *Handler) statsError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, calc.ErrInsufficientData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough data for the selected period"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// GetConsumption 油耗概览 (km/L, MPG)
// GET /api/stats/mpg?month=YYYY-MM
func (h *Handler) GetConsumption(c *gin.Context) {
	consumption, err := h.statsService.Consumption(c.Request.Context(), c.Query("month"))
	if err != nil {
		h.statsError(c, err, "Failed to calculate consumption")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": consumption})
}

// GetEfficiency 油耗 (L/100km) 和每公里花费
func (h *Handler) GetEfficiency(c *gin.Context) {
	report, err := h.statsService.Efficiency(c.Request.Context(), c.Query("month"))
	if err != nil {
		h.statsError(c, err, "Failed to calculate efficiency")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetSegments 相邻加油区间
func (h *Handler) GetSegments(c *gin.Context) {
	segments, period, err := h.statsService.Segments(c.Request.Context(), c.Query("month"))
	if err != nil {
		h.statsError(c, err, "Failed to calculate segments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   segments,
		"period": period.Label,
	})
}

// GetMonthly 按月汇总，不带 month 时汇总全部记录
func (h *Handler) GetMonthly(c *gin.Context) {
	summaries, err := h.statsService.Monthly(c.Request.Context(), c.Query("month"))
	if err != nil {
		h.statsError(c, err, "Failed to calculate monthly summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

// GetReminders 保养提醒
func (h *Handler) GetReminders(c *gin.Context) {
	reminders, err := h.statsService.Reminders(c.Request.Context())
	if err != nil {
		h.statsError(c, err, "Failed to calculate service reminders")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reminders})
}
