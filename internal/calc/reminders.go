package calc

import "github.com/langchou/fuelgazer/internal/models"

// ServiceReminders 计算各保养项目剩余里程，顺序与配置一致
func ServiceReminders(schedule models.ServiceSchedule, currentOdometerKm float64) []models.ServiceReminder {
	reminders := make([]models.ServiceReminder, 0, len(schedule.Services))
	for _, s := range schedule.Services {
		reminders = append(reminders, models.ServiceReminder{
			ServiceType: s.Type,
			KmRemaining: s.LastServiceKm + s.IntervalKm - currentOdometerKm,
		})
	}
	return reminders
}
