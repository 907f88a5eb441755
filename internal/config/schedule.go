package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/langchou/fuelgazer/internal/models"
)

// LoadServiceSchedule 读取保养计划，文件不存在时返回空计划
func LoadServiceSchedule(path string) (models.ServiceSchedule, error) {
	var schedule models.ServiceSchedule

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return schedule, nil
	}
	if err != nil {
		return schedule, fmt.Errorf("read service schedule: %w", err)
	}

	if err := yaml.Unmarshal(data, &schedule); err != nil {
		return schedule, fmt.Errorf("parse service schedule %s: %w", path, err)
	}

	for i, s := range schedule.Services {
		if s.Type == "" {
			return schedule, fmt.Errorf("service schedule entry %d: missing type", i)
		}
		if s.IntervalKm <= 0 {
			return schedule, fmt.Errorf("service %s: interval_km must be positive", s.Type)
		}
	}

	return schedule, nil
}
