package models

// ServiceInterval 保养项目配置
type ServiceInterval struct {
	Type          string  `json:"service_type" yaml:"type"`
	IntervalKm    float64 `json:"interval_km" yaml:"interval_km"`
	LastServiceKm float64 `json:"last_service_km" yaml:"last_service_km"`
}

// ServiceSchedule 保养计划表 (静态配置)
type ServiceSchedule struct {
	Services []ServiceInterval `json:"services" yaml:"services"`
}

// ServiceReminder 保养提醒，KmRemaining 为负表示已超期
type ServiceReminder struct {
	ServiceType string  `json:"service_type"`
	KmRemaining float64 `json:"km_remaining"`
}
