package model

import (
	"time"

	"gorm.io/gorm"
)

// LicenseUsage 许可证校验/操作轨迹
type LicenseUsage struct {
	gorm.Model
	LicenseKey string    `json:"license_key" gorm:"index"`
	Action     string    `json:"action"` // "verify true", "verify false", "issue", etc.
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Timestamp  time.Time `json:"timestamp"`
}
