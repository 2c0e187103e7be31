package model

import "time"

// License 许可证记录表
type License struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	Company    string    `json:"company"`
	Email      string    `json:"email"`
	LicenseKey string    `json:"license_key" gorm:"uniqueIndex;not null"`
	StartDate  string    `json:"start_date"`
	ExpiryDate string    `json:"expiry_date"`
	MaxUsers   int       `json:"max_users" gorm:"default:1"`
	Status     string    `json:"status" gorm:"default:'active'"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (License) TableName() string {
	return "licenses"
}
