package model

import "time"

// DailyUsage 每日校验统计
type DailyUsage struct {
	Date        time.Time `json:"date"`
	TotalChecks int       `json:"total_checks"`
	ValidChecks int       `json:"valid_checks"`
}

// LicenseStatistics 许可证统计信息
type LicenseStatistics struct {
	TotalLicenses     int64        `json:"total_licenses"`
	ActiveLicenses    int64        `json:"active_licenses"`
	SuspendedLicenses int64        `json:"suspended_licenses"`
	RevokedLicenses   int64        `json:"revoked_licenses"`
	ExpiredLicenses   int64        `json:"expired_licenses"`
	ExpiringLicenses  int64        `json:"expiring_licenses"` // 30天内到期
	TotalSeats        int64        `json:"total_seats"`
	DailyUsage        []DailyUsage `json:"daily_usage"`
}

// GetExpiringLicensesCount 获取即将过期的许可证数量（30天内）
func (ls *LicenseStatistics) GetExpiringLicensesCount() int64 {
	return ls.ExpiringLicenses
}

// GetDailyUsageByDate 获取指定日期的校验统计
func (ls *LicenseStatistics) GetDailyUsageByDate(date time.Time) *DailyUsage {
	for i := range ls.DailyUsage {
		usage := &ls.DailyUsage[i]
		if usage.Date.Year() == date.Year() &&
			usage.Date.Month() == date.Month() &&
			usage.Date.Day() == date.Day() {
			return usage
		}
	}
	return nil
}
