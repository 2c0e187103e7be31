package store

import (
	"time"

	"cem-license-manager/internal/license"
	"cem-license-manager/internal/model"
)

// Statistics 汇总许可证状态分布。过期判断基于记录里的日期文本，
// 在内存中计算，避免对 TEXT 日期列做 SQL 比较
func (s *LicenseStore) Statistics() (*model.LicenseStatistics, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &model.LicenseStatistics{
		DailyUsage: make([]model.DailyUsage, 0),
	}
	thirtyDaysLater := time.Now().AddDate(0, 0, 30)

	for _, rec := range records {
		stats.TotalLicenses++
		stats.TotalSeats += int64(rec.MaxUsers)

		switch rec.Status {
		case "suspended":
			stats.SuspendedLicenses++
		case "revoked":
			stats.RevokedLicenses++
		default:
			if license.DateExpired(rec.ExpiryDate) {
				stats.ExpiredLicenses++
				continue
			}
			stats.ActiveLicenses++
			if expiry, err := license.ParseDate(rec.ExpiryDate); err == nil && expiry.Before(thirtyDaysLater) {
				stats.ExpiringLicenses++
			}
		}
	}

	return stats, nil
}
