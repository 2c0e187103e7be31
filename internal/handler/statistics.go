package handler

import (
	"strings"
	"time"

	"cem-license-manager/internal/database"
	"cem-license-manager/internal/model"

	"github.com/gofiber/fiber/v2"
)

// HandleLicenseStatistics 许可证统计：状态分布加上最近的每日校验量
func HandleLicenseStatistics(c *fiber.Ctx) error {
	// 日校验统计的时间窗口，默认最近30天
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	var start, end time.Time
	var err error

	if startDate != "" {
		start, err = time.Parse("2006-01-02", startDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "开始日期格式错误",
				"errors": []fiber.Map{
					{"field": "start_date", "message": "日期格式应为 YYYY-MM-DD"},
				},
			})
		}
	} else {
		start = time.Now().AddDate(0, 0, -30)
	}

	if endDate != "" {
		end, err = time.Parse("2006-01-02", endDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    400,
				"message": "结束日期格式错误",
				"errors": []fiber.Map{
					{"field": "end_date", "message": "日期格式应为 YYYY-MM-DD"},
				},
			})
		}
	} else {
		end = time.Now()
	}

	stats, err := licenseStore.Statistics()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    500,
			"message": "获取许可证统计失败",
		})
	}

	// 按天聚合校验记录
	var usages []model.LicenseUsage
	if err := database.DB.
		Where("timestamp >= ? AND timestamp <= ?", start, end.AddDate(0, 0, 1)).
		Order("timestamp ASC").
		Find(&usages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    500,
			"message": "获取校验记录失败",
		})
	}

	daily := make(map[string]*model.DailyUsage)
	for _, usage := range usages {
		day := usage.Timestamp.Format("2006-01-02")
		entry, ok := daily[day]
		if !ok {
			date, _ := time.ParseInLocation("2006-01-02", day, time.Local)
			entry = &model.DailyUsage{Date: date}
			daily[day] = entry
		}
		entry.TotalChecks++
		if strings.HasSuffix(usage.Action, "true") {
			entry.ValidChecks++
		}
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if entry, ok := daily[day.Format("2006-01-02")]; ok {
			stats.DailyUsage = append(stats.DailyUsage, *entry)
		}
	}

	return c.JSON(stats)
}
