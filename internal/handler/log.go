package handler

import (
	"strconv"

	"cem-license-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

func HandleGetLogs(c *fiber.Ctx) error {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))

	if pageSize > 100 {
		pageSize = 100
	}

	logs, total, err := service.GetOperationLogs(page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取日志失败",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}

func HandleGetUserLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))

	if pageSize > 100 {
		pageSize = 100
	}

	userID := c.Locals("userID").(uint)

	logs, total, err := service.GetUserOperationLogs(userID, page, pageSize)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取日志失败",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
