package handler

import (
	"os"
	"runtime"

	"github.com/gofiber/fiber/v2"
)

// HandleSystemInfo 返回宿主机诊断信息，纯透传，不属于许可证核心
func HandleSystemInfo(c *fiber.Ctx) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(fiber.Map{
		"platform":   runtime.GOOS,
		"arch":       runtime.GOARCH,
		"hostname":   hostname,
		"cpus":       runtime.NumCPU(),
		"go_version": runtime.Version(),
		"memory": fiber.Map{
			"alloc": mem.Alloc,
			"sys":   mem.Sys,
		},
	})
}
