package main

import (
	"log"

	"cem-license-manager/internal/config"
	"cem-license-manager/internal/database"
	"cem-license-manager/internal/handler"
	"cem-license-manager/internal/license"
	"cem-license-manager/internal/middleware"
	"cem-license-manager/internal/store"
	"cem-license-manager/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}
	util.SetJWTSecret(cfg.JWTSecret)

	// 初始化数据库
	database.InitDB(cfg.DataDir)

	// 初始化密钥对，首次启动会生成并落盘
	keyStore := license.NewKeyStore(cfg.KeysDir)
	if err := keyStore.Init(); err != nil {
		log.Fatal("初始化密钥失败:", err)
	}

	signer := license.NewSigner(keyStore)
	issuer := license.NewIssuer(signer)
	licenseStore := store.New(database.DB)
	handler.Init(keyStore, signer, issuer, licenseStore)

	if _, err := handler.InitSheetSync(cfg.SheetSync, cfg.SheetCredentialPath, cfg.SpreadsheetID, cfg.SheetName); err != nil {
		log.Println("表格同步初始化失败，已禁用:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 中间件
	app.Use(logger.New())
	app.Use(cors.New())

	// 路由组
	api := app.Group("/api/v1")

	// 用户路由
	users := api.Group("/users")
	users.Post("/register", handler.HandleUserRegister)
	users.Post("/login", handler.HandleUserLogin)
	users.Get("/info", middleware.Auth(), handler.HandleUserInfo)
	users.Post("/change-password", middleware.Auth(), handler.HandleChangePassword)
	users.Get("/login-logs", middleware.Auth(), handler.HandleGetLoginLogs)

	// 许可证路由
	licenses := api.Group("/licenses")

	// 校验接口对客户端开放，不要求登录
	licenses.Post("/verify", handler.HandleLicenseVerify)

	// 管理接口需要管理员身份
	licenses.Use(middleware.Auth())
	licenses.Get("/", middleware.AdminOnly(), handler.HandleGetAllLicenses)
	licenses.Get("/search", middleware.AdminOnly(), handler.HandleSearchLicenses)
	licenses.Get("/statistics", middleware.AdminOnly(), handler.HandleLicenseStatistics)
	licenses.Post("/issue", middleware.AdminOnly(), handler.HandleLicenseIssue)
	licenses.Get("/:id", middleware.AdminOnly(), handler.HandleGetLicense)
	licenses.Put("/:id", middleware.AdminOnly(), handler.HandleLicenseUpdate)
	licenses.Delete("/:id", middleware.AdminOnly(), handler.HandleLicenseDelete)
	licenses.Get("/:id/usages", middleware.AdminOnly(), handler.HandleLicenseUsages)

	// 公钥导出和系统诊断
	api.Get("/keys/public", handler.HandlePublicKey)
	api.Get("/system/info", handler.HandleSystemInfo)

	// 操作日志
	logs := api.Group("/logs", middleware.Auth())
	logs.Get("/", middleware.AdminOnly(), handler.HandleGetLogs)
	logs.Get("/mine", handler.HandleGetUserLogs)

	log.Fatal(app.Listen(cfg.Listen))
}
