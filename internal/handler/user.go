package handler

import (
	"strconv"
	"time"

	"cem-license-manager/internal/database"
	"cem-license-manager/internal/model"
	"cem-license-manager/internal/util"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func HandleUserRegister(c *fiber.Ctx) error {
	input := new(RegisterInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	if input.Username == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "用户名和密码不能为空",
		})
	}

	// 密码加密
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "密码加密失败",
		})
	}

	user := &model.User{
		Username: input.Username,
		Password: string(hashedPassword),
		Email:    input.Email,
		Role:     "user",
	}

	result := database.DB.Create(user)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "用户创建失败",
		})
	}

	// 不返回密码
	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(user)
}

func HandleUserLogin(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	var user model.User
	result := database.DB.Where("username = ?", input.Username).First(&user)
	if result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "用户名或密码错误",
		})
	}

	// 验证密码
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password))
	if err != nil {
		loginLog := &model.LoginLog{
			UserID:    user.ID,
			IP:        c.IP(),
			UserAgent: c.Get("User-Agent"),
			Status:    "failed",
			CreatedAt: time.Now(),
		}
		database.DB.Create(loginLog)

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "用户名或密码错误",
		})
	}

	// 记录登录日志
	loginLog := &model.LoginLog{
		UserID:    user.ID,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Status:    "success",
		CreatedAt: time.Now(),
	}
	database.DB.Create(loginLog)

	// 更新用户最后登录时间
	user.LastLogin = time.Now()
	database.DB.Save(&user)

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "令牌生成失败",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

func HandleUserInfo(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var user model.User
	result := database.DB.First(&user, userID)
	if result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "用户不存在",
		})
	}

	user.Password = ""
	return c.JSON(user)
}

func HandleChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	input := new(ChangePasswordInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	var user model.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "用户不存在",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.OldPassword)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "原密码错误",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "密码加密失败",
		})
	}

	user.Password = string(hashedPassword)
	user.UpdatedAt = time.Now()
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改密码失败",
		})
	}

	return c.JSON(fiber.Map{
		"message": "密码修改成功",
	})
}

func HandleGetLoginLogs(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))

	if pageSize > 100 {
		pageSize = 100
	}

	var logs []model.LoginLog
	var total int64

	db := database.DB.Model(&model.LoginLog{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取登录日志总数失败",
		})
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取登录日志失败",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}
