package handler

import (
	"errors"
	"strconv"
	"time"

	"cem-license-manager/internal/database"
	"cem-license-manager/internal/license"
	"cem-license-manager/internal/model"
	"cem-license-manager/internal/service"
	"cem-license-manager/internal/store"

	"github.com/gofiber/fiber/v2"
)

// 许可证密钥随机段撞库概率极低，冲突时换一个密钥重试
const maxIssueAttempts = 3

var (
	keyStore     *license.KeyStore
	signer       *license.Signer
	issuer       *license.Issuer
	licenseStore *store.LicenseStore
	sheetSync    *service.SheetSyncService
)

// Init 注入许可证核心组件，必须在注册路由前调用
func Init(ks *license.KeyStore, sg *license.Signer, is *license.Issuer, st *store.LicenseStore) {
	keyStore = ks
	signer = sg
	issuer = is
	licenseStore = st
}

func InitSheetSync(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*service.SheetSyncService, error) {
	var err error
	sheetSync, err = service.NewSheetSyncService(enableSync, credentialPath, spreadsheetID, sheetName)
	return sheetSync, err
}

// HandleLicenseIssue 签发许可证：生成密钥、签名并入库，返回签名许可证和记录
func HandleLicenseIssue(c *fiber.Ctx) error {
	attrs := new(model.LicenseAttributes)
	if err := c.BodyParser(attrs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	var signed *model.SignedLicense
	var rec *model.License

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		var err error
		signed, err = issuer.Issue(*attrs)
		if err != nil {
			if errors.Is(err, license.ErrInvalidAttributes) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "许可证属性无效",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "许可证签发失败",
			})
		}

		candidate := attrs.Record(signed.Data.LicenseKey)
		err = licenseStore.Create(candidate)
		if err == nil {
			rec = candidate
			break
		}
		if !errors.Is(err, store.ErrDuplicateKey) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "保存许可证失败",
			})
		}
	}

	if rec == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "许可证密钥冲突，请重试",
		})
	}

	if userID, ok := c.Locals("userID").(uint); ok {
		service.LogOperation(userID, "issue", "license", strconv.Itoa(int(rec.ID)), rec)
	}

	if sheetSync != nil {
		go sheetSync.SyncLicense(rec)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"license": signed,
		"record":  rec,
	})
}

// HandleLicenseVerify 校验许可证。请求体可以是签名许可证，也可以只带密钥串。
// 校验失败只返回 valid:false，不区分是签名、状态还是过期问题
func HandleLicenseVerify(c *fiber.Ctx) error {
	type VerifyInput struct {
		Key       string             `json:"key"`
		Data      *model.LicenseData `json:"data"`
		Signature string             `json:"signature"`
	}

	input := new(VerifyInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	var valid bool
	var usageKey string

	switch {
	case input.Data != nil:
		signed := &model.SignedLicense{Data: *input.Data, Signature: input.Signature}
		valid = signer.Verify(signed) && !license.IsExpired(signed)
		usageKey = input.Data.LicenseKey
	case input.Key != "":
		usageKey = input.Key
		rec, err := licenseStore.GetByKey(input.Key)
		if err == nil {
			valid = rec.Status == "active" && !license.DateExpired(rec.ExpiryDate)
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "许可证密钥不能为空",
		})
	}

	usage := model.LicenseUsage{
		LicenseKey: usageKey,
		Action:     "verify " + strconv.FormatBool(valid),
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
		Timestamp:  time.Now(),
	}
	database.DB.Create(&usage)

	return c.JSON(fiber.Map{
		"valid": valid,
	})
}

// HandleGetAllLicenses 获取全部许可证，新建的在前
func HandleGetAllLicenses(c *fiber.Ctx) error {
	records, err := licenseStore.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取许可证数据失败",
		})
	}

	return c.JSON(fiber.Map{
		"licenses": records,
	})
}

// HandleSearchLicenses 按姓名/公司/邮箱/密钥做子串搜索
func HandleSearchLicenses(c *fiber.Ctx) error {
	term := c.Query("q")

	records, err := licenseStore.Search(term)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "搜索许可证失败",
		})
	}

	return c.JSON(fiber.Map{
		"licenses": records,
	})
}

// HandleGetLicense 获取单个许可证详情
func HandleGetLicense(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的许可证ID",
		})
	}

	rec, err := licenseStore.Get(uint(id))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "许可证不存在",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取许可证失败",
		})
	}

	return c.JSON(rec)
}

// HandleLicenseUpdate 部分更新许可证，只写请求体里出现的字段
func HandleLicenseUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的许可证ID",
		})
	}

	input := new(model.LicenseUpdate)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的输入数据",
		})
	}

	affected, err := licenseStore.Update(uint(id), input)
	if errors.Is(err, store.ErrDuplicateKey) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "许可证密钥已存在",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "更新许可证失败",
		})
	}

	if affected == 0 {
		if len(input.Columns()) == 0 {
			return c.JSON(fiber.Map{
				"message": "没有需要更新的内容",
				"updated": affected,
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "许可证不存在",
		})
	}

	if userID, ok := c.Locals("userID").(uint); ok {
		service.LogOperation(userID, "update", "license", strconv.Itoa(int(id)), input.Columns())
	}

	if sheetSync != nil {
		if rec, err := licenseStore.Get(uint(id)); err == nil {
			go sheetSync.SyncLicense(rec)
		}
	}

	return c.JSON(fiber.Map{
		"message": "许可证更新成功",
		"updated": affected,
	})
}

// HandleLicenseDelete 删除许可证
func HandleLicenseDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的许可证ID",
		})
	}

	affected, err := licenseStore.Delete(uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除许可证失败",
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "许可证不存在",
		})
	}

	if userID, ok := c.Locals("userID").(uint); ok {
		service.LogOperation(userID, "delete", "license", strconv.Itoa(int(id)), nil)
	}

	return c.JSON(fiber.Map{
		"message": "许可证删除成功",
	})
}

// HandleLicenseUsages 查询某个许可证最近的校验记录
func HandleLicenseUsages(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的许可证ID",
		})
	}

	rec, err := licenseStore.Get(uint(id))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "许可证不存在",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "获取许可证失败",
		})
	}

	var usages []model.LicenseUsage
	result := database.DB.Where("license_key = ?", rec.LicenseKey).
		Order("timestamp desc").Limit(20).Find(&usages)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询使用记录失败",
		})
	}

	return c.JSON(fiber.Map{
		"usages": usages,
	})
}

// HandlePublicKey 导出本机公钥，客户端用它离线验签
func HandlePublicKey(c *fiber.Ctx) error {
	publicPEM, err := keyStore.PublicKeyPEM()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "密钥尚未初始化",
		})
	}

	return c.JSON(fiber.Map{
		"public_key": publicPEM,
	})
}
