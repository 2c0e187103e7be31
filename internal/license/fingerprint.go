package license

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"cem-license-manager/internal/model"
)

// Fingerprint 根据许可证属性生成确定性指纹。
// 指纹只用于许可证密钥的展示段，不是安全边界，防伪完全依赖签名
func Fingerprint(attrs model.LicenseAttributes) string {
	maxUsers := attrs.MaxUsers
	if maxUsers < 1 {
		maxUsers = 1
	}

	input := strings.Join([]string{
		attrs.Name,
		attrs.Email,
		attrs.Company,
		strconv.Itoa(maxUsers),
	}, "|")

	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
