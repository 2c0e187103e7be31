package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"cem-license-manager/internal/model"
)

// Issuer 组合指纹和签名器，负责铸造新的许可证
type Issuer struct {
	signer *Signer
}

func NewIssuer(signer *Signer) *Issuer {
	return &Issuer{signer: signer}
}

// GenerateKey 生成格式为 XXXX-XXXX-XXXX-XXXX-YYYYYYYY 的许可证密钥：
// 前四段来自8字节随机数，末段取指纹前8位
func (i *Issuer) GenerateKey(attrs model.LicenseAttributes) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: 生成随机许可证标识失败: %v", ErrKeyGeneration, err)
	}

	licenseID := hex.EncodeToString(buf)
	fingerprint := Fingerprint(attrs)

	segments := []string{
		licenseID[0:4],
		licenseID[4:8],
		licenseID[8:12],
		licenseID[12:16],
		fingerprint[0:8],
	}

	return strings.ToUpper(strings.Join(segments, "-")), nil
}

// Issue 签发许可证：校验属性、生成密钥、把密钥并入负载后签名。
// 密钥参与签名，保证密钥串无法在两份签名负载之间互换
func (i *Issuer) Issue(attrs model.LicenseAttributes) (*model.SignedLicense, error) {
	if strings.TrimSpace(attrs.Name) == "" {
		return nil, fmt.Errorf("%w: name 不能为空", ErrInvalidAttributes)
	}
	if attrs.MaxUsers < 0 {
		return nil, fmt.Errorf("%w: max_users 不能为负数", ErrInvalidAttributes)
	}
	if attrs.MaxUsers == 0 {
		attrs.MaxUsers = 1
	}

	licenseKey, err := i.GenerateKey(attrs)
	if err != nil {
		return nil, err
	}

	data := model.LicenseData{
		Name:       attrs.Name,
		Company:    attrs.Company,
		Email:      attrs.Email,
		MaxUsers:   attrs.MaxUsers,
		StartDate:  attrs.StartDate,
		ExpiryDate: attrs.ExpiryDate,
		LicenseKey: licenseKey,
	}

	return i.signer.Sign(data)
}
