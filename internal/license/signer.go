package license

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"cem-license-manager/internal/model"
)

// Signer 用本机密钥对对许可证负载做签名和验签
type Signer struct {
	keys *KeyStore
}

func NewSigner(keys *KeyStore) *Signer {
	return &Signer{keys: keys}
}

// Sign 对负载做规范化序列化后用私钥签名，返回结构化负载加 base64 签名
func (s *Signer) Sign(data model.LicenseData) (*model.SignedLicense, error) {
	privateKey, err := s.keys.private()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: 序列化许可证数据失败: %v", ErrSigning, err)
	}

	digest := sha256.Sum256(payload)
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return &model.SignedLicense{
		Data:      data,
		Signature: base64.StdEncoding.EncodeToString(signature),
	}, nil
}

// Verify 校验签名。验签必须是全函数：任何内部错误一律算校验失败，
// 绝不向调用方抛错，避免许可证检查拖垮宿主应用
func (s *Signer) Verify(signed *model.SignedLicense) bool {
	if signed == nil || signed.Signature == "" {
		return false
	}
	if signed.Data == (model.LicenseData{}) {
		return false
	}

	publicKey, err := s.keys.public()
	if err != nil {
		return false
	}

	payload, err := json.Marshal(signed.Data)
	if err != nil {
		return false
	}

	signature, err := base64.StdEncoding.DecodeString(signed.Signature)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], signature) == nil
}

// IsExpired 判断许可证是否过期。没有过期时间或无法解析的一律按已过期处理
func IsExpired(signed *model.SignedLicense) bool {
	if signed == nil {
		return true
	}
	return DateExpired(signed.Data.ExpiryDate)
}

// DateExpired 判断日期字符串是否已经过期，空值和无法解析的日期都算过期
func DateExpired(value string) bool {
	if value == "" {
		return true
	}
	expiry, err := ParseDate(value)
	if err != nil {
		return true
	}
	return time.Now().After(expiry)
}

// ParseDate 解析许可证日期，支持 RFC3339 和 2006-01-02 两种写法，
// 纯日期按本地时区零点计
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, time.Local)
}
