package model

// LicenseData 参与签名的许可证负载。字段顺序决定规范化序列化结果，
// 签名与验签必须使用同一顺序，不可调整
type LicenseData struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	MaxUsers   int    `json:"maxUsers"`
	StartDate  string `json:"startDate"`
	ExpiryDate string `json:"expiryDate"`
	LicenseKey string `json:"licenseKey"`
}

// SignedLicense 签名后的许可证，data 被篡改后签名即失效
type SignedLicense struct {
	Data      LicenseData `json:"data"`
	Signature string      `json:"signature"`
}
