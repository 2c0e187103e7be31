package model

import "time"

// LicenseAttributes 签发许可证时的输入数据
type LicenseAttributes struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	MaxUsers   int    `json:"max_users"`
	StartDate  string `json:"start_date"`
	ExpiryDate string `json:"expiry_date"`
}

// LicenseUpdate 部分更新输入，仅非 nil 字段会被写入
type LicenseUpdate struct {
	Name       *string `json:"name"`
	Company    *string `json:"company"`
	Email      *string `json:"email"`
	LicenseKey *string `json:"license_key"`
	StartDate  *string `json:"start_date"`
	ExpiryDate *string `json:"expiry_date"`
	MaxUsers   *int    `json:"max_users"`
	Status     *string `json:"status"`
}

// Columns 把出现的字段转成列名到新值的映射，updated_at 由存储层补充
func (u *LicenseUpdate) Columns() map[string]interface{} {
	values := make(map[string]interface{})
	if u == nil {
		return values
	}

	if u.Name != nil {
		values["name"] = *u.Name
	}
	if u.Company != nil {
		values["company"] = *u.Company
	}
	if u.Email != nil {
		values["email"] = *u.Email
	}
	if u.LicenseKey != nil {
		values["license_key"] = *u.LicenseKey
	}
	if u.StartDate != nil {
		values["start_date"] = *u.StartDate
	}
	if u.ExpiryDate != nil {
		values["expiry_date"] = *u.ExpiryDate
	}
	if u.MaxUsers != nil {
		values["max_users"] = *u.MaxUsers
	}
	if u.Status != nil {
		values["status"] = *u.Status
	}

	return values
}

// Record 根据属性和已生成的许可证密钥组装待入库的记录
func (a *LicenseAttributes) Record(licenseKey string) *License {
	maxUsers := a.MaxUsers
	if maxUsers < 1 {
		maxUsers = 1
	}
	now := time.Now()

	return &License{
		Name:       a.Name,
		Company:    a.Company,
		Email:      a.Email,
		LicenseKey: licenseKey,
		StartDate:  a.StartDate,
		ExpiryDate: a.ExpiryDate,
		MaxUsers:   maxUsers,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
