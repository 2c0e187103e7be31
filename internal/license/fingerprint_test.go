package license

import (
	"regexp"
	"testing"

	"cem-license-manager/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	attrs := model.LicenseAttributes{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Company:  "Analytical Engines",
		MaxUsers: 5,
	}

	first := Fingerprint(attrs)
	second := Fingerprint(attrs)

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), first)
}

func TestFingerprintSensitiveToMaxUsers(t *testing.T) {
	base := model.LicenseAttributes{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Company:  "Analytical Engines",
		MaxUsers: 5,
	}
	changed := base
	changed.MaxUsers = 6

	assert.NotEqual(t, Fingerprint(base), Fingerprint(changed))
}

func TestFingerprintDefaultsMissingFields(t *testing.T) {
	// 公司缺省按空串、并发数缺省按1参与计算
	implicit := model.LicenseAttributes{Name: "张三", Email: "zs@example.com"}
	explicit := model.LicenseAttributes{Name: "张三", Email: "zs@example.com", Company: "", MaxUsers: 1}

	assert.Equal(t, Fingerprint(explicit), Fingerprint(implicit))
}
