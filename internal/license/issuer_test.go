package license

import (
	"regexp"
	"strings"
	"testing"

	"cem-license-manager/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var licenseKeyPattern = regexp.MustCompile(`^[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{8}$`)

func newTestIssuer(t *testing.T) (*Issuer, *Signer) {
	t.Helper()
	signer := newTestSigner(t)
	return NewIssuer(signer), signer
}

func TestGenerateKeyFormat(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	attrs := model.LicenseAttributes{Name: "Ada Lovelace", Email: "ada@example.com", MaxUsers: 5}

	key, err := issuer.GenerateKey(attrs)
	require.NoError(t, err)
	assert.Regexp(t, licenseKeyPattern, key)

	// 末段来自指纹前8位，与许可证内容绑定
	fingerprint := Fingerprint(attrs)
	assert.Equal(t, strings.ToUpper(fingerprint[:8]), key[len(key)-8:])
}

func TestGenerateKeyUniqueness(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	attrs := model.LicenseAttributes{Name: "Ada Lovelace", MaxUsers: 1}

	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		key, err := issuer.GenerateKey(attrs)
		require.NoError(t, err)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestIssueSignsGeneratedKey(t *testing.T) {
	issuer, signer := newTestIssuer(t)

	signed, err := issuer.Issue(model.LicenseAttributes{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Company:    "Analytical Engines",
		MaxUsers:   5,
		ExpiryDate: "2099-01-01",
	})
	require.NoError(t, err)

	assert.Regexp(t, licenseKeyPattern, signed.Data.LicenseKey)
	assert.True(t, signer.Verify(signed))

	// 密钥参与签名：换掉密钥串后签名失效
	swapped := *signed
	swapped.Data.LicenseKey = "0000-0000-0000-0000-00000000"
	assert.False(t, signer.Verify(&swapped))
}

func TestIssueValidatesAttributes(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	tests := []struct {
		name  string
		attrs model.LicenseAttributes
	}{
		{"missing_name", model.LicenseAttributes{Email: "x@example.com"}},
		{"blank_name", model.LicenseAttributes{Name: "   "}},
		{"negative_max_users", model.LicenseAttributes{Name: "Ada", MaxUsers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Issue(tt.attrs)
			assert.ErrorIs(t, err, ErrInvalidAttributes)
		})
	}
}

func TestIssueDefaultsMaxUsers(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	signed, err := issuer.Issue(model.LicenseAttributes{Name: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, 1, signed.Data.MaxUsers)
}

func TestIssueFailsWithoutKeys(t *testing.T) {
	issuer := NewIssuer(NewSigner(NewKeyStore(t.TempDir())))

	_, err := issuer.Issue(model.LicenseAttributes{Name: "Ada Lovelace"})
	assert.ErrorIs(t, err, ErrSigning)
}
