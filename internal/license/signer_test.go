package license

import (
	"testing"

	"cem-license-manager/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	ks := NewKeyStore(t.TempDir())
	require.NoError(t, ks.Init())
	return NewSigner(ks)
}

func testData() model.LicenseData {
	return model.LicenseData{
		Name:       "Ada Lovelace",
		Company:    "Analytical Engines",
		Email:      "ada@example.com",
		MaxUsers:   5,
		StartDate:  "2024-01-01",
		ExpiryDate: "2099-01-01",
		LicenseKey: "AAAA-BBBB-CCCC-DDDD-12345678",
	}
}

func TestSignThenVerify(t *testing.T) {
	signer := newTestSigner(t)

	signed, err := signer.Sign(testData())
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Signature)

	assert.True(t, signer.Verify(signed))
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	signer := newTestSigner(t)

	signed, err := signer.Sign(testData())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*model.SignedLicense)
	}{
		{"changed_name", func(s *model.SignedLicense) { s.Data.Name = "Mallory" }},
		{"changed_max_users", func(s *model.SignedLicense) { s.Data.MaxUsers = 500 }},
		{"changed_expiry", func(s *model.SignedLicense) { s.Data.ExpiryDate = "2999-01-01" }},
		{"changed_key", func(s *model.SignedLicense) { s.Data.LicenseKey = "EEEE-FFFF-0000-1111-22222222" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutated := *signed
			tt.mutate(&mutated)
			assert.False(t, signer.Verify(&mutated))
		})
	}
}

func TestVerifyTotalOnMalformedInput(t *testing.T) {
	signer := newTestSigner(t)

	signed, err := signer.Sign(testData())
	require.NoError(t, err)

	// 各种残缺输入都只返回false，不panic不报错
	assert.False(t, signer.Verify(nil))
	assert.False(t, signer.Verify(&model.SignedLicense{}))
	assert.False(t, signer.Verify(&model.SignedLicense{Data: signed.Data}))
	assert.False(t, signer.Verify(&model.SignedLicense{Data: signed.Data, Signature: "not base64!!!"}))
	assert.False(t, signer.Verify(&model.SignedLicense{Signature: signed.Signature}))
}

func TestVerifyWithUninitializedKeys(t *testing.T) {
	signer := newTestSigner(t)
	signed, err := signer.Sign(testData())
	require.NoError(t, err)

	cold := NewSigner(NewKeyStore(t.TempDir()))
	assert.False(t, cold.Verify(signed))
}

func TestSignWithUninitializedKeys(t *testing.T) {
	cold := NewSigner(NewKeyStore(t.TempDir()))

	_, err := cold.Sign(testData())
	assert.ErrorIs(t, err, ErrSigning)
}

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name       string
		expiryDate string
		want       bool
	}{
		{"future_date", "2099-01-01", false},
		{"future_rfc3339", "2099-01-01T00:00:00Z", false},
		{"past_date", "2000-01-01", true},
		{"missing_date", "", true},
		{"malformed_date", "notadate", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testData()
			data.ExpiryDate = tt.expiryDate
			signed := &model.SignedLicense{Data: data}

			assert.Equal(t, tt.want, IsExpired(signed))
		})
	}

	assert.True(t, IsExpired(nil))
}

// 完整签发流程：改写副本的过期时间不影响原件验签，副本则验签失败且判定过期
func TestExpiryMutationScenario(t *testing.T) {
	ks := NewKeyStore(t.TempDir())
	require.NoError(t, ks.Init())
	signer := NewSigner(ks)
	issuer := NewIssuer(signer)

	signed, err := issuer.Issue(model.LicenseAttributes{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Company:    "Analytical Engines",
		MaxUsers:   5,
		ExpiryDate: "2099-01-01",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{8}$`, signed.Data.LicenseKey)
	assert.True(t, signer.Verify(signed))
	assert.False(t, IsExpired(signed))

	// 只改副本里的过期时间，不重新签名：签名校验不受影响，过期判断受影响
	copied := *signed
	copied.Data.ExpiryDate = "2000-01-01"
	assert.False(t, signer.Verify(&copied))
	assert.True(t, IsExpired(&copied))

	// 保持负载不变时签名仍然有效
	assert.True(t, signer.Verify(signed))
}
