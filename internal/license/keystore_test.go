package license

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreInitGeneratesKeyPair(t *testing.T) {
	dir := t.TempDir()
	ks := NewKeyStore(filepath.Join(dir, "keys"))

	err := ks.Init()
	require.NoError(t, err)

	// 两个密钥文件都应该落盘
	assert.FileExists(t, filepath.Join(dir, "keys", "public_key.pem"))
	assert.FileExists(t, filepath.Join(dir, "keys", "private_key.pem"))

	publicPEM, err := ks.PublicKeyPEM()
	require.NoError(t, err)
	assert.Contains(t, publicPEM, "PUBLIC KEY")
}

func TestKeyStoreInitLoadsExistingKeyPair(t *testing.T) {
	dir := t.TempDir()

	first := NewKeyStore(dir)
	require.NoError(t, first.Init())
	firstPEM, err := first.PublicKeyPEM()
	require.NoError(t, err)

	// 第二次初始化应加载同一对密钥而不是重新生成
	second := NewKeyStore(dir)
	require.NoError(t, second.Init())
	secondPEM, err := second.PublicKeyPEM()
	require.NoError(t, err)

	assert.Equal(t, firstPEM, secondPEM)
}

func TestKeyStoreInitIdempotent(t *testing.T) {
	ks := NewKeyStore(t.TempDir())
	require.NoError(t, ks.Init())
	require.NoError(t, ks.Init())
}

func TestKeyStorePublicKeyBeforeInit(t *testing.T) {
	ks := NewKeyStore(t.TempDir())

	_, err := ks.PublicKeyPEM()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestKeyStoreMismatchedPairRejected(t *testing.T) {
	dir := t.TempDir()

	first := NewKeyStore(dir)
	require.NoError(t, first.Init())

	// 用另一个安装的公钥覆盖本机公钥文件
	otherDir := t.TempDir()
	other := NewKeyStore(otherDir)
	require.NoError(t, other.Init())

	otherPublic, err := os.ReadFile(filepath.Join(otherDir, "public_key.pem"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public_key.pem"), otherPublic, 0o644))

	reloaded := NewKeyStore(dir)
	err = reloaded.Init()
	assert.ErrorIs(t, err, ErrKeyIO)
}

func TestKeyStoreCorruptKeyFile(t *testing.T) {
	dir := t.TempDir()

	ks := NewKeyStore(dir)
	require.NoError(t, ks.Init())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "private_key.pem"), []byte("not a key"), 0o600))

	reloaded := NewKeyStore(dir)
	err := reloaded.Init()
	assert.ErrorIs(t, err, ErrKeyIO)
}
