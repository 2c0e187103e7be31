package license

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// 密钥文件名与桌面端保持一致，两个文件齐全才视为已初始化
const (
	publicKeyFile  = "public_key.pem"
	privateKeyFile = "private_key.pem"
	keyBits        = 2048
)

// KeyStore 管理本机唯一的 RSA 密钥对：首次初始化生成并落盘，之后从文件加载
type KeyStore struct {
	dir string

	mu         sync.Mutex
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	publicPEM  []byte
}

func NewKeyStore(dir string) *KeyStore {
	return &KeyStore{dir: dir}
}

// Init 初始化密钥对。密钥生成开销大，整个安装生命周期只做一次，
// 文件是否存在是"已初始化"的唯一判定依据
func (ks *KeyStore) Init() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.privateKey != nil {
		return nil
	}

	if err := os.MkdirAll(ks.dir, 0o755); err != nil {
		return fmt.Errorf("%w: 创建密钥目录失败: %v", ErrKeyIO, err)
	}

	publicPath := filepath.Join(ks.dir, publicKeyFile)
	privatePath := filepath.Join(ks.dir, privateKeyFile)

	if fileExists(publicPath) && fileExists(privatePath) {
		return ks.load(publicPath, privatePath)
	}
	return ks.generate(publicPath, privatePath)
}

// PublicKeyPEM 导出 PEM 格式公钥
func (ks *KeyStore) PublicKeyPEM() (string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.publicKey == nil {
		return "", ErrNotInitialized
	}
	return string(ks.publicPEM), nil
}

// private 返回私钥，供签名器使用
func (ks *KeyStore) private() (*rsa.PrivateKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.privateKey == nil {
		return nil, ErrNotInitialized
	}
	return ks.privateKey, nil
}

// public 返回公钥，供验签使用
func (ks *KeyStore) public() (*rsa.PublicKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.publicKey == nil {
		return nil, ErrNotInitialized
	}
	return ks.publicKey, nil
}

func (ks *KeyStore) generate(publicPath, privatePath string) error {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("%w: 生成RSA密钥对失败: %v", ErrKeyGeneration, err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: 编码公钥失败: %v", ErrKeyGeneration, err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	// 先写私钥再写公钥，私钥文件只允许属主读写
	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("%w: 保存私钥文件失败: %v", ErrKeyIO, err)
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("%w: 保存公钥文件失败: %v", ErrKeyIO, err)
	}

	ks.privateKey = key
	ks.publicKey = &key.PublicKey
	ks.publicPEM = publicPEM
	return nil
}

func (ks *KeyStore) load(publicPath, privatePath string) error {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("%w: 读取私钥文件失败: %v", ErrKeyIO, err)
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("%w: 读取公钥文件失败: %v", ErrKeyIO, err)
	}

	privateKey, err := parsePrivateKey(privatePEM)
	if err != nil {
		return fmt.Errorf("%w: 解析私钥失败: %v", ErrKeyIO, err)
	}
	publicKey, err := parsePublicKey(publicPEM)
	if err != nil {
		return fmt.Errorf("%w: 解析公钥失败: %v", ErrKeyIO, err)
	}

	// 公私钥必须是同一次生成的配对，避免混用不同安装的密钥文件
	if !privateKey.PublicKey.Equal(publicKey) {
		return fmt.Errorf("%w: 公钥与私钥不匹配", ErrKeyIO)
	}

	ks.privateKey = privateKey
	ks.publicKey = publicKey
	ks.publicPEM = publicPEM
	return nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("不是有效的PEM数据")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("私钥不是RSA类型")
	}
	return key, nil
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("不是有效的PEM数据")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("公钥不是RSA类型")
	}
	return key, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
