package config

import (
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config 服务配置，全部来自环境变量，前缀 CEM_
type Config struct {
	Listen    string `envconfig:"LISTEN" default:":8080"`
	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	KeysDir   string `envconfig:"KEYS_DIR"`
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Google Sheet 同步，默认关闭
	SheetSync           bool   `envconfig:"SHEET_SYNC" default:"false"`
	SheetCredentialPath string `envconfig:"SHEET_CREDENTIAL"`
	SpreadsheetID       string `envconfig:"SPREADSHEET_ID"`
	SheetName           string `envconfig:"SHEET_NAME" default:"licenses"`
}

// Load 读取环境变量，密钥目录默认放在数据目录下
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("cem", &cfg); err != nil {
		return nil, err
	}

	if cfg.KeysDir == "" {
		cfg.KeysDir = filepath.Join(cfg.DataDir, "keys")
	}
	return &cfg, nil
}
