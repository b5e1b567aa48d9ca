package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/server"
)

// LoadServerConfig loads HTTP bridge settings.
func LoadServerConfig() (server.Config, error) {
	cfg := server.DefaultConfig()

	if v := viper.GetString("server.addr"); v != "" {
		cfg.Addr = v
	}
	if v := viper.GetInt64("server.max_upload_bytes"); v != 0 {
		cfg.MaxUploadBytes = v
	}
	if v := viper.GetString("server.upload_dir"); v != "" {
		cfg.UploadDir = ExpandPath(v)
	}
	if v := viper.GetDuration("server.shutdown_timeout"); v != 0 {
		cfg.ShutdownTimeout = v
	}

	if cfg.Addr == "" {
		return server.Config{}, fmt.Errorf("%w: server.addr is required", common.ErrInvalidConfig)
	}
	if cfg.MaxUploadBytes < 0 {
		return server.Config{}, fmt.Errorf("%w: server.max_upload_bytes must be positive", common.ErrInvalidConfig)
	}
	return cfg, nil
}
