package config

import (
	"fmt"

	"github.com/notewind/syncagent/internal/models"
)

// Config is the root configuration for the sync agent. Targets map a
// user-chosen name to one remote root pair.
type Config struct {
	Server     ServerConfig                 `mapstructure:"server"`
	Logging    LoggingConfig                `mapstructure:"logging"`
	Encryption EncryptionConfig             `mapstructure:"encryption"`
	Sync       SyncOptionsConfig            `mapstructure:"sync"`
	Targets    map[string]models.SyncConfig `mapstructure:"targets"`

	logger syncLogger
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

// EncryptionConfig enables at-rest encryption of remote copies. Password and
// Salt feed key derivation; both are required when Enabled is true.
type EncryptionConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Password string `mapstructure:"password"`
	Salt     string `mapstructure:"salt"`
}

// SyncOptionsConfig holds the allow-lists applied to every sync pass.
type SyncOptionsConfig struct {
	Extensions     []string `mapstructure:"extensions"`
	AttachmentDirs []string `mapstructure:"attachment_dirs"`
}

// GetServerAddress returns the server bind address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetLogger returns the ring buffer log hook installed by Load.
func (c *Config) GetLogger() *syncLogger {
	return &c.logger
}
