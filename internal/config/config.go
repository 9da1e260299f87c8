package config

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/notewind/syncagent/internal/models"
)

func DefaultConfig() *Config {

	v := viper.New()

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if err := setupViperConfig(v, configFile); err != nil {
		return nil, err
	}

	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		// .env file not found, that's okay - continue with other sources
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) error {
	// Set configuration file details
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/notewind")

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	if err := setupHomeConfigPath(v); err != nil {
		return err
	}

	setDefaults(v)

	// Set environment variable settings
	v.SetEnvPrefix("NOTEWIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	return nil
}

// setupHomeConfigPath adds the home directory config path if available
func setupHomeConfigPath(v *viper.Viper) error {
	home := os.Getenv("HOME")
	if len(home) == 0 {
		return nil
	}

	usr, err := user.Current()
	if err != nil {
		logrus.Fatalf("Failed to get current user: %v", err)
	}

	configPath := filepath.Join(usr.HomeDir, ".config", "notewind")
	v.AddConfigPath(configPath)

	// Check if the folder exists and create it if it does not exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(configPath, os.ModePerm); err != nil {
			logrus.Errorf("Failed to create config directory: %v", err)
		}
	}

	return nil
}

// bindEnvironmentVariables binds all environment variables to viper
func bindEnvironmentVariables(v *viper.Viper) {

	// Server environment variables
	v.BindEnv("server.host", "NOTEWIND_SERVER_HOST")
	v.BindEnv("server.port", "NOTEWIND_SERVER_PORT")

	// Encryption environment variables
	v.BindEnv("encryption.enabled", "NOTEWIND_ENCRYPTION_ENABLED")
	v.BindEnv("encryption.password", "NOTEWIND_ENCRYPTION_PASSWORD")
	v.BindEnv("encryption.salt", "NOTEWIND_ENCRYPTION_SALT")

	bindLoggingEnvVars(v)
	bindSyncEnvVars(v)
}

// bindLoggingEnvVars binds logging configuration environment variables
func bindLoggingEnvVars(v *viper.Viper) {
	v.BindEnv("logging.level", "NOTEWIND_LOGGING_LEVEL")
	v.BindEnv("logging.format", "NOTEWIND_LOGGING_FORMAT")
}

// bindSyncEnvVars binds sync pass environment variables
func bindSyncEnvVars(v *viper.Viper) {
	v.BindEnv("sync.extensions", "NOTEWIND_SYNC_EXTENSIONS")
	v.BindEnv("sync.attachment_dirs", "NOTEWIND_SYNC_ATTACHMENT_DIRS")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	// Read configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.logger = *NewSyncLogger()
	logrus.AddHook(&config.logger)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warnln("Unknown logging format, falling back to text")
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8787)

	v.SetDefault("encryption.enabled", false)

	v.SetDefault("sync.extensions", []string{".md"})
	v.SetDefault("sync.attachment_dirs", []string{"attachments"})
}

// GetTarget returns the named sync target or an error listing the ones that
// exist.
func (c *Config) GetTarget(name string) (*models.SyncConfig, error) {
	target, ok := c.Targets[name]
	if !ok {
		names := make([]string, 0, len(c.Targets))
		for n := range c.Targets {
			names = append(names, n)
		}
		return nil, fmt.Errorf("unknown sync target %q, configured targets: %s",
			name, strings.Join(names, ", "))
	}
	return &target, nil
}

// EnabledTargets returns the targets that are enabled, keyed by name.
func (c *Config) EnabledTargets() map[string]models.SyncConfig {
	enabled := make(map[string]models.SyncConfig)
	for name, target := range c.Targets {
		if target.Enabled {
			enabled[name] = target
		}
	}
	return enabled
}
