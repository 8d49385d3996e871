package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Signing  SigningConfig  `mapstructure:"signing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	BasePath         string `mapstructure:"base_path"`         // Root of the artifact store
	DocumentsFolder  string `mapstructure:"documents_folder"`  // Folder for document binaries
	SignaturesFolder string `mapstructure:"signatures_folder"` // Folder for reference signature images
}

type SigningConfig struct {
	LockTTL        time.Duration `mapstructure:"lock_ttl"`         // Per-document lock lifetime (seconds)
	LockRetries    int           `mapstructure:"lock_retries"`     // Attempts before giving up on a busy document
	LockRetryDelay time.Duration `mapstructure:"lock_retry_delay"` // Delay between attempts (milliseconds)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Durations arrive as bare numbers
	cfg.Signing.LockTTL = cfg.Signing.LockTTL * time.Second
	cfg.Signing.LockRetryDelay = cfg.Signing.LockRetryDelay * time.Millisecond

	if cfg.Signing.LockTTL <= 0 {
		cfg.Signing.LockTTL = 15 * time.Second
	}
	if cfg.Signing.LockRetries <= 0 {
		cfg.Signing.LockRetries = 5
	}
	if cfg.Signing.LockRetryDelay <= 0 {
		cfg.Signing.LockRetryDelay = 200 * time.Millisecond
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
