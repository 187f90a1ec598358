package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/semmidev/keeper/internal/domain"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	LogRequests  bool          `mapstructure:"log_requests"`
	StaticDir    string        `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Name              string        `mapstructure:"name"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

type BackupConfig struct {
	LocalPath      string         `mapstructure:"local_path"`
	MaxOutputBytes int64          `mapstructure:"max_output_bytes"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	DumpBinary     string         `mapstructure:"dump_binary"`
	RestoreBinary  string         `mapstructure:"restore_binary"`
	Compress       bool           `mapstructure:"compress"`
	UploadTargets  []UploadTarget `mapstructure:"upload_targets"`
}

type ScheduleConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TriggerSecond int  `mapstructure:"trigger_second"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive, with a service account or an OAuth client and refresh token
	CredentialsFile  string `mapstructure:"credentials_file"`
	ClientSecretFile string `mapstructure:"client_secret_file"`
	RefreshToken     string `mapstructure:"refresh_token"`
	FolderID         string `mapstructure:"folder_id"`

	// AWS S3 or any S3 compatible endpoint
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Telegram
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	SendFile   bool   `mapstructure:"send_file"`
	NotifyOnly bool   `mapstructure:"notify_only"`
}

// Flat variables understood by the container images, next to the nested
// BACKUP_LOCAL_PATH style names that AutomaticEnv resolves on its own.
var legacyEnv = map[string][]string{
	"database.host":           {"DB_HOST"},
	"database.port":           {"DB_PORT"},
	"database.username":       {"DB_USER"},
	"database.password":       {"DB_PASSWORD"},
	"database.database":       {"DB_DATABASE", "DB_NAME"},
	"backup.local_path":       {"BACKUP_DIR"},
	"backup.max_output_bytes": {"BACKUP_BUFFER"},
	"server.port":             {"PORT"},
	"app.timezone":            {"APP_TIMEZONE"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "keeper")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "")
	v.SetDefault("app.timezone", "America/Sao_Paulo")

	v.SetDefault("server.address", ":3000")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 35*time.Minute)
	v.SetDefault("server.log_requests", true)
	v.SetDefault("server.static_dir", "public")

	v.SetDefault("database.name", "main")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "test")
	v.SetDefault("database.connect_retries", 15)
	v.SetDefault("database.connect_retry_delay", 2*time.Second)

	v.SetDefault("backup.local_path", "./backups")
	v.SetDefault("backup.max_output_bytes", 64*1024*1024)
	v.SetDefault("backup.timeout", 30*time.Minute)
	v.SetDefault("backup.dump_binary", "mysqldump")
	v.SetDefault("backup.restore_binary", "mysql")
	v.SetDefault("backup.compress", true)

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.trigger_second", domain.DefaultTriggerSecond)
}

// Load reads configuration from defaults, the optional YAML file at path and
// the environment, in increasing order of precedence. When required is false
// a missing file is not an error.
func Load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Backup.LocalPath == "" {
		return fmt.Errorf("backup.local_path is required")
	}
	if c.Backup.MaxOutputBytes <= 0 {
		return fmt.Errorf("backup.max_output_bytes must be positive")
	}
	if c.Backup.Timeout <= 0 {
		return fmt.Errorf("backup.timeout must be positive")
	}

	if !domain.ValidTriggerSecond(c.Schedule.TriggerSecond) {
		return fmt.Errorf("schedule.trigger_second must be between 0 and 59, got %d", c.Schedule.TriggerSecond)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	for i, target := range c.GetEnabledUploadTargets() {
		switch target.Type {
		case "s3":
			if target.Bucket == "" {
				return fmt.Errorf("upload_targets[%d]: bucket is required for s3", i)
			}
		case "gdrive":
			if target.CredentialsFile == "" && target.ClientSecretFile == "" {
				return fmt.Errorf("upload_targets[%d]: credentials_file or client_secret_file is required for gdrive", i)
			}
		case "telegram":
			if target.BotToken == "" || target.ChatID == "" {
				return fmt.Errorf("upload_targets[%d]: bot_token and chat_id are required for telegram", i)
			}
		}
	}

	return nil
}

// ListenAddr returns the HTTP listen address. A bare port (PORT) wins over
// server.address.
func (s ServerConfig) ListenAddr() string {
	if s.Port > 0 {
		return fmt.Sprintf(":%d", s.Port)
	}
	return s.Address
}

// Location resolves the application time zone. Backup names and the
// autobackup clock always use it, whatever the host zone is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}
