package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port               int      `mapstructure:"port"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
	CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	LoginRatePerMinute int      `mapstructure:"login_rate_per_minute"`
	LoginBurst         int      `mapstructure:"login_burst"`
	// TrustedProxies lists addresses or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // file | ephemeral | memory | postgres
	Dir    string `mapstructure:"dir"`
	DSN    string `mapstructure:"dsn"`
}

type LockConfig struct {
	Driver string        `mapstructure:"driver"` // local | redis
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	DashboardCache bool   `mapstructure:"dashboard_cache"`
}

type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	ExpirationMinutes int    `mapstructure:"expiration_minutes"`
	Issuer            string `mapstructure:"issuer"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type CompanyConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
	Website string `mapstructure:"website"`
}

type BackupConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Schedule        string `mapstructure:"schedule"`
}

type JobsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	OverdueSchedule string `mapstructure:"overdue_schedule"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Lock    LockConfig    `mapstructure:"lock"`
	Redis   RedisConfig   `mapstructure:"redis"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Company CompanyConfig `mapstructure:"company"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Log     LogConfig     `mapstructure:"log"`
}

// DefaultSecret is the placeholder shipped in defaults. The server refuses it
// outside development.
const DefaultSecret = "your-secret-key-here-change-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 2205)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:2004", "http://127.0.0.1:2004"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("server.login_rate_per_minute", 10)
	v.SetDefault("server.login_burst", 5)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("lock.driver", "local")
	v.SetDefault("lock.ttl", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dashboard_cache", false)

	v.SetDefault("jwt.secret", DefaultSecret)
	v.SetDefault("jwt.expiration_minutes", 30*24*60)
	v.SetDefault("jwt.issuer", "invoice-backend")

	v.SetDefault("admin.email", "admin@aasko.com")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.name", "Admin User")

	v.SetDefault("company.name", "Aasko Construction")
	v.SetDefault("company.address", "123 Construction Ave, Building City")
	v.SetDefault("company.phone", "+1-555-0123")
	v.SetDefault("company.email", "info@aasko.com")
	v.SetDefault("company.website", "www.aasko.com")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "invoice-backups")
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.region", "auto")
	v.SetDefault("backup.access_key_id", "")
	v.SetDefault("backup.secret_access_key", "")
	v.SetDefault("backup.schedule", "0 2 * * *")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.overdue_schedule", "@hourly")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configs/config.yaml (optional), .env (optional) and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()
	return load("configs/config.yaml")
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	// storage.dir -> STORAGE_DIR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	applyLegacyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyLegacyEnv honours the flat variable names older deployments use.
func applyLegacyEnv(cfg *Config) {
	if dir := os.Getenv("FILE_DB_DIR"); dir != "" {
		cfg.Storage.Dir = dir
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	} else if secret := os.Getenv("SECRET_KEY"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if mins := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); mins != "" {
		if n, err := strconv.Atoi(mins); err == nil && n > 0 {
			cfg.JWT.ExpirationMinutes = n
		}
	}
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		cfg.Admin.Email = email
	}
	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		cfg.Admin.Password = pass
	}
	if name := os.Getenv("ADMIN_NAME"); name != "" {
		cfg.Admin.Name = name
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
}

// Validate checks the combinations Load cannot express as defaults.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "ephemeral", "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.driver postgres needs storage.dsn or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.Lock.Driver {
	case "local":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("lock.driver redis needs redis.addr or REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown lock.driver %q", c.Lock.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must not be empty")
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return errors.New("jwt.expiration_minutes must be positive")
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return errors.New("backup.enabled needs backup.bucket")
	}
	return nil
}
