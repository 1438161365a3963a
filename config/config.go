package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port            int
		ShutdownTimeout time.Duration
	}
	DB struct {
		Type           string // postgres или sqlite
		Host           string
		Port           int
		User           string
		Password       string
		DBName         string
		SSLMode        string
		Path           string // файл sqlite
		MigrationsPath string
	}
	JWT struct {
		SecretKey  string
		AccessTTL  time.Duration
		RefreshTTL time.Duration
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Twilio struct {
		AccountSID string
		AuthToken  string
		From       string
	}
	Log struct {
		Level  string
		Format string
	}
	Scheduler struct {
		OverdueCron string
	}
	Portal struct {
		RateLimit  int
		RateWindow time.Duration
	}
	CORSOrigin string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("db.type", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "invoicer")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "invoicer.db")
	v.SetDefault("db.migrations_path", "file://migrations")

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.access_ttl", "1m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@invoicer.local")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.overdue_cron", "5 0 * * *")

	v.SetDefault("portal.rate_limit", 10)
	v.SetDefault("portal.rate_window", "1m")

	v.SetDefault("cors.origin", "*")
}

// NewConfig создает новый экземпляр конфигурации.
// Значения берутся из переменных окружения (и .env, если он есть), например DB_HOST или JWT_ACCESS_TTL.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}

	// Настройки сервера
	cfg.Server.Port = v.GetInt("server.port")
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %q", v.GetString("server.port"))
	}
	cfg.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")

	// Настройки базы данных
	cfg.DB.Type = strings.ToLower(v.GetString("db.type"))
	if cfg.DB.Type != "postgres" && cfg.DB.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported database type: %q", cfg.DB.Type)
	}
	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	if cfg.DB.Type == "postgres" && cfg.DB.Port <= 0 {
		return nil, fmt.Errorf("invalid database port: %q", v.GetString("db.port"))
	}
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")
	cfg.DB.SSLMode = v.GetString("db.sslmode")
	cfg.DB.Path = v.GetString("db.path")
	cfg.DB.MigrationsPath = v.GetString("db.migrations_path")

	// Настройки JWT
	cfg.JWT.SecretKey = v.GetString("jwt.secret_key")
	cfg.JWT.AccessTTL = v.GetDuration("jwt.access_ttl")
	cfg.JWT.RefreshTTL = v.GetDuration("jwt.refresh_ttl")
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	// Настройки SMTP
	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	if cfg.SMTP.Port <= 0 {
		return nil, fmt.Errorf("invalid SMTP port: %q", v.GetString("smtp.port"))
	}
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")

	cfg.Twilio.AccountSID = v.GetString("twilio.account_sid")
	cfg.Twilio.AuthToken = v.GetString("twilio.auth_token")
	cfg.Twilio.From = v.GetString("twilio.from")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.Scheduler.OverdueCron = v.GetString("scheduler.overdue_cron")

	cfg.Portal.RateLimit = v.GetInt("portal.rate_limit")
	cfg.Portal.RateWindow = v.GetDuration("portal.rate_window")
	if cfg.Portal.RateLimit <= 0 || cfg.Portal.RateWindow <= 0 {
		return nil, fmt.Errorf("portal rate limit must be positive")
	}

	cfg.CORSOrigin = v.GetString("cors.origin")

	return cfg, nil
}

// GetDBConnString возвращает DSN для PostgreSQL
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
}

// GetMigrateURL возвращает URL базы в формате golang-migrate
func (c *Config) GetMigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName, c.DB.SSLMode)
}
