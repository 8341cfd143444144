package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const APIKeyEnvVar = "STATIC_API_KEY"

var ErrMissingAPIKey = errors.New(`missing required environment variable "` + APIKeyEnvVar + `" for API key authentication`)

type DBConfig struct {
	Driver      string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	Params      string
	SQLitePath  string
	AutoMigrate bool
}

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	APIKey         string
	DB             DBConfig
	RateLimitRPS   float64
	RateLimitBurst int
	AllowOrigins   []string
}

// Load reads .env (if present) and the process environment.
// The API key is mandatory; everything else has a default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("no .env file loaded: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	apiKey := os.Getenv(APIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  os.Getenv("GIN_MODE"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		APIKey:   apiKey,
		DB: DBConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			Host:        getEnv("MYSQL_HOST", "localhost"),
			Port:        getEnv("MYSQL_PORT", "3306"),
			User:        getEnv("MYSQL_USER", "root"),
			Password:    getEnv("MYSQL_PASSWORD", "root"),
			Name:        getEnv("MYSQL_DATABASE", "restaurant_reservation"),
			Params:      getEnv("MYSQL_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local"),
			SQLitePath:  getEnv("SQLITE_PATH", "reservations.db"),
			AutoMigrate: getEnv("DB_AUTO_MIGRATE", "true") == "true",
		},
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		AllowOrigins:   splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
	}, nil
}

// DSN returns the MySQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.Params,
	)
}

// InitDB opens the configured store.
func InitDB(cfg DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	utils.InfoLogger.Printf("Connected to %s database", cfg.Driver)
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
