// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPass      string
	DBName      string

	SessionSecret     string
	SessionTTLMinutes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TemplatesDir string
	AssetsDir    string

	DefaultWarehouseID int64
}

// Load reads .env when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBName:      os.Getenv("DB_NAME"),

		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionTTLMinutes: getenvInt("SESSION_TTL_MINUTES", 720),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),

		TemplatesDir: getenv("TEMPLATES_DIR", "web/templates"),
		AssetsDir:    getenv("ASSETS_DIR", "web/assets"),

		DefaultWarehouseID: int64(getenvInt("DEFAULT_WAREHOUSE_ID", 1)),
	}
}

// DSN assembles the postgres connection string. DATABASE_URL wins when set;
// otherwise the DB_* parts are combined. Empty when no database is
// configured.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBHost == "" || c.DBName == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPass), c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
