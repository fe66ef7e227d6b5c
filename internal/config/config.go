package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultDemoUserID is the reserved demo account. The account may browse the
// dashboard but every destructive write from it is rejected.
const DefaultDemoUserID = "d8b1a6a0-5c64-4e58-b114-6ef4f9a2d0e3"

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort   string
	MySQLDSN     string
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	JWTSecret    string
	DemoUserID   string
	MediaBaseURL string
	MediaAPIKey  string
	UploadDir    string
	APIBaseURL   string
	Debug        bool
	SwaggerHost  string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("SERVER_PORT", "8080")
	return &Config{
		ServerPort:   port,
		MySQLDSN:     getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/artmarket?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		DemoUserID:   getEnv("DEMO_USER_ID", DefaultDemoUserID),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "https://media.example.com/v1"),
		MediaAPIKey:  os.Getenv("MEDIA_API_KEY"),
		UploadDir:    getEnv("UPLOAD_DIR", os.TempDir()),
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:"+port+"/api"),
		Debug:        getEnvBool("DEBUG", false),
		SwaggerHost:  os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
