package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string
	JWTKey   []byte
	JWTExp   time.Duration

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBConnStr      string
	DBMaxOpenConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:         getEnv("API_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTKey:          []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:          time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "user"),
		DBPassword:      getEnv("DB_PASSWORD", "password"),
		DBName:          getEnv("DB_NAME", "chall_zone"),
		DBSslMode:       getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 2<<20)),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
