package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectName string
	APIPrefix   string
	ServerPort  string
	CORSOrigins string
	LogMode     string

	DBDriver   string // postgres, sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	JWTSecret                string
	AccessTokenExpireMinutes int

	UploadDir         string
	MaxFileSize       int64
	AllowedExtensions []string
	CertificatesDir   string
	BackupDir         string

	MaintenanceMode bool
	RedisURL        string

	SendgridAPIKey  string
	MailFrom        string
	FrontendBaseURL string
}

const defaultExtensions = ".jpg,.jpeg,.png,.gif,.pdf,.doc,.docx,.txt,.mp4,.mov,.avi,.mp3,.wav"

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		ProjectName: getEnv("PROJECT_NAME", "Online Courses Platform"),
		APIPrefix:   getEnv("API_V1_STR", "/api/v1"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogMode:     getEnv("LOG_MODE", "dev"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "courses_platform"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "courses.db"),

		JWTSecret:                getEnv("JWT_SECRET", "secret"),
		AccessTokenExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*7),

		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:       int64(getEnvInt("MAX_FILE_SIZE", 10*1024*1024)),
		AllowedExtensions: splitList(getEnv("ALLOWED_FILE_EXTENSIONS", defaultExtensions)),
		CertificatesDir:   getEnv("CERTIFICATES_DIR", "certificates"),
		BackupDir:         getEnv("BACKUP_DIR", "backups"),

		MaintenanceMode: getEnvBool("MAINTENANCE_MODE", false),
		RedisURL:        getEnv("REDIS_URL", ""),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFrom:        getEnv("MAIL_FROM", "no-reply@courses.local"),
		FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Invalid integer for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return i
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
