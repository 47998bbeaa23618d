package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	ShutdownTimeout         time.Duration
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int

	HelloHost string
	HelloPort string
	TeaPort   string
	WebPort   string

	TeaStore    string
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	MongoURI     string
	MongoDB      string
	MongoTimeout time.Duration

	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int

	MediaHost         string
	MediaRoot         string
	MediaPublicURL    string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PublicURL       string
	UploadTempDir     string
	MaxUploadSize     int64
	ImageMaxDimension int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := getEnv("PORT", "8000")

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),

		ServerPort:              port,
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:         getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGIN", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 20),

		HelloHost: getEnv("HELLO_HOST", "127.0.0.1"),
		HelloPort: getEnv("HELLO_PORT", "3000"),
		TeaPort:   getEnv("TEA_PORT", getEnv("PORT", "3000")),
		WebPort:   getEnv("WEB_PORT", "3002"),

		TeaStore:    strings.ToLower(getEnv("TEA_STORE", "memory")),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 1)),

		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("DB_NAME", "teahouse"),
		MongoTimeout: getDuration("MONGODB_TIMEOUT", 15*time.Second),

		AccessTokenSecret:  strings.TrimSpace(os.Getenv("ACCESS_TOKEN_SECRET")),
		AccessTokenExpiry:  getDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		RefreshTokenSecret: strings.TrimSpace(os.Getenv("REFRESH_TOKEN_SECRET")),
		RefreshTokenExpiry: getDuration("REFRESH_TOKEN_EXPIRY", 240*time.Hour),
		BcryptCost:         getInt("BCRYPT_COST", 10),

		MediaHost:         strings.ToLower(getEnv("MEDIA_HOST", "local")),
		MediaRoot:         getEnv("MEDIA_ROOT", "./public/media"),
		MediaPublicURL:    getEnv("MEDIA_PUBLIC_URL", "http://localhost:"+port+"/static"),
		S3Bucket:          strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3PublicURL:       strings.TrimSpace(os.Getenv("S3_PUBLIC_URL")),
		UploadTempDir:     getEnv("UPLOAD_TEMP_DIR", "./public/temp"),
		MaxUploadSize:     getInt64("MAX_UPLOAD_SIZE", 50*1024*1024),
		ImageMaxDimension: getInt("IMAGE_MAX_DIMENSION", 1024),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.TeaStore {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TEA_STORE=postgres")
		}
	default:
		return fmt.Errorf("TEA_STORE must be memory or postgres, got %q", c.TeaStore)
	}

	return nil
}

// ValidateUsersAPI checks the settings only the users API needs.
func (c *Config) ValidateUsersAPI() error {
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}

	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}

	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}

	if strings.TrimSpace(c.MongoURI) == "" {
		return fmt.Errorf("MONGODB_URI cannot be empty")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if strings.TrimSpace(c.UploadTempDir) == "" {
		return fmt.Errorf("UPLOAD_TEMP_DIR cannot be empty")
	}

	switch c.MediaHost {
	case "local":
		if strings.TrimSpace(c.MediaRoot) == "" {
			return fmt.Errorf("MEDIA_ROOT cannot be empty")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when MEDIA_HOST=s3")
		}
	default:
		return fmt.Errorf("MEDIA_HOST must be local or s3, got %q", c.MediaHost)
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

// getDuration accepts Go durations ("15m") and the "1d"/"10d" day shorthand
// used by token expiry settings.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return fallback
		}
		return time.Duration(n) * 24 * time.Hour
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
