package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Broker    BrokerConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
	// Timezone decides which calendar day counts as today for booking.
	Timezone string
	// MigrationsPath is a file:// source URL consumed by golang-migrate.
	MigrationsPath string
	AutoMigrate    bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type AuthConfig struct {
	IdentityCacheTTL time.Duration
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	PrescriptionBkt string
	PublicBaseURL   string
}

type BrokerConfig struct {
	URL      string
	Exchange string
}

type RateLimitConfig struct {
	BookingPerMinute int
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	return build(), nil
}

func build() *Config {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("AUTO_MIGRATE", true)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("MINIO_BUCKET_PRESCRIPTIONS", "prescriptions")
	viper.SetDefault("RABBITMQ_EXCHANGE", "appointments")
	viper.SetDefault("RATE_LIMIT_BOOKING_PER_MINUTE", 30)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	return &Config{
		App: AppConfig{
			Port:           viper.GetString("APP_PORT"),
			Env:            viper.GetString("APP_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			Timezone:       viper.GetString("APP_TIMEZONE"),
			MigrationsPath: viper.GetString("MIGRATIONS_PATH"),
			AutoMigrate:    viper.GetBool("AUTO_MIGRATE"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Auth: AuthConfig{
			IdentityCacheTTL: durationOr("AUTH_IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			Endpoint:        viper.GetString("MINIO_ENDPOINT"),
			AccessKey:       viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey:       viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:          viper.GetBool("MINIO_USE_SSL"),
			PrescriptionBkt: viper.GetString("MINIO_BUCKET_PRESCRIPTIONS"),
			PublicBaseURL:   viper.GetString("MINIO_PUBLIC_BASE_URL"),
		},
		Broker: BrokerConfig{
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
		},
		RateLimit: RateLimitConfig{
			BookingPerMinute: viper.GetInt("RATE_LIMIT_BOOKING_PER_MINUTE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
