package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/services/email"
)

type Config struct {
	Database    database.DatabaseConfig
	MercadoPago MercadoPagoConfig
	SMTP        email.SMTPConfig
	Server      ServerConfig
	Redis       RedisConfig
	Session     SessionConfig
	JWT         JWTConfig
}

type MercadoPagoConfig struct {
	PublicKey   string
	AccessToken string
	// BaseURL vazio usa o endpoint padrão do gateway
	BaseURL string
}

type ServerConfig struct {
	Port string
	// PublicBaseURL é usada nas URLs de retorno (back_url) das assinaturas
	PublicBaseURL string
	SuccessPath   string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

type SessionConfig struct {
	Secret string
	Domain string
	MaxAge int
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	InternalSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	workerConcurrency := 2
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workerConcurrency = n
		}
	}

	sessionMaxAge := 1800
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionMaxAge = n
		}
	}

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		MercadoPago: MercadoPagoConfig{
			PublicKey:   os.Getenv("MP_PUBLIC_KEY"),
			AccessToken: os.Getenv("MP_ACCESS_TOKEN"),
			BaseURL:     os.Getenv("MP_BASE_URL"),
		},
		SMTP: email.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Server: ServerConfig{
			Port:          os.Getenv("SERVER_PORT"),
			PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
			SuccessPath:   os.Getenv("CHECKOUT_SUCCESS_PATH"),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: workerConcurrency,
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Domain: os.Getenv("SESSION_DOMAIN"),
			MaxAge: sessionMaxAge,
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			Issuer:         os.Getenv("JWT_ISSUER"),
			InternalSecret: os.Getenv("INTERNAL_API_SECRET"),
		},
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}

	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "vitrine-checkout-api"
	}

	log.Printf("Configuration loaded")
	return cfg
}
