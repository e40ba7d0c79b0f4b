package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string `env:"APP_ADDR" env-default:":8080"`
	GinMode string `env:"GIN_MODE"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	StoreDriver string `env:"STORE_DRIVER" env-default:"mysql"`
	DBDSN       string `env:"DB_DSN"`
	DBHost      string `env:"DB_HOST" env-default:"127.0.0.1"`
	DBPort      string `env:"DB_PORT"`
	DBUser      string `env:"DB_USER" env-default:"root"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" env-default:"bus_booking"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWTSecret string        `env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	PublicBaseURL      string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	SMTPFrom string `env:"SMTP_FROM"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return env, fmt.Errorf("config error: %w", err)
	}

	env.StoreDriver = strings.ToLower(strings.TrimSpace(env.StoreDriver))
	env.AdminEmail = strings.ToLower(strings.TrimSpace(env.AdminEmail))
	env.PublicBaseURL = strings.TrimRight(strings.TrimSpace(env.PublicBaseURL), "/")
	if env.SMTPFrom == "" {
		env.SMTPFrom = env.SMTPUser
	}
	return env, nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS, falling back to local dev hosts.
func (e Env) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(e.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}
	return out
}

func (e Env) SMTPConfigured() bool {
	return e.SMTPHost != "" && e.SMTPUser != "" && e.SMTPPass != ""
}
