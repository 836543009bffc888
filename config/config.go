package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const MinJWTSecretLength = 32

type Config struct {
	Env         string
	Port        string
	FrontendURL string
	CORSOrigins []string
	LogLevel    string
	LogFile     string

	JWTSecret string
	JWTExpire time.Duration

	RedisURL string

	MaxFileSize int64
	MaxFiles    int
	UploadDir   string

	RateLimitMax    int
	RateLimitWindow time.Duration

	ReconcileInterval time.Duration

	SendgridAPIKey string
	MailFrom       string
	AppName        string

	RollbarToken string
	Build        string

	Database DatabaseConfig
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
func (c *Config) IsTest() bool       { return c.Env == "test" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("NODE_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_EXPIRE", "720h")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("MAX_FILES", 5)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RECONCILE_INTERVAL", "15m")
	v.SetDefault("MAIL_FROM", "no-reply@notemate.app")
	v.SetDefault("APP_NAME", "NoteMate")
	v.SetDefault("BUILD", "dev")
	setDatabaseDefaults(v)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	env := v.GetString("APP_ENV")
	if env == "" {
		env = v.GetString("NODE_ENV")
	}

	cfg := &Config{
		Env:               env,
		Port:              v.GetString("PORT"),
		FrontendURL:       strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFile:           v.GetString("LOG_FILE"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTExpire:         parseExpire(v.GetString("JWT_EXPIRE")),
		RedisURL:          v.GetString("REDIS_URL"),
		MaxFileSize:       v.GetInt64("MAX_FILE_SIZE"),
		MaxFiles:          v.GetInt("MAX_FILES"),
		UploadDir:         v.GetString("UPLOAD_DIR"),
		RateLimitMax:      v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),
		ReconcileInterval: v.GetDuration("RECONCILE_INTERVAL"),
		SendgridAPIKey:    v.GetString("SENDGRID_API_KEY"),
		MailFrom:          v.GetString("MAIL_FROM"),
		AppName:           v.GetString("APP_NAME"),
		RollbarToken:      v.GetString("ROLLBAR_TOKEN"),
		Build:             v.GetString("BUILD"),
		Database:          loadDatabaseConfig(v),
	}
	cfg.CORSOrigins = corsOrigins(cfg, v.GetString("CORS_ORIGINS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Database.URI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return errors.Errorf("JWT_SECRET must be at least %d characters long", MinJWTSecretLength)
	}
	if c.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if c.MaxFiles <= 0 {
		return errors.New("MAX_FILES must be positive")
	}
	return nil
}

// parseExpire accepts Go durations and the "30d" day form.
func parseExpire(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		if d, err := time.ParseDuration(strings.TrimSuffix(s, "d") + "h"); err == nil {
			return d * 24
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 30 * 24 * time.Hour
}

func corsOrigins(c *Config, raw string) []string {
	if raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return origins
	}
	if c.IsProduction() {
		return []string{c.FrontendURL}
	}
	return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
}
