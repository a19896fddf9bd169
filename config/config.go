package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBDSN      string // sqlite file path, ":memory:" allowed

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins        []string
	LoginRatePerMinute int
	LogLevel           string

	SendgridAPIKey string
	MailFrom       string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	RollbarToken string

	FeedReminders bool
}

func (c *Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

var (
	conf     *Config
	confOnce sync.Once
)

// Get returns the process configuration, loading it on first use.
func Get() *Config {
	confOnce.Do(func() {
		conf = Load()
	})
	return conf
}

// Load reads .env (if any) and the environment into a fresh Config.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "worldcourse")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_DSN", "worldcourse.db")
	v.SetDefault("JWT_SECRET", "worldcourse-dev-secret")
	v.SetDefault("JWT_TTL", 72*time.Hour)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "noreply@worldcourse.local")
	v.SetDefault("SUPABASE_URL", "")
	v.SetDefault("SUPABASE_KEY", "")
	v.SetDefault("SUPABASE_BUCKET", "uploads")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("FEED_REMINDERS", true)
	v.AutomaticEnv()

	return &Config{
		Env:                strings.ToLower(v.GetString("APP_ENV")),
		Port:               v.GetString("PORT"),
		DBDriver:           strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:             v.GetString("DB_HOST"),
		DBPort:             v.GetString("DB_PORT"),
		DBUser:             v.GetString("DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBName:             v.GetString("DB_NAME"),
		DBSSLMode:          v.GetString("DB_SSLMODE"),
		DBDSN:              v.GetString("DB_DSN"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		SendgridAPIKey:     v.GetString("SENDGRID_API_KEY"),
		MailFrom:           v.GetString("MAIL_FROM"),
		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseKey:        v.GetString("SUPABASE_KEY"),
		SupabaseBucket:     v.GetString("SUPABASE_BUCKET"),
		RollbarToken:       v.GetString("ROLLBAR_TOKEN"),
		FeedReminders:      v.GetBool("FEED_REMINDERS"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
