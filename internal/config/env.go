package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"taxibot/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	TelegramPolling = "polling"
	TelegramWebhook = "webhook"
	TelegramOff     = "off"
)

type Env struct {
	AppAddr string `validate:"required"`
	GinMode string `validate:"omitempty,oneof=debug release test"`

	BotToken              string `validate:"required_unless=TelegramMode off"`
	TelegramMode          string `validate:"oneof=polling webhook off"`
	TelegramWebhookSecret string `validate:"required_if=TelegramMode webhook"`
	MaxConcurrentUpdates  int    `validate:"min=1"`

	DBHost     string `validate:"required"`
	DBUser     string `validate:"required"`
	DBPassword string
	DBName     string `validate:"required"`

	AdminIDs  []int64
	MaxSeats  int   `validate:"min=1"`
	TripPrice int64 `validate:"min=0"`
	Location  *time.Location

	RedisURL   string        `validate:"omitempty,url"`
	SessionTTL time.Duration `validate:"min=0"`

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`

	JWTSecret         string
	AdminPasswordHash string

	CORSAllowedOrigins []string

	PDFFontPath string `validate:"omitempty,file"`
}

// LoadEnv reads configuration from the process environment. A .env file in
// the working directory is loaded first when present.
func LoadEnv() (Env, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	env := Env{
		AppAddr:               getStr("APP_ADDR", ":8080"),
		GinMode:               getStr("GIN_MODE", ""),
		BotToken:              getStr("BOT_TOKEN", ""),
		TelegramMode:          strings.ToLower(getStr("TELEGRAM_MODE", TelegramPolling)),
		TelegramWebhookSecret: getStr("TELEGRAM_WEBHOOK_SECRET", ""),
		MaxConcurrentUpdates:  getInt("MAX_CONCURRENT_UPDATES", 40),
		DBHost:                getStr("DB_HOST", "127.0.0.1:3306"),
		DBUser:                getStr("DB_USER", "root"),
		DBPassword:            getStr("DB_PASSWORD", ""),
		DBName:                getStr("DB_NAME", "taxi_bot_db"),
		MaxSeats:              getInt("MAX_SEATS", 4),
		TripPrice:             int64(getInt("TRIP_PRICE", 0)),
		RedisURL:              getStr("REDIS_URL", ""),
		SessionTTL:            getDuration("SESSION_TTL", 0),
		KafkaBrokers:          getList("KAFKA_BROKERS"),
		KafkaTopic:            getStr("KAFKA_TOPIC", "taxibot.bookings"),
		JWTSecret:             getStr("JWT_SECRET", ""),
		AdminPasswordHash:     getStr("ADMIN_PASSWORD_HASH", ""),
		CORSAllowedOrigins:    getList("CORS_ALLOWED_ORIGINS"),
		PDFFontPath:           getStr("PDF_FONT_PATH", ""),
	}

	ids, err := utils.ParseIDList(getStr("ADMIN_IDS", ""))
	if err != nil {
		return env, fmt.Errorf("ADMIN_IDS: %w", err)
	}
	env.AdminIDs = ids

	loc, err := time.LoadLocation(getStr("TIMEZONE", "Asia/Yekaterinburg"))
	if err != nil {
		return env, fmt.Errorf("TIMEZONE: %w", err)
	}
	env.Location = loc

	if err := env.Validate(); err != nil {
		return env, err
	}
	return env, nil
}

// Validate checks struct tags on Env.
func (e Env) Validate() error {
	if err := validator.New().Struct(e); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsAdmin reports whether the chat user id is listed in ADMIN_IDS.
func (e Env) IsAdmin(userID int64) bool {
	for _, id := range e.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DSN builds the go-sql-driver/mysql connection string.
func (e Env) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser,
		e.DBPassword,
		e.DBHost,
		e.DBName,
	)
}

func getStr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v := getStr(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warning: %s=%q is not a number, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := getStr(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("warning: %s=%q is not a duration, using %s", key, v, def)
		return def
	}
	return d
}

func getList(key string) []string {
	out := []string{}
	for _, p := range strings.Split(getStr(key, ""), ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
