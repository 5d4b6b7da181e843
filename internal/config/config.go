package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	CC       string // optional HR copy on every result mail
}

// Configured reports whether enough is set to attempt real delivery.
func (s SMTP) Configured() bool {
	return s.Host != "" && s.From != ""
}

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt
	HRUser        string
	HRPassHash    string // bcrypt; empty disables the hr login

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	SMTP SMTP

	// Result-email outbox worker.
	NotifyInterval    time.Duration
	NotifyMaxAttempts int
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		HRUser:        envOr("HR_USER", "hr"),
		HRPassHash:    os.Getenv("HR_PASS_HASH"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://examflow.khulnatech.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
			CC:       os.Getenv("HR_EMAIL"),
		},

		NotifyInterval:    envDuration("NOTIFY_INTERVAL", 15*time.Second),
		NotifyMaxAttempts: envInt("NOTIFY_MAX_ATTEMPTS", 5),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
