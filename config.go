package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddress   string `yaml:"listen_address"`
	DBPath          string `yaml:"db_path"`
	PublicDir       string `yaml:"public_dir"`
	ReportOutputDir string `yaml:"report_output_dir"`
	Timezone        string `yaml:"timezone"`

	DailySchedule        string `yaml:"daily_schedule"`
	MonthlySchedule      string `yaml:"monthly_schedule"`
	MonthlyRetainHistory bool   `yaml:"monthly_retain_history"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	MailFrom     string `yaml:"mail_from"`
	MailTo       string `yaml:"mail_to"`
	MailBCC      string `yaml:"mail_bcc"`

	AdminUsername     string `yaml:"admin_username"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
	SessionSecret     string `yaml:"session_secret"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	MenuCutoffHour int `yaml:"menu_cutoff_hour"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig(configPath string) Config {
	var cfg Config

	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	// Unmarshal only overwrites keys present in the file, so default-true
	// switches must be set before parsing.
	cfg.MonthlyRetainHistory = true
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.ListenAddress, "LISTEN_ADDRESS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.PublicDir, "PUBLIC_DIR")
	envOverride(&cfg.ReportOutputDir, "REPORT_OUTPUT_DIR")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.DailySchedule, "DAILY_SCHEDULE")
	envOverride(&cfg.MonthlySchedule, "MONTHLY_SCHEDULE")
	envOverrideBool(&cfg.MonthlyRetainHistory, "MONTHLY_RETAIN_HISTORY")
	envOverride(&cfg.SMTPHost, "SMTP_HOST")
	envOverrideInt(&cfg.SMTPPort, "SMTP_PORT")
	envOverride(&cfg.SMTPUsername, "SMTP_USERNAME")
	envOverride(&cfg.SMTPPassword, "SMTP_PASSWORD")
	envOverride(&cfg.MailFrom, "MAIL_FROM")
	envOverride(&cfg.MailTo, "MAIL_TO")
	envOverride(&cfg.MailBCC, "MAIL_BCC")
	envOverride(&cfg.AdminUsername, "ADMIN_USERNAME")
	envOverride(&cfg.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	envOverride(&cfg.SessionSecret, "SESSION_SECRET")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverrideInt(&cfg.MenuCutoffHour, "MENU_CUTOFF_HOUR")

	// Defaults
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./pedidos.db"
	}
	if cfg.PublicDir == "" {
		cfg.PublicDir = "./public"
	}
	if cfg.ReportOutputDir == "" {
		cfg.ReportOutputDir = "./reports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Sao_Paulo"
	}
	if cfg.DailySchedule == "" {
		cfg.DailySchedule = "35 9 * * 1-5"
	}
	if cfg.MonthlySchedule == "" {
		cfg.MonthlySchedule = "0 1 26 * *"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.MenuCutoffHour == 0 {
		cfg.MenuCutoffHour = 13
	}

	// Validate required fields
	required := map[string]string{
		"smtp_host":           cfg.SMTPHost,
		"smtp_username":       cfg.SMTPUsername,
		"smtp_password":       cfg.SMTPPassword,
		"mail_from":           cfg.MailFrom,
		"mail_to":             cfg.MailTo,
		"admin_username":      cfg.AdminUsername,
		"admin_password_hash": cfg.AdminPasswordHash,
		"session_secret":      cfg.SessionSecret,
	}
	for name, val := range required {
		if val == "" {
			log.Fatalf("Required config '%s' is not set (via config.yaml or env var)", name)
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
	}
	cfg.Location = loc

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cfg.DailySchedule); err != nil {
		log.Fatalf("invalid daily_schedule '%s': %v", cfg.DailySchedule, err)
	}
	if _, err := parser.Parse(cfg.MonthlySchedule); err != nil {
		log.Fatalf("invalid monthly_schedule '%s': %v", cfg.MonthlySchedule, err)
	}
	if cfg.MenuCutoffHour < 0 || cfg.MenuCutoffHour > 23 {
		log.Fatalf("invalid menu_cutoff_hour '%d': must be 0-23", cfg.MenuCutoffHour)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
