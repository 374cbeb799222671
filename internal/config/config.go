// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"log"
	"os"
	"strconv"

	"go-jobpilot-automation/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	//LinkedIn account
	Account  string `yaml:"account"`
	Email    string `yaml:"-"`
	Password string `yaml:"-"`

	//Search criteria
	Keywords         []string `yaml:"keywords"`
	Location         string   `yaml:"location"`
	ExperienceLevels []string `yaml:"experience_levels"`
	DatePosted       string   `yaml:"date_posted"`
	EasyApplyOnly    bool     `yaml:"easy_apply_only"`
	MaxPages         int      `yaml:"max_pages"`

	//Apply settings
	AutoApplyEnabled      bool `yaml:"auto_apply_enabled"`
	MaxApplicationsPerRun int  `yaml:"max_applications_per_run"`
	MaxAttempts           int  `yaml:"max_attempts"`

	//Resume profiles
	ResumesDir       string                 `yaml:"resumes_dir"`
	ResumeProfiles   []models.ResumeProfile `yaml:"resume_profiles"`
	CandidateSummary string                 `yaml:"candidate_summary"`

	//Session persistence
	SessionBackend     string `yaml:"session_backend"` // file | redis
	SessionPath        string `yaml:"session_path"`
	SessionMaxAgeHours int    `yaml:"session_max_age_hours"`
	RedisURL           string `yaml:"-"`

	//Storage
	DatabaseURL string `yaml:"-"`

	//Cover letter service
	GroqAPIKey             string `yaml:"-"`
	CoverLetterTimeoutSecs int    `yaml:"cover_letter_timeout_seconds"`

	//Browser settings
	Headless       bool `yaml:"headless"`
	SlowMoMs       int  `yaml:"slow_mo_ms"`
	MinPageDelayMs int  `yaml:"min_page_delay_ms"`
	MaxPageDelayMs int  `yaml:"max_page_delay_ms"`
	JobDelaySecs   int  `yaml:"job_delay_seconds"`

	//Scheduler
	ScheduleStartHour    int `yaml:"schedule_start_hour"`
	ScheduleEndHour      int `yaml:"schedule_end_hour"`
	ScheduleIntervalMins int `yaml:"schedule_interval_minutes"`

	//Reporting (optional)
	TelegramToken  string `yaml:"-"`
	TelegramChatID int64  `yaml:"-"`
}

func LoadFile(path string) *Config {
	_ = godotenv.Load()

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", path, err)
		}
	}

	//Override with env vars
	if v := os.Getenv("LINKEDIN_ACCOUNT"); v != "" {
		cfg.Account = v
	}
	cfg.Email = os.Getenv("LINKEDIN_EMAIL")
	cfg.Password = os.Getenv("LINKEDIN_PASSWORD")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = v
	}
	if v := os.Getenv("SESSION_PATH"); v != "" {
		cfg.SessionPath = v
	}
	if v := os.Getenv("SESSION_MAX_AGE_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid SESSION_MAX_AGE_HOURS: %v", err)
		}
		cfg.SessionMaxAgeHours = hours
	}
	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid MAX_ATTEMPTS: %v", err)
		}
		cfg.MaxAttempts = n
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	applyDefaults(cfg)

	//Validate required fields
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.SessionBackend == "redis" && cfg.RedisURL == "" {
		log.Fatal("REDIS_URL is required when SESSION_BACKEND=redis")
	}

	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Account == "" {
		cfg.Account = "default"
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = []string{"Python Developer"}
	}
	if cfg.Location == "" {
		cfg.Location = "Remote"
	}
	if cfg.DatePosted == "" {
		cfg.DatePosted = "PAST_WEEK"
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 3
	}
	if cfg.MaxApplicationsPerRun == 0 {
		cfg.MaxApplicationsPerRun = 10
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ResumesDir == "" {
		cfg.ResumesDir = "./resumes"
	}
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = "file"
	}
	if cfg.SessionPath == "" {
		cfg.SessionPath = "./browser_data"
	}
	if cfg.SessionMaxAgeHours == 0 {
		cfg.SessionMaxAgeHours = 72
	}
	if cfg.CoverLetterTimeoutSecs == 0 {
		cfg.CoverLetterTimeoutSecs = 30
	}
	if cfg.SlowMoMs == 0 {
		cfg.SlowMoMs = 100
	}
	//The inter-page delay is a hard rate-limit requirement, never zero.
	if cfg.MinPageDelayMs < 1000 {
		cfg.MinPageDelayMs = 2000
	}
	if cfg.MaxPageDelayMs <= cfg.MinPageDelayMs {
		cfg.MaxPageDelayMs = cfg.MinPageDelayMs + 2000
	}
	if cfg.JobDelaySecs == 0 {
		cfg.JobDelaySecs = 5
	}
	//an unset window is recognized by the end hour, so an explicit
	//midnight start (start 0 with an end hour set) stays configurable
	if cfg.ScheduleEndHour == 0 {
		if cfg.ScheduleStartHour == 0 {
			cfg.ScheduleStartHour = 8
		}
		cfg.ScheduleEndHour = 18
	}
	if cfg.ScheduleIntervalMins == 0 {
		cfg.ScheduleIntervalMins = 60
	}

	for i := range cfg.ResumeProfiles {
		if cfg.ResumeProfiles[i].Weight == 0 {
			cfg.ResumeProfiles[i].Weight = 1.0
		}
	}
}
