package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./wanderpress.db" description:"Path to the sqlite database file"`

	// Application configuration
	FeedsDir          string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed definition files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Aggregation pass interval in minutes"`
	JobTickInterval   int    `long:"job-tick-interval" env:"JOB_TICK_INTERVAL" default:"1" description:"Job queue tick interval in seconds"`
	JobMaxConcurrent  int    `long:"job-max-concurrent" env:"JOB_MAX_CONCURRENT" default:"3" description:"Maximum concurrently running background jobs"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// External services
	CohereAPIKey    string `long:"cohere-api-key" env:"COHERE_API_KEY" description:"Cohere API key for article generation (required)"`
	CohereModel     string `long:"cohere-model" env:"COHERE_MODEL" default:"command-r-plus" description:"Cohere model used for article generation"`
	GeminiAPIKey    string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key for translations (optional)"`
	GeminiModel     string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash" description:"Gemini model used for translations"`
	UnsplashKey     string `long:"unsplash-key" env:"UNSPLASH_ACCESS_KEY" description:"Unsplash access key for hero image lookups (optional)"`
	GenerateTimeout int    `long:"generate-timeout" env:"GENERATE_TIMEOUT" default:"120" description:"Timeout per text-generation call in seconds"`

	// Email notifications
	SMTPAddr string `long:"smtp-addr" env:"SMTP_ADDR" description:"SMTP server address (host:port) for notification emails (optional)"`
	SMTPFrom string `long:"smtp-from" env:"SMTP_FROM" description:"Sender address for notification emails"`
	SMTPTo   string `long:"smtp-to" env:"SMTP_TO" description:"Recipient address for notification emails"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"WanderPress/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Dubai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		FeedsDir:          raw.FeedsDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		SchedulerInterval: raw.SchedulerInterval,
		JobTickInterval:   raw.JobTickInterval,
		JobMaxConcurrent:  raw.JobMaxConcurrent,
		APIAccessKey:      raw.APIAccessKey,
		CohereAPIKey:      raw.CohereAPIKey,
		CohereModel:       raw.CohereModel,
		GeminiAPIKey:      raw.GeminiAPIKey,
		GeminiModel:       raw.GeminiModel,
		UnsplashKey:       raw.UnsplashKey,
		GenerateTimeout:   raw.GenerateTimeout,
		SMTPAddr:          raw.SMTPAddr,
		SMTPFrom:          raw.SMTPFrom,
		SMTPTo:            raw.SMTPTo,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
