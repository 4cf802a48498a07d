package config

import "github.com/kelseyhightower/envconfig"

// Config is built once at process start and handed to every component; no
// ambient lookups happen inside the core.
type Config struct {
	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// ----------------------------
	// Scheduling
	// ----------------------------
	SchedulerIntervalMins int `envconfig:"SCHEDULER_INTERVAL_MINS" default:"5"`
	TZOffsetHours         int `envconfig:"TZ_OFFSET_HOURS" default:"8"`

	// ----------------------------
	// Workers
	// ----------------------------
	WorkerCount int `envconfig:"WORKER_COUNT" default:"5"`
	RateLimit   int `envconfig:"RATE_LIMIT" default:"10"`

	// ----------------------------
	// Transform service
	// ----------------------------
	TransformEndpoint    string `envconfig:"TRANSFORM_ENDPOINT" default:"https://apicheck-gemini.hf.space/hf/v1"`
	TransformModel       string `envconfig:"TRANSFORM_MODEL" default:"gemini-2.0-flash"`
	TransformTimeoutSecs int    `envconfig:"TRANSFORM_TIMEOUT_SECS" default:"15"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
