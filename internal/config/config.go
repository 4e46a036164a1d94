package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	SRS      SRSConfig      `mapstructure:"srs"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds" validate:"gte=1"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds" validate:"gte=1"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"gtefield=TokenLifetimeMinutes"`
}

// LLMConfig contains the example-sentence generator settings. Enrichment is
// disabled when GeminiAPIKey is empty.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name" validate:"required_with=GeminiAPIKey"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=1"`
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool {
	return c.GeminiAPIKey != ""
}

// SRSConfig overrides the scheduler constants.
type SRSConfig struct {
	CorrectnessThreshold int     `mapstructure:"correctness_threshold" validate:"gte=1,lte=5"`
	FirstInterval        int     `mapstructure:"first_interval" validate:"gte=1"`
	SecondInterval       int     `mapstructure:"second_interval" validate:"gtefield=FirstInterval"`
	MaxInterval          int     `mapstructure:"max_interval" validate:"gtefield=SecondInterval,lte=36500"`
	MinEaseFactor        float64 `mapstructure:"min_ease_factor" validate:"gt=1"`
	InitialEaseFactor    float64 `mapstructure:"initial_ease_factor" validate:"gtefield=MinEaseFactor"`
}

// StudyConfig contains session settings.
type StudyConfig struct {
	DefaultBatchSize int `mapstructure:"default_batch_size" validate:"gte=1,ltefield=MaxBatchSize"`
	MaxBatchSize     int `mapstructure:"max_batch_size" validate:"gte=1"`
	QuizOptions      int `mapstructure:"quiz_options" validate:"gte=2,lte=10"`
}

// ReminderConfig controls the daily due-items reminder.
type ReminderConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Time is the daily run time, HH:MM in UTC.
	Time string `mapstructure:"time" validate:"required_if=Enabled true,omitempty,datetime=15:04"`
}

// TaskConfig contains background task runner settings.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
}
