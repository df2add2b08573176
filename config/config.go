package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config 从 .env / YAML / 环境变量读取
type Config struct {
	Port      string `yaml:"port"       env:"PORT"       env-default:"3001"`
	ClientURL string `yaml:"client_url" env:"CLIENT_URL" env-default:"http://localhost:3000"`
	Env       string `yaml:"env"        env:"NODE_ENV"   env-default:"development"`

	DatabaseURL   string `yaml:"database_url"   env:"DATABASE_URL"`
	RedisAddr     string `yaml:"redis_addr"     env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`

	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`

	Upload    UploadConfig    `yaml:"upload"`
	Report    ReportConfig    `yaml:"report"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type UploadConfig struct {
	Dir          string `yaml:"dir"            env:"UPLOAD_DIR"            env-default:"./uploads"`
	MaxFileBytes int64  `yaml:"max_file_bytes" env:"UPLOAD_MAX_FILE_BYTES" env-default:"52428800"`
	MaxFiles     int    `yaml:"max_files"      env:"UPLOAD_MAX_FILES"      env-default:"20"`
}

type ReportConfig struct {
	WatermarkVersion string `yaml:"watermark_version" env:"WATERMARK_VERSION" env-default:"1.0"`
	WordsPerPage     int    `yaml:"words_per_page"    env:"WORDS_PER_PAGE"    env-default:"300"`
	MinPageWords     int    `yaml:"min_page_words"    env:"MIN_PAGE_WORDS"    env-default:"20"`
}

// OPENAI_API_KEY 为旧部署的变量名，仅在 ANTHROPIC_API_KEY 未设置时读取
type LLMConfig struct {
	APIKey    string `yaml:"api_key"    env:"ANTHROPIC_API_KEY,OPENAI_API_KEY"`
	BaseURL   string `yaml:"base_url"   env:"ANTHROPIC_BASE_URL"`
	Model     string `yaml:"model"      env:"LLM_MODEL"      env-default:"claude-sonnet-4-5"`
	MaxTokens int64  `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"2048"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

type SchedulerConfig struct {
	CleanupSchedule string        `yaml:"cleanup_schedule" env:"CLEANUP_SCHEDULE" env-default:"0 0 3 * * *"`
	OrphanMaxAge    time.Duration `yaml:"orphan_max_age"   env:"ORPHAN_MAX_AGE"   env-default:"24h"`
}

func (c Config) IsDevelopment() bool { return strings.EqualFold(c.Env, "development") }

// LoadEnv 读取 .env（不存在则忽略）
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads CONFIG_PATH (YAML) when set, otherwise env + defaults.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Env) {
	case "development", "production", "test":
	default:
		return fmt.Errorf("unknown NODE_ENV %q", c.Env)
	}
	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_BYTES must be positive")
	}
	if c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be positive")
	}
	if c.Report.WordsPerPage <= 0 || c.Report.MinPageWords < 0 {
		return fmt.Errorf("invalid pagination settings")
	}
	if c.Report.MinPageWords > c.Report.WordsPerPage {
		return fmt.Errorf("MIN_PAGE_WORDS exceeds WORDS_PER_PAGE")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
