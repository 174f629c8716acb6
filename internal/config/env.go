package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"20"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	AIAPIKey    string `env:"GEMINI_API_KEY"`
	GenModel    string `env:"GEN_MODEL" envDefault:"gemini-1.5-flash"`
	VisionModel string `env:"VISION_MODEL" envDefault:"gemini-1.5-flash"`

	AwsAccessKey string `env:"AWS_ACCESS_KEY"`
	AwsSecretKey string `env:"AWS_SECRET_KEY"`
	AwsRegion    string `env:"AWS_REGION" envDefault:"us-east-2"`
	BucketName   string `env:"BUCKET_NAME" envDefault:"devmate-docs"`
	S3Endpoint   string `env:"S3_ENDPOINT"`

	AgentMaxIterations int           `env:"AGENT_MAX_ITERATIONS" envDefault:"10"`
	ToolTimeout        time.Duration `env:"TOOL_TIMEOUT" envDefault:"30s"`
	ChunkSize          int           `env:"CHUNK_SIZE" envDefault:"500"`
	ChunkOverlap       int           `env:"CHUNK_OVERLAP" envDefault:"50"`
	MaxUploadMB        int64         `env:"MAX_UPLOAD_MB" envDefault:"50"`
	HistoryLimit       int           `env:"HISTORY_LIMIT" envDefault:"50"`

	TavilyAPIKey  string `env:"TAVILY_API_KEY"`
	WeatherAPIKey string `env:"WEATHERAPI_KEY"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadConfig loads the environment variables (and .env when present) and returns config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, err := c.DatabaseDriver(); err != nil {
		return err
	}
	if c.AgentMaxIterations <= 0 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be > 0")
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("TOOL_TIMEOUT must be > 0")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be > 0")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP cannot be negative")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be > 0")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DatabaseDriver infers the SQL backend from DATABASE_URL.
func (c *Config) DatabaseDriver() (string, error) {
	u := strings.ToLower(c.DatabaseURL)
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(u, "sqlite://"), strings.HasPrefix(u, "file:"):
		return "sqlite", nil
	default:
		return "", fmt.Errorf("DATABASE_URL must start with postgres://, sqlite:// or file:")
	}
}

// ObjectStorageEnabled reports whether S3 credentials were supplied.
func (c *Config) ObjectStorageEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// MaxUploadBytes is MAX_UPLOAD_MB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
