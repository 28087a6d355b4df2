package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings for the service. It is loaded once at
// startup and passed explicitly to the components that need it; nothing reads
// the environment after Load returns.
type Config struct {
	// HTTP
	Port string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Gmail
	GmailCredentialsFile string
	GmailTokenFile       string
	MailPageSize         int64

	// Extraction
	AICallBudget int

	// BigQuery
	BigQueryProject string
	BigQueryDataset string

	// GCS archive for unparseable classifier replies ("" disables archiving)
	ArchiveBucket string

	// Notion sync (both empty disables sync)
	NotionToken      string
	NotionDatabaseID string
}

const (
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultMailPageSize = 100
	DefaultAICallBudget = 50
	DefaultDataset      = "finance"
)

// Load reads configuration from the environment, honouring a .env file if one
// is present in the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GeminiModel:          getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GmailCredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", "credentials.json"),
		GmailTokenFile:       getEnv("GMAIL_TOKEN_FILE", "token.json"),
		BigQueryProject:      os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:      getEnv("BIGQUERY_DATASET", DefaultDataset),
		ArchiveBucket:        os.Getenv("ARCHIVE_BUCKET"),
		NotionToken:          os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:     os.Getenv("NOTION_DATABASE_ID"),
	}

	var err error
	cfg.MailPageSize, err = getEnvInt64("MAIL_PAGE_SIZE", DefaultMailPageSize)
	if err != nil {
		return nil, err
	}
	budget, err := getEnvInt64("AI_CALL_BUDGET", DefaultAICallBudget)
	if err != nil {
		return nil, err
	}
	cfg.AICallBudget = int(budget)

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("config: GEMINI_API_KEY is required")
	}
	if cfg.BigQueryProject == "" {
		return nil, fmt.Errorf("config: BIGQUERY_PROJECT is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, raw)
	}
	return v, nil
}
