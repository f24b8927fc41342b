package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	JWTSecret string

	DatabaseURL string

	// Sync coordinator tuning
	SyncStaleness     time.Duration // cache freshness window for push-capable platforms
	SyncLockLease     time.Duration // single-flight lock lease before it becomes stealable
	SyncSweepInterval time.Duration // background re-sync sweep cadence

	// Message ingestion
	DedupCacheTTL   time.Duration // webhook replay suppression window
	ThreadWindowCap int           // max messages handed to the summarizer per thread

	// AI provider
	AIProvider    string // "gemini", "ollama" or "auto"
	GeminiAPIKey  string
	OllamaBaseURL string
	OllamaModel   string

	// Summary workers
	SummaryWorkerCount int

	// Google / Gmail adapter
	GoogleClientID     string
	GoogleClientSecret string
	GoogleProjectID    string
	GooglePubSubSub    string
	GoogleCredentials  string // service account file for the Pub/Sub client
	// Static OAuth tokens for single-tenant deployments without an auth flow
	GoogleAccessToken  string
	GoogleRefreshToken string

	// IMAP adapter
	IMAPServer   string
	IMAPPort     int
	IMAPUsername string
	IMAPPassword string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		DatabaseURL: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=crmhub port=5432 sslmode=disable"),

		SyncStaleness:     getDurationEnv("SYNC_STALENESS", 30*time.Minute),
		SyncLockLease:     getDurationEnv("SYNC_LOCK_LEASE", 10*time.Minute),
		SyncSweepInterval: getDurationEnv("SYNC_SWEEP_INTERVAL", 5*time.Minute),

		DedupCacheTTL:   getDurationEnv("DEDUP_CACHE_TTL", 10*time.Minute),
		ThreadWindowCap: getIntEnv("THREAD_WINDOW_CAP", 50),

		AIProvider:    getEnv("AI_PROVIDER", "auto"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		SummaryWorkerCount: getIntEnv("SUMMARY_WORKER_COUNT", 3),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubSub:    getEnv("GOOGLE_PUBSUB_SUBSCRIPTION", "gmail-updates-sub"),
		GoogleCredentials:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleAccessToken:  getEnv("GOOGLE_ACCESS_TOKEN", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		IMAPServer:   getEnv("IMAP_SERVER", ""),
		IMAPPort:     getIntEnv("IMAP_PORT", 993),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
