package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Rag      RagConfig
	Session  SessionConfig
	Ledger   LedgerConfig
	HR       HRConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	QdrantAPIKey          string
	GoogleCredentialsFile string
	IngestTopic           string // watermill topic for queued documents
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMProvider    string // "ollama"
	LLMModel       string // e.g. "llama3", "qwen2.5"
}

// RagConfig holds retrieval and chunking tunables.
type RagConfig struct {
	VectorStore     string // "memory" | "qdrant" | "pgvector"
	QdrantURL       string
	Collection      string
	TopK            int
	MinScore        float64
	ChunkSize       int
	ChunkOverlap    int
	EmbedRetries    int
	IngestBatchSize int
}

type SessionConfig struct {
	Store            string // "memory" | "redis"
	TTL              time.Duration
	HistorySize      int
	RedeliveryWindow time.Duration
}

type LedgerConfig struct {
	Driver            string // "memory" | "sheets" | "postgres"
	LeaveSheetID      string
	FeedbackSheetID   string
	FeedbackAnonymous bool
}

type HRConfig struct {
	NotifyEmail       string
	EmployeeIDPattern string
	AnnualBalance     int
	SickBalance       int
	PersonalBalance   int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/virtual-hr.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Virtual HR"),
		},
		Keys: APIKeys{
			QdrantAPIKey:          getEnv("QDRANT_API_KEY", ""),
			GoogleCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", "credentials.json"),
			IngestTopic:           getEnv("INGEST_TOPIC_NAME", "INGEST_POLICY_DOCUMENT"),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
		},
		Rag: RagConfig{
			VectorStore:     getEnv("VECTOR_STORE", "memory"),
			QdrantURL:       getEnv("QDRANT_URL", "http://localhost:6334"),
			Collection:      getEnv("VECTOR_COLLECTION_NAME", "hr_policy_rag"),
			TopK:            getEnvAsInt("RAG_TOP_K", 5),
			MinScore:        getEnvAsFloat("RAG_MIN_SCORE", 0.35),
			ChunkSize:       getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 200),
			EmbedRetries:    getEnvAsInt("EMBED_RETRIES", 3),
			IngestBatchSize: getEnvAsInt("INGEST_BATCH_SIZE", 10),
		},
		Session: SessionConfig{
			Store:            getEnv("SESSION_STORE", "memory"),
			TTL:              getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			HistorySize:      getEnvAsInt("SESSION_HISTORY_SIZE", 20),
			RedeliveryWindow: getEnvAsDuration("SESSION_REDELIVERY_WINDOW", 2*time.Minute),
		},
		Ledger: LedgerConfig{
			Driver:            getEnv("LEDGER_DRIVER", "memory"),
			LeaveSheetID:      getEnv("LEAVE_TRACKER_SHEET_ID", ""),
			FeedbackSheetID:   getEnv("FEEDBACK_TRACKER_SHEET_ID", ""),
			FeedbackAnonymous: getEnv("FEEDBACK_ANONYMOUS", "true") == "true",
		},
		HR: HRConfig{
			NotifyEmail:       getEnv("HR_NOTIFY_EMAIL", ""),
			EmployeeIDPattern: getEnv("EMPLOYEE_ID_PATTERN", `^[A-Z]{2,5}\d{3,8}$`),
			AnnualBalance:     getEnvAsInt("DEFAULT_ANNUAL_LEAVE_BALANCE", 20),
			SickBalance:       getEnvAsInt("DEFAULT_SICK_LEAVE_BALANCE", 10),
			PersonalBalance:   getEnvAsInt("DEFAULT_PERSONAL_LEAVE_BALANCE", 5),
		},
	}
}

// Validate returns the names of required settings that are missing for the selected drivers.
func (c *Config) Validate() []string {
	var missing []string
	if c.Ledger.Driver == "sheets" {
		if c.Ledger.LeaveSheetID == "" {
			missing = append(missing, "LEAVE_TRACKER_SHEET_ID")
		}
		if c.Ledger.FeedbackSheetID == "" {
			missing = append(missing, "FEEDBACK_TRACKER_SHEET_ID")
		}
	}
	if (c.Ledger.Driver == "postgres" || c.Rag.VectorStore == "pgvector") && c.Database.Connection == "" {
		missing = append(missing, "DB_CONNECTION_STRING")
	}
	if c.App.JwtSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	return missing
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
