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
	Auth     AuthConfig
	Realtime RealtimeConfig
	Cache    CacheConfig
	Ai       AIConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// InstanceID tells gateway instances apart on shared channels. Random when empty.
	InstanceID string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type CacheConfig struct {
	FileTreeTTL time.Duration
}

type RealtimeConfig struct {
	// MentionMarker flags a chat message as addressed to the AI assistant.
	MentionMarker string
	// RequireExistingRoom rejects well-formed room ids with no project record at handshake.
	// Off by default: the absent project only surfaces later.
	RequireExistingRoom bool
	// PreserveClientFields re-broadcasts unknown client envelope fields next to the
	// server-attached sender.
	PreserveClientFields bool
	RedisChannel         string
	SendBufferSize       int
	MaxMessageSize       int64
	AiQueueSize          int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP HTTP collector, host:port
	ServiceName string
}

type AIConfig struct {
	// Topic for generated file trees on the in-process bus.
	FileTreeTopic  string
	LLMProvider    string // "ollama" or "huggingface"
	LLMModel       string
	OllamaBaseURL  string
	HuggingFaceKey string
	HuggingFaceURL string
	Timeout        time.Duration
	Temperature    float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			InstanceID:         getEnv("INSTANCE_ID", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Realtime: RealtimeConfig{
			MentionMarker:        getEnv("AI_MENTION_MARKER", "@ai"),
			RequireExistingRoom:  getEnvAsBool("REALTIME_REQUIRE_EXISTING_ROOM", false),
			PreserveClientFields: getEnvAsBool("REALTIME_PRESERVE_CLIENT_FIELDS", false),
			RedisChannel:         getEnv("REALTIME_REDIS_CHANNEL", "collab_room_events"),
			SendBufferSize:       getEnvAsInt("REALTIME_SEND_BUFFER", 256),
			MaxMessageSize:       int64(getEnvAsInt("REALTIME_MAX_MESSAGE_SIZE", 64*1024)),
			AiQueueSize:          getEnvAsInt("REALTIME_AI_QUEUE_SIZE", 8),
		},
		Cache: CacheConfig{
			FileTreeTTL: getEnvAsDuration("FILETREE_CACHE_TTL", 30*time.Minute),
		},
		Ai: AIConfig{
			FileTreeTopic:  getEnv("AI_FILETREE_TOPIC", "ai.filetree.generated"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceURL: getEnv("HUGGINGFACE_BASE_URL", ""),
			Timeout:        getEnvAsDuration("AI_TIMEOUT", 120*time.Second),
			Temperature:    getEnvAsFloat("AI_TEMPERATURE", 0.4),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-collab-backend"),
		},
	}
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
