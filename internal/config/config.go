package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port    string
	Env     string
	LogLevel string

	// Appointment workbook
	WorkbookPath string

	// Gemini LLM
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	GeminiMaxTokens   int

	// Knowledge base (Qdrant + Ollama embeddings)
	QdrantURL         string
	QdrantAPIKey      string
	QdrantCollection  string
	OllamaBaseURL     string
	EmbeddingModel    string
	RetrievalK        int
	RAGScoreThreshold float64

	// Session store
	RedisAddr     string
	RedisPassword string

	// Clinic metadata surfaced to the model
	CenterName     string
	CenterPhone    string
	CenterLocation string
	WeekdayHours   string
	SaturdayHours  string
	SundayHours    string
	TherapyPhone   string
	TherapyEmail   string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WorkbookPath: getEnv("WORKBOOK_PATH", "data/clinic_schedule.xlsx"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		GeminiTemperature: getEnvAsFloat("GEMINI_TEMPERATURE", 0.3),
		GeminiMaxTokens:   getEnvAsInt("GEMINI_MAX_TOKENS", 4096),

		QdrantURL:         getEnv("QDRANT_URL", ""),
		QdrantAPIKey:      getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "clinic_knowledge"),
		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text:latest"),
		RetrievalK:        getEnvAsInt("RAG_RETRIEVAL_K", 5),
		RAGScoreThreshold: getEnvAsFloat("RAG_SCORE_THRESHOLD", 0.3),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CenterName:     getEnv("CENTER_NAME", "Medical Center"),
		CenterPhone:    getEnv("CENTER_PHONE", "(555) 200-1000"),
		CenterLocation: getEnv("CENTER_LOCATION", "Cairo, Egypt"),
		WeekdayHours:   getEnv("WEEKDAY_HOURS", "Monday-Friday: 7:00 AM - 7:00 PM"),
		SaturdayHours:  getEnv("SATURDAY_HOURS", "Saturday: 8:00 AM - 2:00 PM"),
		SundayHours:    getEnv("SUNDAY_HOURS", "Sunday: Closed"),
		TherapyPhone:   getEnv("PT_PHONE", "(555) 200-2000"),
		TherapyEmail:   getEnv("PT_EMAIL", "pt@medicalcenter.com"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
