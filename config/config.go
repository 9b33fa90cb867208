package config

import (
	"os"
	"strings"
)

// Settings holds everything the server reads from the environment.
// GeminiAPIKey gates both the voice bridge and the analysis feature; when it is
// empty those features are disabled and only the price calculator is served.
type Settings struct {
	Port          string
	GeminiAPIKey  string
	LiveModel     string
	AnalysisModel string
	RedisAddr     string
}

func Load() Settings {
	s := Settings{
		Port:          getenv("PORT", "8080"),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LiveModel:     getenv("GEMINI_LIVE_MODEL", "models/gemini-2.0-flash-live-001"),
		AnalysisModel: getenv("GEMINI_ANALYSIS_MODEL", "gemini-2.5-flash"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
	}
	return s
}

func (s Settings) GeminiEnabled() bool { return s.GeminiAPIKey != "" }

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
