package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sahoobinod1994-beep/PharmaCals/config"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/analysis"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/api/handlers"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/api/middleware"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/api/routes"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/cache"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/logger"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/providers/llm"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/voice"
)

func main() {
	_ = godotenv.Load()

	settings := config.Load()
	l := logger.New()

	// Optional Redis analysis cache
	var analysisCache cache.Cache
	rdb, err := config.InitRedis(settings.RedisAddr)
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	if rdb != nil {
		analysisCache = cache.NewRedisCache(rdb)
		l.Info("Redis connected")
	}

	// Shared calculator state, mutated by HTTP input and voice tool-calls alike
	state := calcstate.New()

	// Gemini-backed features; absence of the key disables them, never the calculator
	var provider llm.Provider
	if settings.GeminiEnabled() {
		g, err := llm.NewGemini(context.Background(), settings.GeminiAPIKey, settings.AnalysisModel)
		if err != nil {
			log.Fatalf("Gemini init error: %v", err)
		}
		provider = g
	} else {
		l.Warn("GEMINI_API_KEY not set: voice control and AI analysis are disabled")
	}

	analysisClient := analysis.New(provider, analysisCache, logger.Component(l, "analysis"))
	voiceManager := voice.NewManager(l, state, voice.DialLive(settings.GeminiAPIKey), settings.LiveModel)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Calc:     handlers.NewCalcHandler(state),
		Analysis: handlers.NewAnalysisHandler(state, analysisClient),
		Voice:    handlers.NewVoiceHandler(voiceManager, settings.GeminiEnabled(), logger.Component(l, "voice")),
	})

	l.WithField("port", settings.Port).Info("server listening")
	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
