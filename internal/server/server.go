package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/empathyengine/resonance/internal/config"
	"github.com/empathyengine/resonance/internal/core"
	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/reply"
	"github.com/empathyengine/resonance/internal/core/score"
	"github.com/empathyengine/resonance/internal/llm"
	"github.com/empathyengine/resonance/internal/logger"
	"github.com/empathyengine/resonance/internal/store"
)

type Server struct {
	Engine    *core.Engine
	Responder *reply.Responder
	Log       *logger.Logger
}

func NewServer(cfg *config.Config, log *logger.Logger) (*Server, error) {
	st, err := newStore(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// The classifier is optional: without a usable LLM the scorer still
	// answers from signals and fallbacks.
	var llmClient llm.LLMClient
	if cfg.LLM.Provider != "" {
		llmClient, err = llm.NewClient(context.Background(), cfg.LLM)
		if err != nil {
			log.Warn("LLM client unavailable, running on signal detection only", "error", err.Error())
			llmClient = nil
		}
	}

	var adapter *classify.Adapter
	if llmClient != nil {
		adapter = classify.NewAdapter(llmClient)
	}

	scorer := score.NewScorer(adapter, log)
	engine := core.NewEngine(st, scorer, log)
	if cfg.Analysis.SmoothingWindow > 0 {
		engine.SmoothingWindow = cfg.Analysis.SmoothingWindow
	}
	if cfg.Analysis.PeakThreshold > 0 {
		engine.PeakThreshold = cfg.Analysis.PeakThreshold
	}

	return &Server{
		Engine:    engine,
		Responder: reply.NewResponder(llmClient, log),
		Log:       log,
	}, nil
}

func newStore(cfg config.StorageConfig, log *logger.Logger) (store.Store, error) {
	switch cfg.Driver {
	case store.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.New(store.DriverRedis, store.WithRedisClient(rdb), store.WithLogger(log))

	default:
		return store.New(store.DriverMemory,
			store.WithSnapshotPath(cfg.Path),
			store.WithLogger(log))
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"*"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.Health)
	r.POST("/analyze", s.Analyze)
	r.POST("/summary", s.Summary)
	r.POST("/chat", s.ChatReply)
	r.DELETE("/session/:sessionId", s.DeleteSession)

	api := r.Group("/api")
	{
		api.POST("/chat", s.CreateChat)
		api.GET("/user/:userId/chats", s.ListChats)
		api.GET("/chat/:chatId", s.GetChat)
		api.POST("/chat/:chatId/message", s.AddMessage)
		api.POST("/chat/:chatId/summarize-emotion", s.SummarizeEmotion)
		api.PATCH("/chat/:chatId/title", s.UpdateTitle)
		api.DELETE("/chat/:chatId", s.DeleteChat)
	}

	return r
}
