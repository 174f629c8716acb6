package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/markdave123-py/Devmate/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Devmate/internal/api/middlewares"
	"github.com/markdave123-py/Devmate/internal/config"
	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/core/agent"
	db "github.com/markdave123-py/Devmate/internal/core/database"
	"github.com/markdave123-py/Devmate/internal/core/ingestion_engine"
	"github.com/markdave123-py/Devmate/internal/core/llm"
	objectclient "github.com/markdave123-py/Devmate/internal/core/object-client"
	"github.com/markdave123-py/Devmate/internal/core/retrieval"
	"github.com/markdave123-py/Devmate/internal/core/tools"
	"github.com/markdave123-py/Devmate/internal/services"
)

type App struct {
	DBClient *db.DatabaseClient
	LLM      *llm.GeminiLLM
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.AIAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	// Left nil when object storage is not configured.
	var objects core.ObjectClient
	if cfg.ObjectStorageEnabled() {
		s3Client, err := objectclient.NewS3Client(appCtx, cfg, logger)
		if err != nil {
			_ = dbClient.Close()
			return nil, err
		}
		objects = s3Client
	} else {
		logger.Warn("object storage disabled; file tools and payload archiving are off")
	}

	gemini, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, cfg.VisionModel)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	useReadability := false
	extractor := ingestion_engine.NewDocconvExtractor(useReadability, gemini, ingestion_engine.NewOCR(), logger)
	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}
	ingestor := ingestion_engine.NewDocumentIngestor(dbClient, objects, extractor, ingCfg, logger)
	answerer := retrieval.NewAnswerer(dbClient, gemini, logger)

	tokens := appMiddleware.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	userSvc := services.NewUserService(dbClient, tokens)
	docSvc := services.NewDocumentService(dbClient, objects, ingestor, answerer, cfg.MaxUploadBytes(), logger)

	registry := tools.NewRegistry(cfg.ToolTimeout, logger)
	tools.RegisterBuiltins(registry, tools.Builtins{
		Answerer: answerer,
		Library:  docSvc,
		Objects:  objects,
		HTTP: &tools.HTTPConfig{
			Client:        &http.Client{Timeout: cfg.ToolTimeout},
			WeatherAPIKey: cfg.WeatherAPIKey,
			TavilyAPIKey:  cfg.TavilyAPIKey,
		},
	})
	logger.Info("tools registered", "tools", registry.Names())

	loop := agent.NewLoop(gemini, registry,
		agent.WithMaxIterations(cfg.AgentMaxIterations),
		agent.WithLogger(logger),
	)
	chatSvc := services.NewChatService(dbClient, loop, cfg.HistoryLimit, logger)

	router := NewRouter(cfg, Routes{
		Auth:      handlers.NewAuthHandler(userSvc, logger),
		Documents: handlers.NewDocumentHandler(docSvc, cfg.MaxUploadBytes(), logger),
		Chat:      handlers.NewChatHandler(chatSvc, logger),
		Voice:     handlers.NewVoiceHandler(tokens, gemini, chatSvc, cfg.CORSOrigins, logger),
		DB:        dbClient,
		Tokens:    tokens,
	})

	return &App{
		DBClient: dbClient,
		LLM:      gemini,
		Server:   NewServer(cfg, router, logger),
	}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
