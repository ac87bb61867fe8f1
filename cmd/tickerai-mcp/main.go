package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"tickerai/internal/chunker"
	"tickerai/internal/config"
	"tickerai/internal/domain"
	"tickerai/internal/embedding"
	"tickerai/internal/loader"
	"tickerai/internal/provider"
	"tickerai/internal/service"
	"tickerai/internal/vectorstore"
)

const serverVersion = "1.0.0"

func main() {
	_ = godotenv.Load()

	// stdout carries the MCP protocol, so logs go to stderr and stay quiet.
	logger := log.Logger{
		Level:  log.WarnLevel,
		Writer: &log.ConsoleWriter{Writer: os.Stderr},
	}

	var cfg *config.Config
	var err error
	if path := os.Getenv("TICKERAI_CONFIG"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build embedder")
	}
	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build vector store")
	}
	prov, err := provider.New(cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider")
	}

	ld := loader.New(cfg.Knowledge.Dir, logger)
	ch := chunker.New(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	ingestor := service.NewIngestor(ld, ch, embedder, store, logger)
	retriever := service.NewRetriever(embedder, store, cfg.Knowledge.TopK, cfg.Knowledge.MaxContextChars, logger)
	orchestrator := service.NewOrchestrator(retriever, prov, cfg.LLM.Provider, domain.GenerateOptions{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger)

	mcpServer := server.NewMCPServer(
		"tickerai",
		serverVersion,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createQueryStockTool(), handleQueryStock(orchestrator, logger))
	mcpServer.AddTool(createStatsTool(), handleStats(store, logger))
	mcpServer.AddTool(createRefreshTool(), handleRefresh(ingestor, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
