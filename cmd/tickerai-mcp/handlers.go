package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"tickerai/internal/domain"
	"tickerai/internal/service"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleQueryStock implements the query_stock tool
func handleQueryStock(orchestrator *service.Orchestrator, logger log.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, err := request.RequireString("ticker")
		if err != nil || strings.TrimSpace(ticker) == "" {
			return textResult("Error: ticker parameter is required"), nil
		}
		question, err := request.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return textResult("Error: question parameter is required"), nil
		}

		resp, err := orchestrator.Answer(ctx, domain.QueryRequest{Ticker: ticker, Question: question})
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("query failed")
			return textResult(fmt.Sprintf("Query error: %v", err)), nil
		}

		var b strings.Builder
		b.WriteString(resp.Answer)
		if len(resp.Sources) > 0 {
			b.WriteString("\n\nSources: " + strings.Join(resp.Sources, ", "))
		}
		return textResult(b.String()), nil
	}
}

// handleStats implements the get_knowledge_base_stats tool
func handleStats(store domain.VectorStore, logger log.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count, err := store.Count(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("stats failed")
			return textResult(fmt.Sprintf("Stats error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("The vector index holds %d chunks.", count)), nil
	}
}

// handleRefresh implements the refresh_knowledge_base tool
func handleRefresh(ingestor *service.Ingestor, logger log.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := ingestor.Run(ctx, true)
		if err != nil {
			logger.Error().Err(err).Msg("refresh failed")
			return textResult(fmt.Sprintf("Refresh error: %v", err)), nil
		}
		return textResult(fmt.Sprintf("Rebuilt index: %d documents, %d chunks (embedder %s).",
			stats.Documents, stats.Chunks, stats.Embedder)), nil
	}
}
