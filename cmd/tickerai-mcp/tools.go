package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createQueryStockTool returns the query_stock tool definition
func createQueryStockTool() mcp.Tool {
	return mcp.NewTool("query_stock",
		mcp.WithDescription("Answer a question about a stock using the indexed knowledge base"),
		mcp.WithString("ticker",
			mcp.Required(),
			mcp.Description("Stock ticker symbol, e.g. AAPL"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the stock"),
		),
	)
}

// createStatsTool returns the get_knowledge_base_stats tool definition
func createStatsTool() mcp.Tool {
	return mcp.NewTool("get_knowledge_base_stats",
		mcp.WithDescription("Report how many chunks the vector index currently holds"),
	)
}

// createRefreshTool returns the refresh_knowledge_base tool definition
func createRefreshTool() mcp.Tool {
	return mcp.NewTool("refresh_knowledge_base",
		mcp.WithDescription("Rebuild the vector index from the knowledge directory"),
	)
}
