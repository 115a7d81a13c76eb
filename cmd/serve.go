package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose docs_memory_search as an MCP stdio server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	rt, err := loadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.close()

	s := server.NewMCPServer("memdocs", version)

	tool := mcp.NewTool("docs_memory_search",
		mcp.WithDescription("Search documentation memory items (local store)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-20, default 5)"),
		),
		mcp.WithArray("tags",
			mcp.Description("Only return items carrying every listed tag"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("project",
			mcp.Description("Only return items belonging to this project"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := rt.tools.Execute(ctx, "docs_memory_search", req.GetArguments())
		if res.IsError {
			return mcp.NewToolResultError(res.ForLLM), nil
		}
		return mcp.NewToolResultText(res.ForLLM), nil
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
