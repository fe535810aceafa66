// Package mcp exposes the retrieval and recommendation layer as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/pkg/log"
)

const (
	ToolCatalogPage   = "catalog_page"
	ToolPredictNext   = "predict_next"
	ToolServiceHealth = "service_health"
)

type Server struct {
	mcp         *server.MCPServer
	recommender core.Recommender
	browser     core.Browser
	health      core.HealthChecker
	topK        int
	pageSize    int
}

func NewServer(rec core.Recommender, browser core.Browser, health core.HealthChecker, topK, pageSize int) *Server {
	s := &Server{
		mcp:         server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false)),
		recommender: rec,
		browser:     browser,
		health:      health,
		topK:        topK,
		pageSize:    pageSize,
	}

	s.mcp.AddTool(mcpproto.NewTool(ToolCatalogPage,
		mcpproto.WithDescription("Fetch one page of the product catalog. Falls back to the offline catalog, unpaginated, when the service is unreachable."),
		mcpproto.WithString("search", mcpproto.Description("Case-insensitive text matched against name, aisle and department")),
		mcpproto.WithString("department", mcpproto.Description("Exact department name")),
		mcpproto.WithString("aisle", mcpproto.Description("Exact aisle name")),
		mcpproto.WithNumber("page", mcpproto.Description("1-based page number"), mcpproto.Min(1)),
		mcpproto.WithNumber("page_size", mcpproto.Description("Products per page"), mcpproto.Min(1)),
	), s.handleCatalogPage)

	s.mcp.AddTool(mcpproto.NewTool(ToolPredictNext,
		mcpproto.WithDescription("Rank the products a shopper is most likely to add next, given their cart."),
		mcpproto.WithArray("cart",
			mcpproto.Required(),
			mcpproto.Description("Cart lines"),
			mcpproto.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{"type": "string"},
					"quantity":   map[string]any{"type": "integer", "minimum": 1},
				},
				"required": []string{"product_id"},
			}),
		),
		mcpproto.WithNumber("top_k", mcpproto.Description("Maximum number of candidates"), mcpproto.Min(1)),
	), s.handlePredictNext)

	s.mcp.AddTool(mcpproto.NewTool(ToolServiceHealth,
		mcpproto.WithDescription("Report whether the prediction service is up and its model loaded."),
	), s.handleServiceHealth)

	return s
}

// Serve speaks MCP over the given streams until ctx is done or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.FromCtx(ctx).Info().Msg("serving mcp over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handleCatalogPage(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	f := core.Filter{
		Search:     req.GetString("search", ""),
		Department: req.GetString("department", ""),
		Aisle:      req.GetString("aisle", ""),
	}
	page := req.GetInt("page", 1)
	size := req.GetInt("page_size", s.pageSize)
	if page < 1 || size < 1 {
		return mcpproto.NewToolResultError("page and page_size must be at least 1"), nil
	}

	return jsonResult(s.browser.GetCatalogPage(ctx, f, page, size))
}

type predictArgs struct {
	Cart []core.CartLine `json:"cart"`
	TopK int             `json:"top_k"`
}

func (s *Server) handlePredictNext(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	var args predictArgs
	if err := req.BindArguments(&args); err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	if args.TopK <= 0 {
		args.TopK = s.topK
	}
	lines, err := mergeLines(args.Cart)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	return jsonResult(s.recommender.GetPredictions(ctx, lines, args.TopK))
}

// mergeLines folds repeated product ids into one line holding the summed
// quantity, in first-seen order, so the cart sent on matches what a session
// cart would hold.
func mergeLines(in []core.CartLine) ([]core.CartLine, error) {
	out := make([]core.CartLine, 0, len(in))
	index := make(map[string]int, len(in))
	for _, l := range in {
		if l.ProductID == "" {
			return nil, errors.New("every cart line needs a product_id")
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func (s *Server) handleServiceHealth(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return jsonResult(s.health.Health(ctx))
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
