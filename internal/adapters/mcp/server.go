// Package mcp exposes the advertiser and segment catalogs as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
)

// Tool names.
const (
	ToolLookupPreferences = "lookup_advertiser_preferences"
	ToolListSegments      = "list_audience_segments"
)

const defaultSegmentLimit = 20

// Server wraps an MCP server backed by the reference catalogs.
type Server struct {
	catalog   *catalog.Catalog
	logger    *logging.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a server and registers its tools.
func NewServer(cat *catalog.Catalog, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		catalog: cat,
		logger:  logger,
		mcpServer: server.NewMCPServer(
			"adplanner",
			version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	lookup := mcp.NewTool(ToolLookupPreferences,
		mcp.WithDescription("Look up an advertiser's historical targeting vector and stored preferences"),
		mcp.WithString("advertiser",
			mcp.Required(),
			mcp.Description("Advertiser name; matched case-insensitively and by substring"),
		),
	)
	s.mcpServer.AddTool(lookup, s.handleLookupPreferences)

	segments := mcp.NewTool(ToolListSegments,
		mcp.WithDescription("List ACR audience segments, optionally fuzzy-filtered"),
		mcp.WithString("query",
			mcp.Description("Fuzzy filter over segment name, geo and tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of segments to return"),
			mcp.DefaultNumber(defaultSegmentLimit),
			mcp.Min(1),
		),
	)
	s.mcpServer.AddTool(segments, s.handleListSegments)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves the tools over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcpServer)
}

// lookupResult is the lookup_advertiser_preferences payload.
type lookupResult struct {
	Query       string                         `json:"query"`
	Found       bool                           `json:"found"`
	Record      *core.AdvertiserRecord         `json:"record,omitempty"`
	Preferences *catalog.AdvertiserPreferences `json:"preferences,omitempty"`
}

func (s *Server) handleLookupPreferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("advertiser")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("advertiser is required"), nil
	}

	res := lookupResult{Query: name}
	if s.catalog.Advertisers != nil {
		if rec, ok := s.catalog.Advertisers.Lookup(name); ok {
			res.Found = true
			res.Record = rec
		}
	}
	if s.catalog.Preferences != nil {
		id := name
		if res.Record != nil {
			id = res.Record.Advertiser
		}
		prefs, err := s.catalog.Preferences.Get(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("loading preferences: %v", err)), nil
		}
		res.Preferences = prefs
	}
	s.logger.Debug("mcp lookup", "advertiser", name, "found", res.Found)
	return jsonResult(res)
}

func (s *Server) handleListSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.catalog.Segments == nil {
		return jsonResult([]catalog.Segment{})
	}
	segments, err := s.catalog.Segments.Search(req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading segments: %v", err)), nil
	}
	limit := int(req.GetFloat("limit", defaultSegmentLimit))
	if limit > 0 && len(segments) > limit {
		segments = segments[:limit]
	}
	if segments == nil {
		segments = []catalog.Segment{}
	}
	return jsonResult(segments)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
