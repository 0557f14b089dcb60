package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/branchflow"
	"github.com/aretw0/branchflow/internal/presentation/graph"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/flowfile"
	"github.com/aretw0/branchflow/pkg/routing"
	"github.com/aretw0/branchflow/pkg/validation"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const flowsURI = "branchflow://flows"

// FlowArgs selects the flow a tool works on: an inline JSON document or the
// id of a stored flow. Flow wins when both are set.
type FlowArgs struct {
	Flow      string  `json:"flow,omitempty"`
	FlowID    string  `json:"flow_id,omitempty"`
	CycleMode string  `json:"cycle_mode,omitempty"`
	NodeWidth float64 `json:"node_width,omitempty"`
}

// ValidateResponse is the structured output of validate_flow.
type ValidateResponse struct {
	FlowID string                   `json:"flow_id,omitempty" jsonschema_description:"Stored flow id, when one was used"`
	Valid  bool                     `json:"valid" jsonschema_description:"True when no issues were found"`
	Issues []domain.ValidationIssue `json:"issues" jsonschema_description:"Validation issues in report order"`
}

// RouteResponse is the structured output of route_flow.
type RouteResponse struct {
	FlowID      string              `json:"flow_id,omitempty" jsonschema_description:"Stored flow id, when one was used"`
	Connections []domain.Connection `json:"connections" jsonschema_description:"One connection per resolvable option"`
}

// Engine is the analysis core exposed as tools.
type Engine interface {
	Validate(ctx context.Context, flowID string, flow domain.Flow, extra ...validation.Option) []domain.ValidationIssue
	Route(ctx context.Context, flowID string, flow domain.Flow, extra ...routing.Option) []domain.Connection
	Analyze(ctx context.Context, flowID string, flow domain.Flow) domain.Analysis
}

// Server exposes the engine and, optionally, the stored flows over MCP.
type Server struct {
	engine    Engine
	flows     *workspace.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. flows may be nil, in which
// case tools only accept inline documents.
func NewServer(engine Engine, flows *workspace.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		flows:     flows,
		logger:    logger,
		mcpServer: server.NewMCPServer("branchflow-mcp", strings.TrimSpace(branchflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("MCP Server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	flowParams := []mcp.ToolOption{
		mcp.WithString("flow", mcp.Description("Flow document as JSON (nodes with id, type, text, position, options)")),
		mcp.WithString("flow_id", mcp.Description("Id of a stored flow, used when flow is omitted")),
	}

	// TOOL: validate_flow
	validateTool := mcp.NewTool("validate_flow", append([]mcp.ToolOption{
		mcp.WithDescription("Report orphaned nodes, cycles, dangling option targets and start node problems."),
		mcp.WithString("cycle_mode", mcp.Description("revisit (default) or strict")),
		mcp.WithOutputSchema[ValidateResponse](),
	}, flowParams...)...)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: route_flow
	routeTool := mcp.NewTool("route_flow", append([]mcp.ToolOption{
		mcp.WithDescription("Compute the connection curves drawn between option slots and their target nodes."),
		mcp.WithNumber("node_width", mcp.Description("Node card width in pixels (default 200)")),
		mcp.WithOutputSchema[RouteResponse](),
	}, flowParams...)...)
	s.mcpServer.AddTool(routeTool, mcp.NewStructuredToolHandler(s.handleRoute))

	// TOOL: render_mermaid
	mermaidTool := mcp.NewTool("render_mermaid", append([]mcp.ToolOption{
		mcp.WithDescription("Render the flow as a Mermaid diagram with validation issues highlighted."),
	}, flowParams...)...)
	s.mcpServer.AddTool(mermaidTool, s.handleMermaid)

	// TOOL: list_flows
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the ids of stored flows."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.listFlows(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleValidate(ctx context.Context, _ mcp.CallToolRequest, args FlowArgs) (ValidateResponse, error) {
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return ValidateResponse{}, err
	}

	var extra []validation.Option
	if args.CycleMode != "" {
		mode, err := validation.ParseCycleMode(args.CycleMode)
		if err != nil {
			return ValidateResponse{}, err
		}
		extra = append(extra, validation.WithCycleMode(mode))
	}

	issues := s.engine.Validate(ctx, args.FlowID, flow, extra...)
	if issues == nil {
		issues = []domain.ValidationIssue{}
	}
	return ValidateResponse{FlowID: args.FlowID, Valid: len(issues) == 0, Issues: issues}, nil
}

func (s *Server) handleRoute(ctx context.Context, _ mcp.CallToolRequest, args FlowArgs) (RouteResponse, error) {
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return RouteResponse{}, err
	}

	var extra []routing.Option
	if args.NodeWidth > 0 {
		extra = append(extra, routing.WithNodeWidth(args.NodeWidth))
	}

	conns := s.engine.Route(ctx, args.FlowID, flow, extra...)
	if conns == nil {
		conns = []domain.Connection{}
	}
	return RouteResponse{FlowID: args.FlowID, Connections: conns}, nil
}

func (s *Server) handleMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := FlowArgs{
		Flow:   request.GetString("flow", ""),
		FlowID: request.GetString("flow_id", ""),
	}
	flow, err := s.resolveFlow(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issues := s.engine.Validate(ctx, args.FlowID, flow)
	return mcp.NewToolResultText(graph.GenerateMermaid(flow, &graph.Overlay{Issues: issues})), nil
}

func (s *Server) resolveFlow(ctx context.Context, args FlowArgs) (domain.Flow, error) {
	if args.Flow != "" {
		flow, err := flowfile.Decode([]byte(args.Flow), flowfile.FormatJSON)
		if err != nil {
			return domain.Flow{}, fmt.Errorf("invalid flow document: %w", err)
		}
		return flow, nil
	}
	if args.FlowID == "" {
		return domain.Flow{}, errors.New("either flow or flow_id is required")
	}
	if s.flows == nil {
		return domain.Flow{}, errors.New("no flow store configured")
	}
	return s.flows.Load(ctx, args.FlowID)
}

func (s *Server) listFlows(ctx context.Context) ([]string, error) {
	if s.flows == nil {
		return []string{}, nil
	}
	ids, err := s.flows.List(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *Server) registerResources() {
	// EXPOSE: branchflow://flows
	s.mcpServer.AddResource(mcp.NewResource(flowsURI, "Stored Flows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.listFlows(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		data, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: flowsURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	// EXPOSE: branchflow://flows/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(flowsURI+"/{id}", "Stored Flow Analysis",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.readFlowResource(ctx, request.Params.URI)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: text},
		}, nil
	})
}

// readFlowResource returns the analysis of the flow named by uri.
func (s *Server) readFlowResource(ctx context.Context, uri string) (string, error) {
	id := strings.TrimPrefix(uri, flowsURI+"/")
	if id == "" || id == uri {
		return "", fmt.Errorf("unexpected resource uri %q", uri)
	}
	flow, err := s.resolveFlow(ctx, FlowArgs{FlowID: id})
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(s.engine.Analyze(ctx, id, flow))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
