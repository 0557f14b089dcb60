package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/branchflow"
	"github.com/aretw0/branchflow/internal/presentation/graph"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/flowfile"
	"github.com/aretw0/branchflow/pkg/routing"
	"github.com/aretw0/branchflow/pkg/validation"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps flow documents accepted over HTTP.
const maxBodyBytes = 4 << 20

// Engine is the analysis core served by the handler.
type Engine interface {
	Validate(ctx context.Context, flowID string, flow domain.Flow, extra ...validation.Option) []domain.ValidationIssue
	Route(ctx context.Context, flowID string, flow domain.Flow, extra ...routing.Option) []domain.Connection
	Analyze(ctx context.Context, flowID string, flow domain.Flow) domain.Analysis
}

// Server implements ServerInterface.
type Server struct {
	Engine  Engine
	Flows   *workspace.Manager
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// Option configures the handler.
type Option func(*Server)

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams shares a StreamManager, typically one already registered as
// a workspace change listener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger overrides the JSON stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(engine Engine, flows *workspace.Manager, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		Flows:  flows,
		logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			server.logger.Error("Failed to load OpenAPI spec", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load spec")
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	handler := HandlerFromMux(server, r)
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>branchflow API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// ValidateFlow handles POST /validate.
func (s *Server) ValidateFlow(w http.ResponseWriter, r *http.Request, params ValidateFlowParams) {
	flow, ok := s.decodeFlow(w, r, "ValidateFlow")
	if !ok {
		return
	}

	var extra []validation.Option
	if params.CycleMode != nil {
		mode, err := validation.ParseCycleMode(*params.CycleMode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		extra = append(extra, validation.WithCycleMode(mode))
	}

	issues := s.Engine.Validate(r.Context(), "", flow, extra...)
	s.writeJSON(w, http.StatusOK, nonNil(issues))
}

// RouteFlow handles POST /route.
func (s *Server) RouteFlow(w http.ResponseWriter, r *http.Request, params RouteFlowParams) {
	flow, ok := s.decodeFlow(w, r, "RouteFlow")
	if !ok {
		return
	}

	var extra []routing.Option
	if params.NodeWidth != nil {
		extra = append(extra, routing.WithNodeWidth(*params.NodeWidth))
	}

	conns := s.Engine.Route(r.Context(), "", flow, extra...)
	s.writeJSON(w, http.StatusOK, nonNil(conns))
}

// ListFlows handles GET /flows.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Flows.List(r.Context())
	if err != nil {
		s.fail(w, "ListFlows", err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(ids))
}

// GetFlow handles GET /flows/{id}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request, id string) {
	flow, err := s.Flows.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetFlow", err)
		return
	}
	s.writeJSON(w, http.StatusOK, flow)
}

// PutFlow handles PUT /flows/{id}. Subscribers of the flow receive the diff.
func (s *Server) PutFlow(w http.ResponseWriter, r *http.Request, id string) {
	flow, ok := s.decodeFlow(w, r, "PutFlow")
	if !ok {
		return
	}
	if err := s.Flows.Save(r.Context(), id, flow); err != nil {
		s.fail(w, "PutFlow", err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.Analyze(r.Context(), id, flow))
}

// DeleteFlow handles DELETE /flows/{id}.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Flows.Delete(r.Context(), id); err != nil {
		s.fail(w, "DeleteFlow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFlowReport handles GET /flows/{id}/report.
func (s *Server) GetFlowReport(w http.ResponseWriter, r *http.Request, id string) {
	analysis, err := s.Flows.Analyze(r.Context(), id)
	if err != nil {
		s.fail(w, "GetFlowReport", err)
		return
	}
	s.writeJSON(w, http.StatusOK, analysis)
}

// GetFlowGraph handles GET /flows/{id}/graph.
func (s *Server) GetFlowGraph(w http.ResponseWriter, r *http.Request, id string, params GetFlowGraphParams) {
	format := "mermaid"
	if params.Format != nil {
		format = *params.Format
	}
	if format != "mermaid" && format != "svg" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}

	flow, err := s.Flows.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetFlowGraph", err)
		return
	}
	analysis := s.Engine.Analyze(r.Context(), id, flow)

	if format == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(graph.RenderSVG(flow, analysis.Connections, graph.SVGOptions{Issues: analysis.Issues})))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(flow, &graph.Overlay{Issues: analysis.Issues})))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "branchflow-http",
		"version":     strings.TrimSpace(branchflow.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles GET /events (SSE). Each event carries a FlowDiff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("SubscribeEvents: Streaming not supported")
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to flow updates", "flow_id", params.FlowId)
	ch, cancel := s.Streams.Subscribe(params.FlowId)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "flow_id", params.FlowId)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) decodeFlow(w http.ResponseWriter, r *http.Request, op string) (domain.Flow, bool) {
	flow, err := flowfile.Read(http.MaxBytesReader(w, r.Body, maxBodyBytes), flowfile.FormatJSON)
	if err != nil {
		s.logger.Warn(op+": Invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid flow document")
		return domain.Flow{}, false
	}
	return flow, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrFlowNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
