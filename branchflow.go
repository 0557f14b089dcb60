package branchflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/branchflow/internal/logging"
	loamAdapter "github.com/aretw0/branchflow/pkg/adapters/loam"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/routing"
	"github.com/aretw0/branchflow/pkg/validation"
)

// Engine runs validation and routing with logging and observation hooks.
// It holds no per-flow state and is safe for concurrent use.
type Engine struct {
	hooks        domain.AnalysisHooks
	logger       *slog.Logger
	validateOpts []validation.Option
	routeOpts    []routing.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithHooks registers observation hooks.
func WithHooks(hooks domain.AnalysisHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCycleMode selects how revisited nodes are reported.
func WithCycleMode(mode validation.CycleMode) Option {
	return func(e *Engine) {
		e.validateOpts = append(e.validateOpts, validation.WithCycleMode(mode))
	}
}

// WithMultipleStartCheck toggles the multiple-start issue.
func WithMultipleStartCheck(enabled bool) Option {
	return func(e *Engine) {
		e.validateOpts = append(e.validateOpts, validation.WithMultipleStartCheck(enabled))
	}
}

// WithNodeWidth sets the rendered node width used for anchors.
func WithNodeWidth(width float64) Option {
	return func(e *Engine) {
		e.routeOpts = append(e.routeOpts, routing.WithNodeWidth(width))
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	return eng
}

// Validate reports structural issues of the flow. Extra options override the
// engine's for this call.
func (e *Engine) Validate(ctx context.Context, flowID string, flow domain.Flow, extra ...validation.Option) []domain.ValidationIssue {
	began := time.Now()
	opts := append(append([]validation.Option{}, e.validateOpts...), extra...)
	issues := validation.Validate(flow, opts...)
	elapsed := time.Since(began)

	e.logger.Debug("flow validated",
		"flow_id", flowID,
		"nodes", len(flow.Nodes),
		"issues", len(issues),
		"duration", elapsed,
	)
	if e.hooks.OnValidate != nil {
		e.hooks.OnValidate(ctx, &domain.ValidateEvent{
			EventBase: domain.EventBase{Timestamp: began, Type: domain.EventValidate, FlowID: flowID},
			NodeCount: len(flow.Nodes),
			Issues:    issues,
			Duration:  elapsed,
		})
	}
	return issues
}

// Route computes the connection overlay of the flow. Extra options override
// the engine's for this call.
func (e *Engine) Route(ctx context.Context, flowID string, flow domain.Flow, extra ...routing.Option) []domain.Connection {
	began := time.Now()
	opts := append(append([]routing.Option{}, e.routeOpts...), extra...)
	conns := routing.Route(flow.Nodes, opts...)
	elapsed := time.Since(began)

	e.logger.Debug("flow routed",
		"flow_id", flowID,
		"nodes", len(flow.Nodes),
		"connections", len(conns),
		"duration", elapsed,
	)
	if e.hooks.OnRoute != nil {
		e.hooks.OnRoute(ctx, &domain.RouteEvent{
			EventBase:       domain.EventBase{Timestamp: began, Type: domain.EventRoute, FlowID: flowID},
			NodeCount:       len(flow.Nodes),
			ConnectionCount: len(conns),
			Duration:        elapsed,
		})
	}
	return conns
}

// Analyze runs Validate and Route on the same snapshot. It implements ports.Analyzer.
func (e *Engine) Analyze(ctx context.Context, flowID string, flow domain.Flow) domain.Analysis {
	return domain.Analysis{
		FlowID:      flowID,
		Issues:      e.Validate(ctx, flowID, flow),
		Connections: e.Route(ctx, flowID, flow),
	}
}

// LoadDir reads a flow authored as one document per node.
func LoadDir(ctx context.Context, dir string) (domain.Flow, error) {
	loader, err := loamAdapter.Open(dir)
	if err != nil {
		return domain.Flow{}, err
	}
	flow, err := loader.Load(ctx)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to load flow directory %s: %w", dir, err)
	}
	return flow, nil
}
