package ports

import (
	"context"

	"github.com/aretw0/branchflow/pkg/domain"
)

// Analyzer validates and routes a flow snapshot.
type Analyzer interface {
	Analyze(ctx context.Context, flowID string, flow domain.Flow) domain.Analysis
}
