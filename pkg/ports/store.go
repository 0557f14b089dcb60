package ports

import (
	"context"

	"github.com/aretw0/branchflow/pkg/domain"
)

// FlowStore defines the interface for persisting flow documents.
// Stores keep the export document as-is; they never reshape it.
type FlowStore interface {
	// Save persists the flow under the given id, replacing any previous version.
	Save(ctx context.Context, flowID string, flow domain.Flow) error

	// Load retrieves the flow for a given id.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, flowID string) (domain.Flow, error)

	// Delete removes the flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, flowID string) error

	// List returns the ids of all stored flows.
	List(ctx context.Context) ([]string, error)
}
