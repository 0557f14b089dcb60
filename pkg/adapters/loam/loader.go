package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader builds a flow from a Loam repository holding one document per node
// (Markdown with frontmatter, JSON or YAML). The document body is the node text.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
	Meta domain.FlowMeta
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only strict Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve flow directory: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// Load reads every node document and assembles the flow.
// Nodes are ordered by their "order" field, then by id.
func (l *Loader) Load(ctx context.Context) (domain.Flow, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("loam list failed: %w", err)
	}

	type ordered struct {
		order int
		node  domain.FlowNode
	}

	seen := make(map[string]string, len(docs))
	nodes := make([]ordered, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return domain.Flow{}, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		content := doc.Content
		if doc.Data.Text == "" && content == "" {
			// List serves cached metadata only; the body needs a full read.
			full, err := l.Repo.Get(ctx, doc.ID)
			if err != nil {
				return domain.Flow{}, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			content = full.Content
		}

		node, err := buildNode(id, doc.Data, content)
		if err != nil {
			return domain.Flow{}, fmt.Errorf("invalid node document %s: %w", doc.ID, err)
		}
		nodes = append(nodes, ordered{order: doc.Data.Order, node: node})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].order != nodes[j].order {
			return nodes[i].order < nodes[j].order
		}
		return nodes[i].node.ID < nodes[j].node.ID
	})

	flow := domain.Flow{Meta: l.Meta, Nodes: make([]domain.FlowNode, 0, len(nodes))}
	for _, n := range nodes {
		flow.Nodes = append(flow.Nodes, n.node)
	}
	return flow, nil
}

// ListNodes lists the normalized ids of all node documents.
func (l *Loader) ListNodes(ctx context.Context) ([]string, error) {
	flow, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(flow.Nodes))
	for _, n := range flow.Nodes {
		ids = append(ids, n.ID)
	}
	return ids, nil
}

func buildNode(id string, meta NodeMetadata, content string) (domain.FlowNode, error) {
	kind := domain.NodeKind(meta.Type)
	if kind == "" {
		kind = domain.NodeKindQuestion
	}
	if !kind.Valid() {
		return domain.FlowNode{}, fmt.Errorf("unknown node type %q", meta.Type)
	}

	text := meta.Text
	if text == "" {
		text = strings.TrimSpace(content)
	}

	options := make([]domain.Option, 0, len(meta.Options))
	for _, opt := range meta.Options {
		options = append(options, domain.Option{
			Label:    opt.Label,
			TargetID: trimExtension(opt.target()),
		})
	}

	return domain.FlowNode{
		ID:       id,
		Kind:     kind,
		Text:     text,
		Position: domain.Position{X: meta.Position.X, Y: meta.Position.Y},
		Options:  options,
	}, nil
}

func trimExtension(id string) string {
	switch ext := filepath.Ext(id); ext {
	case ".md", ".json", ".yaml", ".yml":
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
