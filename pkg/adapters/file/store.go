package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/flowfile"
)

const (
	ext       = ".json"
	tmpPrefix = "tmp-"
)

// Store implements ports.FlowStore using the local filesystem.
// Each flow is an export document named <flowID>.json in BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".branchflow/flows".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".branchflow", "flows")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(flowID string) (string, error) {
	if flowID == "" {
		return "", fmt.Errorf("flowID cannot be empty")
	}
	if strings.ContainsAny(flowID, `/\`) || flowID == "." || flowID == ".." {
		return "", fmt.Errorf("invalid flowID %q", flowID)
	}
	return filepath.Join(s.BasePath, flowID+ext), nil
}

// Save writes the flow atomically: temp file in the same directory, fsync, rename.
func (s *Store) Save(ctx context.Context, flowID string, flow domain.Flow) error {
	destPath, err := s.path(flowID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := flowfile.Encode(flow)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.BasePath, tmpPrefix+flowID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not overwrite on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing flow file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to flow file: %w", err)
	}
	return nil
}

// Load reads the flow document for flowID.
func (s *Store) Load(ctx context.Context, flowID string) (domain.Flow, error) {
	filePath, err := s.path(flowID)
	if err != nil {
		return domain.Flow{}, err
	}

	flow, err := flowfile.Load(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Flow{}, domain.ErrFlowNotFound
		}
		return domain.Flow{}, err
	}
	return flow, nil
}

// Delete removes the flow file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	filePath, err := s.path(flowID)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the ids of all stored flows, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}
