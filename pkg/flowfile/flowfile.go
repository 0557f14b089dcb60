// Package flowfile reads and writes flow documents.
//
// The canonical format is the editor export: the whole flow as indented JSON.
// YAML documents with the same keys are accepted on input.
package flowfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/branchflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultExportName is the file name used when exporting without an explicit path.
const DefaultExportName = "flow_export.json"

// FormatFromPath picks the format from a file extension. Anything that is not .yaml/.yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a flow document.
func Decode(data []byte, format Format) (domain.Flow, error) {
	var flow domain.Flow

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &flow); err != nil {
			return domain.Flow{}, fmt.Errorf("failed to parse flow yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &flow); err != nil {
			return domain.Flow{}, fmt.Errorf("failed to parse flow json: %w", err)
		}
	}

	if flow.Nodes == nil {
		flow.Nodes = []domain.FlowNode{}
	}
	for i := range flow.Nodes {
		if flow.Nodes[i].Options == nil {
			flow.Nodes[i].Options = []domain.Option{}
		}
	}
	return flow, nil
}

// Read decodes a flow from r.
func Read(r io.Reader, format Format) (domain.Flow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to read flow: %w", err)
	}
	return Decode(data, format)
}

// Load reads a flow file, choosing the format by extension.
func Load(path string) (domain.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("failed to read flow file: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// Encode serializes the flow as JSON indented with two spaces, the export format.
func Encode(flow domain.Flow) ([]byte, error) {
	if flow.Nodes == nil {
		flow.Nodes = []domain.FlowNode{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(flow); err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeYAML serializes the flow as YAML.
func EncodeYAML(flow domain.Flow) ([]byte, error) {
	data, err := yaml.Marshal(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow yaml: %w", err)
	}
	return data, nil
}

// Write encodes the flow to w in the given format.
func Write(w io.Writer, flow domain.Flow, format Format) error {
	var (
		data []byte
		err  error
	)
	if format == FormatYAML {
		data, err = EncodeYAML(flow)
	} else {
		data, err = Encode(flow)
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
