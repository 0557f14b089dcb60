package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/branchflow/internal/config"
	"github.com/aretw0/branchflow/pkg/adapters/file"
	"github.com/aretw0/branchflow/pkg/adapters/memory"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlow = `{
  "meta": {"theme": "dark", "canvas_size": {"w": 800, "h": 600}},
  "nodes": [
    {"id": "1", "type": "start", "text": "Welcome!", "position": {"x": 0, "y": 0},
     "options": [{"label": "Help", "nextId": "2"}, {"label": "Bye", "nextId": "3"}]},
    {"id": "2", "type": "question", "text": "What do you need?", "position": {"x": 0, "y": 300},
     "options": [{"label": "Nothing", "nextId": "3"}]},
    {"id": "3", "type": "end", "text": "See you.", "position": {"x": 300, "y": 600}, "options": []}
  ]
}`

func writeFlow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadFlow_FileAndStdin(t *testing.T) {
	ctx := context.Background()

	flow, err := loadFlow(ctx, writeFlow(t, sampleFlow), nil)
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 3)

	flow, err = loadFlow(ctx, "-", strings.NewReader(sampleFlow))
	require.NoError(t, err)
	assert.Equal(t, "dark", flow.Meta.Theme)

	_, err = loadFlow(ctx, filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	c := config.Default()

	b, err := openBackend(c)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, b.store)
	assert.Nil(t, b.locker)

	c.Store.Backend = config.BackendFile
	c.Store.Dir = t.TempDir()
	b, err = openBackend(c)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, b.store)
	assert.NoError(t, b.close())

	c.Store.Encryption.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	b, err = openBackend(c)
	require.NoError(t, err)
	require.NoError(t, b.store.Save(context.Background(), "secret", domain.Flow{Nodes: []domain.FlowNode{{ID: "1", Text: "hidden"}}}))
	raw, err := os.ReadFile(filepath.Join(c.Store.Dir, "secret.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	loaded, err := b.store.Load(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "hidden", loaded.Nodes[0].Text)

	c.Store.Backend = "etcd"
	_, err = openBackend(c)
	assert.Error(t, err)
}

func TestValidateCommand_JSON(t *testing.T) {
	broken := strings.Replace(sampleFlow, `{"label": "Nothing", "nextId": "3"}`, `{"label": "Nothing", "nextId": "9"}`, 1)

	out, err := run(t, "", "validate", "--format", "json", "--cycle-mode", "revisit", writeFlow(t, broken))
	require.ErrorIs(t, err, errIssuesFound)

	var issues []domain.ValidationIssue
	require.NoError(t, json.Unmarshal([]byte(out), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueMissingTarget, issues[0].Kind)
	assert.Equal(t, "2", issues[0].NodeID)
}

func TestValidateCommand_TextValid(t *testing.T) {
	out, err := run(t, "", "validate", "--format", "text", "--cycle-mode", "strict", writeFlow(t, sampleFlow))
	require.NoError(t, err)
	assert.Contains(t, out, "Flow is valid!")
}

func TestValidateCommand_RevisitFlagsConvergence(t *testing.T) {
	out, err := run(t, "", "validate", "--format", "json", "--cycle-mode", "revisit", writeFlow(t, sampleFlow))
	require.ErrorIs(t, err, errIssuesFound)

	var issues []domain.ValidationIssue
	require.NoError(t, json.Unmarshal([]byte(out), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueCircular, issues[0].Kind)
	assert.Equal(t, "3", issues[0].NodeID)
}

func TestRouteCommand(t *testing.T) {
	out, err := run(t, sampleFlow, "route", "--node-width", "200", "-")
	require.NoError(t, err)

	var conns []domain.Connection
	require.NoError(t, json.Unmarshal([]byte(out), &conns))
	require.Len(t, conns, 3)
	assert.Equal(t, "1-1-3", conns[1].ID)
	assert.Equal(t, domain.SideRight, conns[1].Side)
}

func TestExportCommand_YAML(t *testing.T) {
	out, err := run(t, sampleFlow, "export", "--format", "yaml", "--output", "", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "nextId:")
	assert.Contains(t, out, "canvas_size:")
}

func TestGraphCommand_SVGToFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "flow.svg")

	_, err := run(t, sampleFlow, "graph", "--format", "svg", "--output", target, "-")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRunPreview(t *testing.T) {
	flow, err := loadFlow(context.Background(), writeFlow(t, sampleFlow), nil)
	require.NoError(t, err)
	session, err := preview.Start(flow)
	require.NoError(t, err)

	var out bytes.Buffer
	runPreview(session, strings.NewReader("7\nHelp\n1\n"), &out)

	assert.Contains(t, out.String(), `Unknown option "7"`)
	assert.Contains(t, out.String(), "What do you need?")
	assert.Contains(t, out.String(), "(conversation ended)")

	transcript := session.Transcript()
	require.Len(t, transcript.Conversation, 4)
	assert.Equal(t, "Welcome!", transcript.Conversation[0].Text)
	assert.Equal(t, "Help", transcript.Conversation[1].Text)
	assert.Equal(t, domain.SpeakerUser, transcript.Conversation[3].Speaker)
	assert.Equal(t, "Nothing", transcript.Conversation[3].Text)
}

func TestRunPreview_QuitAndEOF(t *testing.T) {
	flow, err := loadFlow(context.Background(), writeFlow(t, sampleFlow), nil)
	require.NoError(t, err)

	session, err := preview.Start(flow)
	require.NoError(t, err)
	var out bytes.Buffer
	runPreview(session, strings.NewReader("quit\n"), &out)
	assert.Contains(t, out.String(), "Bye!")
	assert.Empty(t, session.Conversation())

	session, err = preview.Start(flow)
	require.NoError(t, err)
	out.Reset()
	runPreview(session, strings.NewReader(""), &out)
	assert.Empty(t, session.Conversation())
}

func TestWriteTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	require.NoError(t, writeTranscript(path, domain.Transcript{
		StartTime:    1,
		EndTime:      2,
		Conversation: []domain.ChatMessage{{Speaker: domain.SpeakerBot, Text: "hi", Timestamp: 1}},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "bot"`)
	assert.Contains(t, string(data), `"startTime": 1`)
}
