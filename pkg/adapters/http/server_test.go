package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/branchflow"
	"github.com/aretw0/branchflow/internal/logging"
	adapter "github.com/aretw0/branchflow/pkg/adapters/http"
	"github.com/aretw0/branchflow/pkg/adapters/memory"
	"github.com/aretw0/branchflow/pkg/domain"
	"github.com/aretw0/branchflow/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeNodeFlow = `{
  "nodes": [
    {"id": "1", "type": "start", "text": "Hi", "position": {"x": 0, "y": 0},
     "options": [{"label": "go", "nextId": "2"}]},
    {"id": "2", "type": "question", "text": "Pick", "position": {"x": 0, "y": 300},
     "options": [{"label": "a", "nextId": "3"}, {"label": "b", "nextId": "404"}]},
    {"id": "3", "type": "end", "text": "Bye", "position": {"x": 300, "y": 600}, "options": []}
  ]
}`

type fixture struct {
	srv     *httptest.Server
	flows   *workspace.Manager
	streams *adapter.StreamManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.NewNop()
	engine := branchflow.New(branchflow.WithLogger(logger))
	streams := adapter.NewStreamManager(logger)
	flows := workspace.NewManager(memory.NewStore(),
		workspace.WithAnalyzer(engine),
		workspace.WithChangeListener(streams.OnChange),
	)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	handler := adapter.NewHandler(engine, flows,
		adapter.WithLogger(logger),
		adapter.WithStreams(streams),
		adapter.WithMetrics(metrics),
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, flows: flows, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestValidateFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/validate", threeNodeFlow)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	issues := decode[[]domain.ValidationIssue](t, resp)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueMissingTarget, issues[0].Kind)
	assert.Equal(t, "2", issues[0].NodeID)
	assert.Contains(t, issues[0].Message, "404")
}

func TestValidateFlow_EmptyListIsArray(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/validate", `{"nodes":[{"id":"1","type":"start","text":"x","position":{"x":0,"y":0},"options":[]}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestValidateFlow_BadRequests(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/validate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/validate?cycle_mode=sideways", threeNodeFlow)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouteFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/route?node_width=300", threeNodeFlow)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conns := decode[[]map[string]any](t, resp)
	require.Len(t, conns, 2)
	assert.Equal(t, "1-0-2", conns[0]["id"])
	assert.Equal(t, "2-0-3", conns[1]["id"])

	path := conns[0]["path"].(map[string]any)
	end := path["end"].(map[string]any)
	assert.Equal(t, 150.0, end["x"])
	assert.True(t, strings.HasPrefix(path["d"].(string), "M 0,118 C"))
}

func TestFlowsCRUD(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/flows/demo", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/flows/demo", threeNodeFlow)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analysis := decode[domain.Analysis](t, resp)
	assert.Equal(t, "demo", analysis.FlowID)
	assert.Len(t, analysis.Issues, 1)
	assert.Len(t, analysis.Connections, 2)

	resp = f.do(t, http.MethodGet, "/flows", "")
	assert.Equal(t, []string{"demo"}, decode[[]string](t, resp))

	resp = f.do(t, http.MethodGet, "/flows/demo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flow := decode[domain.Flow](t, resp)
	assert.Len(t, flow.Nodes, 3)

	resp = f.do(t, http.MethodGet, "/flows/demo/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[domain.Analysis](t, resp)
	assert.False(t, report.Valid())

	resp = f.do(t, http.MethodDelete, "/flows/demo", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/flows", "")
	assert.Empty(t, decode[[]string](t, resp))
}

func TestGetFlowGraph(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPut, "/flows/demo", threeNodeFlow)

	resp := f.do(t, http.MethodGet, "/flows/demo/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "graph TD")

	resp = f.do(t, http.MethodGet, "/flows/demo/graph?format=svg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<svg")

	resp = f.do(t, http.MethodGet, "/flows/demo/graph?format=png", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/flows/missing/graph", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInfoHealthAndDocs(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))

	resp = f.do(t, http.MethodGet, "/info", "")
	info := decode[map[string]string](t, resp)
	assert.Equal(t, "branchflow-http", info["app"])
	assert.Equal(t, strings.TrimSpace(branchflow.Version), info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	resp = f.do(t, http.MethodGet, "/openapi.yaml", "")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "openapi:")

	resp = f.do(t, http.MethodGet, "/metrics", "")
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "# metrics\n", string(body))

	resp = f.do(t, http.MethodOptions, "/validate", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetSwaggerIsValid(t *testing.T) {
	doc, err := adapter.GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/flows/{id}"))
}

func TestSubscribeEvents_RequiresFlowID(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscribeEvents_ReceivesDiff(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/events?flow_id=demo", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool {
		return f.streams.Subscribers("demo") == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.flows.Save(context.Background(), "demo", domain.Flow{
		Nodes: []domain.FlowNode{{ID: "1", Kind: domain.NodeKindStart}},
	}))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}

	var diff domain.FlowDiff
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &diff))
	assert.Equal(t, "demo", diff.FlowID)
	assert.Equal(t, []string{"1"}, diff.Added)
}
