package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var specYAML []byte

// rawSpec returns the embedded OpenAPI document.
func rawSpec() ([]byte, error) {
	return specYAML, nil
}

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// ValidateFlowParams defines parameters for ValidateFlow.
type ValidateFlowParams struct {
	CycleMode *string `form:"cycle_mode,omitempty" json:"cycle_mode,omitempty"`
}

// RouteFlowParams defines parameters for RouteFlow.
type RouteFlowParams struct {
	NodeWidth *float64 `form:"node_width,omitempty" json:"node_width,omitempty"`
}

// GetFlowGraphParams defines parameters for GetFlowGraph.
type GetFlowGraphParams struct {
	Format *string `form:"format,omitempty" json:"format,omitempty"`
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	FlowId string `form:"flow_id" json:"flow_id"`
}

// ServerInterface lists one method per operation of openapi.yaml.
type ServerInterface interface {
	// (POST /validate)
	ValidateFlow(w http.ResponseWriter, r *http.Request, params ValidateFlowParams)
	// (POST /route)
	RouteFlow(w http.ResponseWriter, r *http.Request, params RouteFlowParams)
	// (GET /flows)
	ListFlows(w http.ResponseWriter, r *http.Request)
	// (GET /flows/{id})
	GetFlow(w http.ResponseWriter, r *http.Request, id string)
	// (PUT /flows/{id})
	PutFlow(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /flows/{id})
	DeleteFlow(w http.ResponseWriter, r *http.Request, id string)
	// (GET /flows/{id}/report)
	GetFlowReport(w http.ResponseWriter, r *http.Request, id string)
	// (GET /flows/{id}/graph)
	GetFlowGraph(w http.ResponseWriter, r *http.Request, id string, params GetFlowGraphParams)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
}

// wrapper binds path and query parameters before calling the ServerInterface.
type wrapper struct {
	handler ServerInterface
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) bindID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		wr.onError(w, r, fmt.Errorf("invalid format for parameter id: %w", err))
		return "", false
	}
	return id, true
}

func (wr *wrapper) query(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		wr.onError(w, r, fmt.Errorf("invalid format for parameter %s: %w", name, err))
		return false
	}
	return true
}

func (wr *wrapper) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	var params ValidateFlowParams
	if !wr.query(w, r, "cycle_mode", false, &params.CycleMode) {
		return
	}
	wr.handler.ValidateFlow(w, r, params)
}

func (wr *wrapper) RouteFlow(w http.ResponseWriter, r *http.Request) {
	var params RouteFlowParams
	if !wr.query(w, r, "node_width", false, &params.NodeWidth) {
		return
	}
	wr.handler.RouteFlow(w, r, params)
}

func (wr *wrapper) GetFlow(w http.ResponseWriter, r *http.Request) {
	if id, ok := wr.bindID(w, r); ok {
		wr.handler.GetFlow(w, r, id)
	}
}

func (wr *wrapper) PutFlow(w http.ResponseWriter, r *http.Request) {
	if id, ok := wr.bindID(w, r); ok {
		wr.handler.PutFlow(w, r, id)
	}
}

func (wr *wrapper) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if id, ok := wr.bindID(w, r); ok {
		wr.handler.DeleteFlow(w, r, id)
	}
}

func (wr *wrapper) GetFlowReport(w http.ResponseWriter, r *http.Request) {
	if id, ok := wr.bindID(w, r); ok {
		wr.handler.GetFlowReport(w, r, id)
	}
}

func (wr *wrapper) GetFlowGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := wr.bindID(w, r)
	if !ok {
		return
	}
	var params GetFlowGraphParams
	if !wr.query(w, r, "format", false, &params.Format) {
		return
	}
	wr.handler.GetFlowGraph(w, r, id, params)
}

func (wr *wrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var params SubscribeEventsParams
	if !wr.query(w, r, "flow_id", true, &params.FlowId) {
		return
	}
	wr.handler.SubscribeEvents(w, r, params)
}

// HandlerFromMux mounts every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wr := &wrapper{
		handler: si,
		onError: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		},
	}

	r.Post("/validate", wr.ValidateFlow)
	r.Post("/route", wr.RouteFlow)
	r.Get("/flows", si.ListFlows)
	r.Get("/flows/{id}", wr.GetFlow)
	r.Put("/flows/{id}", wr.PutFlow)
	r.Delete("/flows/{id}", wr.DeleteFlow)
	r.Get("/flows/{id}/report", wr.GetFlowReport)
	r.Get("/flows/{id}/graph", wr.GetFlowGraph)
	r.Get("/events", wr.SubscribeEvents)
	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	return r
}
