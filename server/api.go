package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/flowpipe/dag"
	apperrors "github.com/kbukum/flowpipe/errors"
	"github.com/kbukum/flowpipe/observability"
	"github.com/kbukum/flowpipe/server/middleware"
	"github.com/kbukum/flowpipe/sse"
	"github.com/kbukum/flowpipe/visualize"
)

// API exposes one graph over HTTP: its structure, its ordering, and runs.
type API struct {
	Graph         *dag.Graph
	Scheduler     *dag.Scheduler
	DefaultPolicy dag.Policy
	// RunsPerMinute caps run submissions per client; zero disables the limit.
	RunsPerMinute int
	// Events, when set, receives node and run events of every run and
	// serves them on GET /runs/events.
	Events *sse.Hub
}

// OrderResponse is the body of GET /graph/order.
type OrderResponse struct {
	Order  []string   `json:"order"`
	Levels [][]string `json:"levels"`
}

// RunResponse is the body of a successful POST /runs.
type RunResponse struct {
	RunID      string                `json:"run_id"`
	Policy     string                `json:"policy"`
	DurationMs int64                 `json:"duration_ms"`
	Results    dag.Results           `json:"results"`
	Nodes      map[string]NodeResult `json:"nodes"`
}

// NodeResult summarizes one node of a run.
type NodeResult struct {
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
}

// NodeEvent is the payload of a "node" event on GET /runs/events.
type NodeEvent struct {
	RunID      string `json:"run_id"`
	Node       string `json:"node"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Value      any    `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
}

// RunEvent is the payload of a "run" event on GET /runs/events.
type RunEvent struct {
	RunID      string `json:"run_id"`
	Policy     string `json:"policy"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Register mounts the graph routes on r.
func (a *API) Register(r gin.IRouter) {
	r.GET("/graph", a.graphJSON)
	r.GET("/graph.dot", a.graphDOT)
	r.GET("/graph/order", a.order)

	handlers := []gin.HandlerFunc{a.run}
	if a.RunsPerMinute > 0 {
		limit := middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: a.RunsPerMinute})
		handlers = append([]gin.HandlerFunc{limit}, handlers...)
	}
	r.POST("/runs", handlers...)
	if a.Events != nil {
		r.GET("/runs/events", a.events)
	}
}

// CheckHealth reports the graph as down when it cannot be ordered.
func (a *API) CheckHealth(context.Context) observability.Health {
	h := observability.Health{
		Name:    "graph",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"nodes": strconv.Itoa(a.Graph.Len())},
	}
	if _, err := a.Graph.TopologicalOrder(); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}

func (a *API) graphJSON(c *gin.Context) {
	c.JSON(http.StatusOK, visualize.Export(a.Graph))
}

func (a *API) graphDOT(c *gin.Context) {
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(visualize.DOT(a.Graph)))
}

func (a *API) order(c *gin.Context) {
	nodes, err := a.Graph.TopologicalOrder()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	levels, err := a.Graph.Levels()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	order := make([]string, len(nodes))
	for i, n := range nodes {
		order[i] = n.Name()
	}
	RespondOK(c, OrderResponse{Order: order, Levels: levels})
}

func (a *API) run(c *gin.Context) {
	policy := a.DefaultPolicy
	if p := c.Query("policy"); p != "" {
		parsed, err := dag.ParsePolicy(p)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		policy = parsed
	}

	var observers []dag.Observer
	if a.Events != nil {
		observers = append(observers, a.publishNode)
	}
	report, err := a.Scheduler.Execute(c.Request.Context(), policy, observers...)
	if a.Events != nil {
		a.publishRun(report, err)
	}
	if err != nil {
		RespondWithError(c, runError(report, err))
		return
	}

	nodes := make(map[string]NodeResult, len(report.Nodes))
	for name, n := range report.Nodes {
		nodes[name] = NodeResult{Status: n.Status, DurationMs: n.Duration.Milliseconds()}
	}
	RespondOK(c, RunResponse{
		RunID:      report.RunID,
		Policy:     report.Policy.String(),
		DurationMs: report.Duration.Milliseconds(),
		Results:    report.Results,
		Nodes:      nodes,
	})
}

// events streams run events; ?run_id= follows a single run. Topics are
// matched as glob patterns, so ids carrying pattern syntax are rejected.
func (a *API) events(c *gin.Context) {
	pattern := "run:*"
	if id := c.Query("run_id"); id != "" {
		if strings.ContainsAny(id, `*?[]\`) || len(id) > maxRunIDLength {
			RespondWithError(c, apperrors.InvalidInput("run_id", fmt.Sprintf("invalid run id %q", id)))
			return
		}
		pattern = runTopic(id)
	}
	sse.Serve(a.Events, c.Writer, c.Request, uuid.NewString(), pattern)
}

const maxRunIDLength = 128

func runTopic(runID string) string { return "run:" + runID }

func (a *API) publishNode(e dag.NodeEvent) {
	payload := NodeEvent{
		RunID:      e.RunID,
		Node:       e.Node,
		Status:     e.Status,
		DurationMs: e.Duration.Milliseconds(),
		Value:      e.Value,
	}
	if e.Err != nil {
		payload.Error = e.Err.Error()
	}
	a.publish(e.RunID, sse.EventTypeNode, payload)
}

func (a *API) publishRun(report *dag.Report, err error) {
	payload := RunEvent{
		RunID:      report.RunID,
		Policy:     report.Policy.String(),
		Status:     dag.StatusCompleted,
		DurationMs: report.Duration.Milliseconds(),
	}
	if err != nil {
		payload.Status = dag.StatusFailed
		payload.Error = err.Error()
	}
	a.publish(report.RunID, sse.EventTypeRun, payload)
}

func (a *API) publish(runID, eventType string, payload any) {
	e, err := sse.NewEvent(eventType, payload)
	if err != nil {
		// unencodable node values still announce the transition
		e, _ = sse.NewEvent(eventType, map[string]string{"run_id": runID, "error": err.Error()})
	}
	a.Events.Publish(runTopic(runID), e)
}

// runError attaches the run id to err, turning cancellation into a 503.
func runError(report *dag.Report, err error) error {
	appErr, ok := apperrors.AsAppError(err)
	switch {
	case ok:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		appErr = apperrors.Canceled(err)
	default:
		appErr = apperrors.Internal(err)
	}
	return appErr.WithDetail("run_id", report.RunID)
}
