package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/kbukum/flowpipe/dag"
	"github.com/kbukum/flowpipe/logger"
	"github.com/kbukum/flowpipe/sse"
)

func TestRunEvents(t *testing.T) {
	hub := sse.NewHub()
	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("starting hub: %v", err)
	}
	defer func() { _ = hub.Stop(context.Background()) }()

	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	s.ApplyMiddleware(nil)

	g := testGraph(t, false)
	api := &API{
		Graph:         g,
		Scheduler:     dag.NewScheduler(g, dag.WithRunIDGenerator(func() string { return "run-42" })),
		DefaultPolicy: dag.Sequential,
		Events:        hub,
	}
	api.Register(s.GinEngine())
	s.RegisterDefaultEndpoints("flowpipe", "test", api, hub)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/runs/events?run_id=run-42", nil)
	stream, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /runs/events: %v", err)
	}
	defer stream.Body.Close()
	if ct := stream.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	lines := bufio.NewScanner(stream.Body)
	next := func() string {
		t.Helper()
		if !lines.Scan() {
			t.Fatalf("stream ended: %v", lines.Err())
		}
		return lines.Text()
	}
	if got := next(); got != "event: connected" {
		t.Fatalf("expected connected event, got %q", got)
	}
	next()
	next()

	resp, err := http.Post(srv.URL+"/runs", "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var nodeEvents []string
	for {
		line := next()
		if line == "event: run" {
			break
		}
		if line == "event: node" {
			nodeEvents = append(nodeEvents, next())
		}
	}
	if len(nodeEvents) != 6 {
		t.Fatalf("expected 6 node events, got %d: %v", len(nodeEvents), nodeEvents)
	}
	if !strings.Contains(nodeEvents[0], `"node":"a"`) || !strings.Contains(nodeEvents[0], `"status":"running"`) {
		t.Errorf("expected a to start first, got %s", nodeEvents[0])
	}
	if !strings.Contains(nodeEvents[5], `"node":"add"`) || !strings.Contains(nodeEvents[5], `"value":5`) {
		t.Errorf("expected add to finish last with 5, got %s", nodeEvents[5])
	}

	run := next()
	for _, want := range []string{`"run_id":"run-42"`, `"status":"completed"`, `"policy":"sequential"`} {
		if !strings.Contains(run, want) {
			t.Errorf("expected run event to contain %s, got %s", want, run)
		}
	}

	health := do(t, s.Handler(), http.MethodGet, "/health")
	if !strings.Contains(health.Body.String(), `"clients":"1"`) {
		t.Errorf("expected the hub to report one client, got %s", health.Body.String())
	}
}

func TestRunEvents_Disabled(t *testing.T) {
	h := newTestServer(t, testGraph(t, false), 0)
	if rr := do(t, h, http.MethodGet, "/runs/events"); rr.Code == http.StatusOK {
		t.Fatalf("expected no events route without a hub, got %d", rr.Code)
	}
}

func TestRunEvents_InvalidRunID(t *testing.T) {
	hub := sse.NewHub()
	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("starting hub: %v", err)
	}
	defer func() { _ = hub.Stop(context.Background()) }()

	cfg := Config{}
	cfg.ApplyDefaults()
	s := New(cfg, logger.NewNop())
	g := testGraph(t, false)
	api := &API{Graph: g, Scheduler: dag.NewScheduler(g), DefaultPolicy: dag.Sequential, Events: hub}
	api.Register(s.GinEngine())

	for _, id := range []string{"*", "run-[", "run-?", `run\1`, strings.Repeat("x", 200)} {
		t.Run(id[:min(len(id), 8)], func(t *testing.T) {
			rr := do(t, s.Handler(), http.MethodGet, "/runs/events?run_id="+url.QueryEscape(id))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "INVALID_INPUT") {
				t.Fatalf("expected INVALID_INPUT body, got %s", rr.Body.String())
			}
		})
	}
	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("expected no subscribed clients, got %d", n)
	}
}
