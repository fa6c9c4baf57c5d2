// Package server exposes a task graph over HTTP using Gin, served with
// HTTP/2 cleartext (h2c) support.
//
// # Middleware
//
// Server-level middleware (server/middleware) wraps every route:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation into the log context
//   - Tracing: one span per request, continuing incoming trace context
//   - Metrics: request count, duration and in-flight gauge
//   - CORS: cross-origin headers for browser visualizers
//   - RequestLogger: request logging with duration tracking
//
// RateLimit is a per-route Gin middleware guarding run submission.
//
// # Endpoints
//
//   - GET /health, /alive, /version (server/endpoint)
//   - GET /graph: D3 nodes/links document
//   - GET /graph.dot: Graphviz rendering
//   - GET /graph/order: topological order and dependency levels
//   - POST /runs?policy=sequential|concurrent: runs the graph once
package server
