package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/flowpipe/logger"
)

// KeepAliveInterval is how often an idle stream gets a comment line. It
// stays under common proxy idle timeouts.
var KeepAliveInterval = 30 * time.Second

// ConnectedEvent is the payload of the first event on a stream.
type ConnectedEvent struct {
	ClientID string `json:"client_id"`
	Pattern  string `json:"pattern"`
}

// Serve streams events matching pattern to w until the request ends or
// the hub stops.
func Serve(hub *Hub, w http.ResponseWriter, r *http.Request, clientID, pattern string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("[SSE] Could not clear write deadline", map[string]interface{}{
			"client_id":       clientID,
			logger.FieldError: err.Error(),
		})
	}

	client := NewClient(clientID, pattern)
	if !hub.Register(client) {
		http.Error(w, "event hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	connected, err := NewEvent(EventTypeConnected, ConnectedEvent{ClientID: clientID, Pattern: pattern})
	if err != nil {
		return
	}
	if _, err := connected.WriteTo(w); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := e.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
