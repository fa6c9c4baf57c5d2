// Package sse streams run events to HTTP clients as Server-Sent Events.
//
// A Hub routes published events to every connected client whose topic
// pattern matches. Patterns use glob syntax, so "run:*" follows every run
// and "run:3f2a..." follows one.
//
//	hub := sse.NewHub()
//	go hub.Run()
//	router.GET("/runs/events", func(c *gin.Context) {
//	    sse.Serve(hub, c.Writer, c.Request, uuid.NewString(), "run:*")
//	})
//	hub.Publish("run:"+id, sse.Event{Type: sse.EventTypeNode, Data: payload})
package sse
