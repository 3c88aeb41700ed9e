package api

import "github.com/gin-gonic/gin"

// GinSSEWriter implements sessions.SSEWriter for a gin context.
type GinSSEWriter struct {
	Context *gin.Context
}

func (w *GinSSEWriter) WriteSSE(data string) error {
	w.Context.SSEvent("message", data)
	return nil
}

func (w *GinSSEWriter) WriteSSEError(err error) error {
	w.Context.SSEvent("error", err.Error())
	return nil
}

func (w *GinSSEWriter) Flush() {
	w.Context.Writer.Flush()
}

func (w *GinSSEWriter) start() {
	w.Context.Header("Content-Type", "text/event-stream")
	w.Context.Header("Cache-Control", "no-cache")
	w.Context.Header("Connection", "keep-alive")
}
