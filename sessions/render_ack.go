package sessions

import (
	"context"
	"time"
)

// DefaultRenderTimeout is how long a suspended turn waits for the client to
// acknowledge map_ready before resuming anyway.
const DefaultRenderTimeout = 30 * time.Second

// awaitRender blocks until the client sends {"type":"resume"} or the render
// timeout passes.
func (as *AgentSession) awaitRender(ctx context.Context) {
	timeout := as.RenderTimeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	as.Logger.Printf("Waiting up to %v for map render ack", timeout)
	if ack, ok := as.ResponseWaiter.WaitForResponse(ctx, timeout); ok {
		as.Logger.Printf("Received render ack: %s", ack)
		return
	}
	as.Logger.Printf("No render ack, resuming")
}
