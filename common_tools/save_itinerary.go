package common_tools

import (
	"context"

	"github.com/Desarso/tripagent/itinerary"
)

const SavedConfirmation = "✅ Itinerary saved! Check the sidebar to download."

// saveItinerary records the text on the session (the downloads render from
// it) and drops a plain-text copy next to the server.
func (t *TravelTools) saveItinerary(ctx context.Context, env *Env, args Args) Result {
	content := args.String("content")
	if env.Session != nil {
		env.Session.Itinerary = &content
	}
	if path := itinerary.SaveText(t.ItineraryDir, content); path != "" {
		t.logf("itinerary copy written to %s", path)
	}
	return Result{Content: SavedConfirmation}
}
