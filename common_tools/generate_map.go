package common_tools

import (
	"context"
	"strings"

	"github.com/Desarso/tripagent/route"
)

// generateMap always suspends the turn, even when nothing resolved, so the
// client sees the map panel change in step with the tool result.
func (t *TravelTools) generateMap(ctx context.Context, env *Env, args Args) Result {
	names := args.Strings("locations_list")
	t.logf("map for: %s", strings.Join(names, ", "))
	if t.Routes == nil {
		return Result{Content: route.NoCoordinates, Suspend: true}
	}

	artifact, summary := t.Routes.Build(ctx, names)
	if artifact != nil && env.Session != nil {
		env.Session.Route = artifact
	}
	return Result{Content: summary, Suspend: true, Route: artifact}
}
