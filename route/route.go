// Package route turns an ordered list of place names into a map and a
// per-leg traffic summary.
package route

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Desarso/tripagent/models"
)

const (
	NeedLocations  = "Need at least 1 location."
	NoCoordinates  = "Could not find coordinates."
	NeedMoreForLeg = "(need more locations for travel times)"
)

// Geocoder is what the builder needs from the geocoding adapter.
type Geocoder interface {
	ResolvePlace(ctx context.Context, name string) (models.PlaceCoordinate, bool)
	TravelTimes(ctx context.Context, from, to models.PlaceCoordinate) models.TravelTimes
}

type Builder struct {
	Geo    Geocoder
	Logger *log.Logger
}

func NewBuilder(geo Geocoder) *Builder {
	return &Builder{
		Geo:    geo,
		Logger: log.New(os.Stdout, "[ROUTE] ", log.LstdFlags),
	}
}

// Build resolves every name, skipping the ones that do not resolve, and
// returns the artifact with a summary for the model. The artifact is nil
// when nothing could be plotted; the summary then explains why.
func (b *Builder) Build(ctx context.Context, names []string) (*models.RouteArtifact, string) {
	if len(names) == 0 {
		return nil, NeedLocations
	}

	artifact := &models.RouteArtifact{}
	for _, name := range names {
		pc, ok := b.Geo.ResolvePlace(ctx, name)
		if !ok {
			b.logf("⚠️ skipping unresolved location %q", name)
			artifact.Skipped = append(artifact.Skipped, name)
			continue
		}
		artifact.Points = append(artifact.Points, pc)
	}
	if len(artifact.Points) == 0 {
		return nil, NoCoordinates
	}

	for i := 0; i+1 < len(artifact.Points); i++ {
		from, to := artifact.Points[i], artifact.Points[i+1]
		artifact.Legs = append(artifact.Legs, models.Leg{
			From:  from.Name,
			To:    to.Name,
			Times: b.Geo.TravelTimes(ctx, from, to),
		})
	}

	artifact.Traffic = FormatTraffic(artifact.Legs)
	html, err := RenderMap(artifact.Points)
	if err != nil {
		b.logf("map render failed: %v", err)
	}
	artifact.MapHTML = html

	return artifact, Summary(artifact)
}

// Summary is the tool result handed back to the model.
func Summary(a *models.RouteArtifact) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Map Generated! %d stops plotted, %d legs.", len(a.Points), len(a.Legs))
	if len(a.Points) < 2 {
		sb.WriteString(" " + NeedMoreForLeg)
	}
	if len(a.Skipped) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Skipped: %s", strings.Join(a.Skipped, ", "))
	}
	if a.Traffic != "" {
		sb.WriteString("\n\n")
		sb.WriteString(a.Traffic)
	}
	return sb.String()
}

// FormatTraffic renders one block per leg, blocks separated by blank lines.
func FormatTraffic(legs []models.Leg) string {
	blocks := make([]string, 0, len(legs))
	for _, leg := range legs {
		blocks = append(blocks, fmt.Sprintf("🚩 **%s ➡️ %s**\n\n%s", leg.From, leg.To, travelLine(leg.Times)))
	}
	return strings.Join(blocks, "\n\n")
}

func travelLine(t models.TravelTimes) string {
	drive := "🚗 Drive: unreachable"
	if t.Drive != "" {
		drive = "🚗 **Drive**: " + t.Drive
	}

	transit := "🚇 Transit: N/A"
	if t.Transit != "" {
		transit = "🚇 **Transit**: " + t.Transit
		if len(t.TransitLines) > 0 {
			bolded := make([]string, len(t.TransitLines))
			for i, l := range t.TransitLines {
				bolded[i] = "**" + l + "**"
			}
			transit += " ➤ [" + strings.Join(bolded, " > ") + "]"
		}
	}

	walk := "🚶 Walk: N/A"
	if t.Walk != "" {
		walk = "🚶 **Walk**: " + t.Walk
	}

	return drive + "\n\n" + transit + " | " + walk
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.Logger != nil {
		b.Logger.Printf(format, args...)
	}
}
