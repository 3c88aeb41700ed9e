// Package geo resolves place names to coordinates and looks up travel times
// between two points through the search provider.
package geo

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/serp"
)

// Searcher is the slice of the search client the adapter needs.
type Searcher interface {
	Search(ctx context.Context, params serp.Params) (*serp.Response, error)
}

type Adapter struct {
	Search   Searcher
	Language string
	Logger   *log.Logger
}

func NewAdapter(s Searcher, language string) *Adapter {
	return &Adapter{
		Search:   s,
		Language: language,
		Logger:   log.New(os.Stdout, "[GEO] ", log.LstdFlags),
	}
}

// ResolvePlace looks a name up on the maps engine. It prefers the first local
// result with coordinates and falls back to the single place result the
// provider returns for exact matches. ok is false when neither yields a
// position; errors are never returned.
func (a *Adapter) ResolvePlace(ctx context.Context, name string) (models.PlaceCoordinate, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.PlaceCoordinate{Name: name}, false
	}
	res, err := a.Search.Search(ctx, serp.Params{
		"engine": serp.EngineMaps,
		"q":      name,
		"type":   "search",
		"hl":     a.Language,
	})
	if err != nil {
		a.logf("resolve %q failed: %v", name, err)
		return models.PlaceCoordinate{Name: name}, false
	}

	if len(res.LocalResults) > 0 && res.LocalResults[0].HasCoordinates() {
		return toCoordinate(&res.LocalResults[0], name), true
	}
	if res.PlaceResults.HasCoordinates() {
		return toCoordinate(res.PlaceResults, name), true
	}
	a.logf("no coordinates for %q", name)
	return models.PlaceCoordinate{Name: name}, false
}

func toCoordinate(r *serp.LocalResult, fallback string) models.PlaceCoordinate {
	label := r.Title
	if label == "" {
		label = fallback
	}
	return models.PlaceCoordinate{
		Latitude:  r.GPSCoordinates.Latitude,
		Longitude: r.GPSCoordinates.Longitude,
		Name:      label,
	}
}

// TravelTimes queries drive, transit and walk independently. A failed mode
// leaves its field empty without affecting the others.
func (a *Adapter) TravelTimes(ctx context.Context, from, to models.PlaceCoordinate) models.TravelTimes {
	var times models.TravelTimes
	start := coordString(from)
	end := coordString(to)

	for _, mode := range []string{serp.TravelModeDrive, serp.TravelModeTransit, serp.TravelModeWalk} {
		res, err := a.Search.Search(ctx, serp.Params{
			"engine":       serp.EngineDirections,
			"start_coords": start,
			"end_coords":   end,
			"travel_mode":  mode,
		})
		if err != nil {
			a.logf("directions mode %s %s -> %s failed: %v", mode, from.Name, to.Name, err)
			continue
		}
		if len(res.Directions) == 0 || res.Directions[0].FormattedDuration == "" {
			continue
		}
		route := res.Directions[0]
		switch mode {
		case serp.TravelModeDrive:
			times.Drive = route.FormattedDuration
		case serp.TravelModeTransit:
			times.Transit = route.FormattedDuration
			times.TransitLines = transitLines(route)
		case serp.TravelModeWalk:
			times.Walk = route.FormattedDuration
		}
	}
	return times
}

func transitLines(route serp.Direction) []string {
	if len(route.Legs) == 0 {
		return nil
	}
	var lines []string
	for _, step := range route.Legs[0].Steps {
		if step.TravelMode != "TRANSIT" || step.TransitDetails == nil {
			continue
		}
		line := step.TransitDetails.Line
		switch {
		case line.ShortName != "":
			lines = append(lines, line.ShortName)
		case line.Name != "":
			lines = append(lines, line.Name)
		default:
			lines = append(lines, "Bus")
		}
	}
	return lines
}

func coordString(p models.PlaceCoordinate) string {
	return fmt.Sprintf("%g,%g", p.Latitude, p.Longitude)
}

func (a *Adapter) logf(format string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}
