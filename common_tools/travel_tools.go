package common_tools

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/serp"
)

// Searcher is the search client as the tools see it.
type Searcher interface {
	Search(ctx context.Context, params serp.Params) (*serp.Response, error)
}

// RouteBuilder produces a route artifact and its summary for the map tool.
type RouteBuilder interface {
	Build(ctx context.Context, names []string) (*models.RouteArtifact, string)
}

// TravelTools holds what the travel tools share: the search client, the
// route builder and the locale every query is issued with.
type TravelTools struct {
	Search       Searcher
	Routes       RouteBuilder
	Currency     string
	Language     string
	Region       string
	ItineraryDir string
	Logger       *log.Logger
}

func NewTravelTools(search Searcher, routes RouteBuilder) *TravelTools {
	return &TravelTools{
		Search:       search,
		Routes:       routes,
		Currency:     "MYR",
		Language:     "en",
		Region:       "my",
		ItineraryDir: ".",
		Logger:       log.New(os.Stdout, "[TOOLS] ", log.LstdFlags),
	}
}

// Registry returns the closed registry of the seven travel tools.
func (t *TravelTools) Registry(timeout time.Duration) *Registry {
	r := NewRegistry()
	r.Timeout = timeout
	r.Register(Tool{Declaration: SearchFlightsTool(), Defaults: flightDefaults, Handler: t.searchFlights})
	r.Register(Tool{Declaration: SearchHotelsTool(), Defaults: hotelDefaults, Handler: t.searchHotels})
	r.Register(Tool{Declaration: SearchAttractionsTool(), Handler: t.searchAttractions})
	r.Register(Tool{Declaration: SearchRestaurantsTool(), Handler: t.searchRestaurants})
	r.Register(Tool{Declaration: SearchGeneralWebTool(), Handler: t.searchGeneralWeb})
	r.Register(Tool{Declaration: SaveItineraryTool(), Handler: t.saveItinerary})
	r.Register(Tool{Declaration: GenerateMapTool(), Handler: t.generateMap})
	return r
}

func (t *TravelTools) logf(format string, args ...interface{}) {
	if t.Logger != nil {
		t.Logger.Printf(format, args...)
	}
}
