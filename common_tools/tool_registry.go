package common_tools

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/Desarso/tripagent/models"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Tool names, in the order the registry declares them to the model.
const (
	SearchFlights      = "search_flights"
	SearchHotels       = "search_hotels"
	SearchAttractions  = "search_attractions"
	SearchRestaurants  = "search_restaurants"
	SearchGeneralWeb   = "search_general_web"
	SaveItinerary      = "save_itinerary"
	GenerateMapTraffic = "generate_map_with_traffic"
)

var toolOrder = []string{
	SearchFlights,
	SearchHotels,
	SearchAttractions,
	SearchRestaurants,
	SearchGeneralWeb,
	SaveItinerary,
	GenerateMapTraffic,
}

// LoadDeclaration reads a tool's declared schema from the embedded files.
func LoadDeclaration(name string) (models.FunctionDeclaration, error) {
	schemaPath := path.Join("schemas", name+".json")
	schemaBytes, err := schemaFiles.ReadFile(schemaPath)
	if err != nil {
		return models.FunctionDeclaration{}, fmt.Errorf("failed to read embedded schema file '%s': %w", schemaPath, err)
	}

	var decl models.FunctionDeclaration
	if err := json.Unmarshal(schemaBytes, &decl); err != nil {
		return models.FunctionDeclaration{}, fmt.Errorf("failed to unmarshal schema for %s: %w", name, err)
	}
	if decl.Name != name {
		return models.FunctionDeclaration{}, fmt.Errorf("schema file %s declares tool %q", schemaPath, decl.Name)
	}
	return decl, nil
}

func mustDeclaration(name string) models.FunctionDeclaration {
	decl, err := LoadDeclaration(name)
	if err != nil {
		panic(err)
	}
	return decl
}

// SearchFlightsTool returns the FunctionDeclaration for flight search.
func SearchFlightsTool() models.FunctionDeclaration { return mustDeclaration(SearchFlights) }

// SearchHotelsTool returns the FunctionDeclaration for hotel search.
func SearchHotelsTool() models.FunctionDeclaration { return mustDeclaration(SearchHotels) }

func SearchAttractionsTool() models.FunctionDeclaration { return mustDeclaration(SearchAttractions) }

func SearchRestaurantsTool() models.FunctionDeclaration { return mustDeclaration(SearchRestaurants) }

func SearchGeneralWebTool() models.FunctionDeclaration { return mustDeclaration(SearchGeneralWeb) }

// SaveItineraryTool returns the FunctionDeclaration for itinerary export.
func SaveItineraryTool() models.FunctionDeclaration { return mustDeclaration(SaveItinerary) }

// GenerateMapTool returns the FunctionDeclaration for the map builder. Its
// description carries the "explicit request only" policy.
func GenerateMapTool() models.FunctionDeclaration { return mustDeclaration(GenerateMapTraffic) }

// DefaultTools returns all travel tool declarations in registry order.
func DefaultTools() []models.FunctionDeclaration {
	tools := make([]models.FunctionDeclaration, 0, len(toolOrder))
	for _, name := range toolOrder {
		tools = append(tools, mustDeclaration(name))
	}
	return tools
}
