package serp

import "encoding/json"

// Engine names understood by the search provider.
const (
	EngineFlights    = "google_flights"
	EngineHotels     = "google_hotels"
	EngineMaps       = "google_maps"
	EngineDirections = "google_maps_directions"
	EngineWeb        = "google"
)

// Directions travel modes.
const (
	TravelModeDrive   = "0"
	TravelModeWalk    = "2"
	TravelModeTransit = "3"
)

// Response carries only the sections the travel tools read.
type Response struct {
	Error          string          `json:"error,omitempty"`
	BestFlights    []FlightOption  `json:"best_flights,omitempty"`
	Properties     []Property      `json:"properties,omitempty"`
	LocalResults   []LocalResult   `json:"local_results,omitempty"`
	PlaceResults   *LocalResult    `json:"place_results,omitempty"`
	OrganicResults []OrganicResult `json:"organic_results,omitempty"`
	Directions     []Direction     `json:"directions,omitempty"`
}

type FlightOption struct {
	Flights       []FlightSegment `json:"flights"`
	Price         json.Number     `json:"price"`
	TotalDuration int             `json:"total_duration"`
}

type FlightSegment struct {
	Airline string `json:"airline"`
}

type Property struct {
	Name         string  `json:"name"`
	RatePerNight *Rate   `json:"rate_per_night,omitempty"`
	Images       []Image `json:"images,omitempty"`
}

type Rate struct {
	Lowest string `json:"lowest"`
}

type Image struct {
	Thumbnail string `json:"thumbnail"`
}

type LocalResult struct {
	Title          string          `json:"title"`
	Rating         *float64        `json:"rating,omitempty"`
	Address        string          `json:"address,omitempty"`
	Thumbnail      string          `json:"thumbnail,omitempty"`
	GPSCoordinates *GPSCoordinates `json:"gps_coordinates,omitempty"`
}

type GPSCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type OrganicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Snippet string `json:"snippet"`
}

type Direction struct {
	FormattedDuration string         `json:"formatted_duration"`
	Legs              []DirectionLeg `json:"legs,omitempty"`
}

type DirectionLeg struct {
	Steps []Step `json:"steps"`
}

type Step struct {
	TravelMode     string          `json:"travel_mode"`
	TransitDetails *TransitDetails `json:"transit_details,omitempty"`
}

type TransitDetails struct {
	Line struct {
		ShortName string `json:"short_name"`
		Name      string `json:"name"`
	} `json:"line"`
}

// RatingText renders a rating the way listings show it, "N/A" when absent.
func (r LocalResult) RatingText() string {
	if r.Rating == nil {
		return "N/A"
	}
	return formatRating(*r.Rating)
}

// HasCoordinates reports whether the result carries a usable position.
func (r *LocalResult) HasCoordinates() bool {
	return r != nil && r.GPSCoordinates != nil &&
		(r.GPSCoordinates.Latitude != 0 || r.GPSCoordinates.Longitude != 0)
}
