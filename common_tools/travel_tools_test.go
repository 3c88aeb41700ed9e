package common_tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/serp"
)

type fakeSearcher struct {
	calls []serp.Params
	resp  *serp.Response
	err   error
}

func (f *fakeSearcher) Search(ctx context.Context, params serp.Params) (*serp.Response, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &serp.Response{}, nil
	}
	return f.resp, nil
}

type fakeRoutes struct {
	artifact *models.RouteArtifact
	summary  string
	names    []string
}

func (f *fakeRoutes) Build(ctx context.Context, names []string) (*models.RouteArtifact, string) {
	f.names = names
	return f.artifact, f.summary
}

func rating(r float64) *float64 { return &r }

func call(name string, args map[string]interface{}) models.ToolCall {
	return models.NewToolCall("call_"+name, name, args)
}

func newTestTools(s *fakeSearcher) *TravelTools {
	tools := NewTravelTools(s, &fakeRoutes{})
	tools.Logger = nil
	tools.ItineraryDir = ""
	return tools
}

func TestSearchFlights(t *testing.T) {
	s := &fakeSearcher{resp: &serp.Response{BestFlights: []serp.FlightOption{{
		Flights:       []serp.FlightSegment{{Airline: "AirAsia"}},
		Price:         json.Number("189"),
		TotalDuration: 75,
	}}}}
	r := newTestTools(s).Registry(0)

	res := r.Execute(context.Background(), &Env{}, call(SearchFlights, map[string]interface{}{
		"origin": "KUL", "destination": "PEN", "date": "2026-11-01", "return_date": "2026-11-03",
	}))
	want := `{"date":"2026-11-01","airline":"AirAsia","price_per_adult":189,"duration":75}`
	if res.Content != want {
		t.Errorf("expected %s, got %s", want, res.Content)
	}
	if s.calls[0]["type"] != "1" || s.calls[0]["engine"] != serp.EngineFlights || s.calls[0]["currency"] != "MYR" {
		t.Errorf("unexpected params %v", s.calls[0])
	}
}

func TestSearchFlightsOneWayDefault(t *testing.T) {
	s := &fakeSearcher{}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchFlights, map[string]interface{}{
		"origin": "KUL", "destination": "PEN", "date": "2027-12-01",
	}))
	if res.IsError {
		t.Fatalf("missing return_date should default, got %q", res.Content)
	}
	if res.Content != "RESULT: No specific flights found for 2027-12-01. (HINT: Date might be too far ahead?)" {
		t.Errorf("unexpected content %q", res.Content)
	}
	if s.calls[0]["type"] != "2" {
		t.Errorf("expected one-way search, got type %q", s.calls[0]["type"])
	}
}

func TestSearchFlightsProviderError(t *testing.T) {
	r := newTestTools(&fakeSearcher{err: errors.New("boom")}).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchFlights, map[string]interface{}{
		"origin": "KUL", "destination": "PEN", "date": "2026-11-01", "return_date": "",
	}))
	if res.Content != "Error searching flights for 2026-11-01" {
		t.Errorf("unexpected content %q", res.Content)
	}
}

func TestSearchHotels(t *testing.T) {
	s := &fakeSearcher{resp: &serp.Response{Properties: []serp.Property{
		{Name: "Eastern & Oriental", RatePerNight: &serp.Rate{Lowest: "RM 800"}, Images: []serp.Image{{Thumbnail: "https://img/eo.jpg"}}},
		{Name: "Hard Rock"},
		{Name: "Shangri-La", RatePerNight: &serp.Rate{Lowest: "RM 600"}},
		{Name: "Fourth"},
	}}}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchHotels, map[string]interface{}{
		"city": "Penang", "check_in_date": "2026-11-01", "adults": 4,
	}))
	want := "- Eastern & Oriental | Price: RM 800\n  ![Eastern & Oriental](https://img/eo.jpg)\n- Hard Rock | Price: N/A\n- Shangri-La | Price: RM 600"
	if res.Content != want {
		t.Errorf("unexpected content:\n%s", res.Content)
	}
	p := s.calls[0]
	if p["q"] != "Penang Vacation Rentals" || p["check_out_date"] != "2026-11-02" || p["adults"] != "4" {
		t.Errorf("unexpected params %v", p)
	}
}

func TestSearchHotelsDefaultsAndEmpty(t *testing.T) {
	s := &fakeSearcher{}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchHotels, map[string]interface{}{
		"city": "Ipoh", "check_in_date": "2026-12-31",
	}))
	if res.Content != "No hotels found" {
		t.Errorf("unexpected content %q", res.Content)
	}
	if s.calls[0]["q"] != "Ipoh Hotels" || s.calls[0]["adults"] != "1" || s.calls[0]["check_out_date"] != "2027-01-01" {
		t.Errorf("unexpected params %v", s.calls[0])
	}
}

func TestSearchAttractions(t *testing.T) {
	s := &fakeSearcher{resp: &serp.Response{LocalResults: []serp.LocalResult{
		{Title: "Penang Hill", Rating: rating(4.5), Thumbnail: "https://img/hill.jpg"},
		{Title: "Kek Lok Si"},
	}}}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchAttractions, map[string]interface{}{"city": "Penang"}))
	if !strings.HasPrefix(res.Content, "- Penang Hill (4.5⭐)\n  ![Penang Hill](https://img/hill.jpg)\n- Kek Lok Si (N/A⭐)") {
		t.Errorf("unexpected content:\n%s", res.Content)
	}
	if !strings.HasSuffix(res.Content, imageNote) {
		t.Error("expected the image note when images are present")
	}
	if s.calls[0]["q"] != "top sights in Penang" {
		t.Errorf("unexpected query %q", s.calls[0]["q"])
	}

	r.Execute(context.Background(), &Env{}, call(SearchAttractions, map[string]interface{}{"city": "Penang", "keyword": "museums"}))
	if s.calls[1]["q"] != "best museums in Penang" {
		t.Errorf("unexpected keyword query %q", s.calls[1]["q"])
	}
}

func TestSearchRestaurants(t *testing.T) {
	s := &fakeSearcher{resp: &serp.Response{LocalResults: []serp.LocalResult{
		{Title: "Line Clear", Rating: rating(4.2), Address: "Jalan Penang"},
		{Title: "Tek Sen", Rating: rating(4.4)},
		{Title: "Kapitan", Rating: rating(4)},
		{Title: "Extra", Rating: rating(3)},
	}}}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchRestaurants, map[string]interface{}{"city": "Penang"}))
	want := "Top local food in Penang:\n1. Line Clear (4.2⭐) - Jalan Penang\n2. Tek Sen (4.4⭐) - N/A\n3. Kapitan (4⭐) - N/A"
	if res.Content != want {
		t.Errorf("unexpected content:\n%s", res.Content)
	}
	if s.calls[0]["q"] != "best local food in Penang" {
		t.Errorf("unexpected query %q", s.calls[0]["q"])
	}
}

func TestSearchFailuresBecomeStrings(t *testing.T) {
	r := newTestTools(&fakeSearcher{err: errors.New("timeout")}).Registry(0)
	cases := map[string]models.ToolCall{
		"Error searching hotels":      call(SearchHotels, map[string]interface{}{"city": "X", "check_in_date": "2026-01-01", "check_out_date": "2026-01-02", "adults": 1}),
		"Error searching attractions": call(SearchAttractions, map[string]interface{}{"city": "X"}),
		"Error searching food":        call(SearchRestaurants, map[string]interface{}{"city": "X"}),
		"Web search error.":           call(SearchGeneralWeb, map[string]interface{}{"query": "x"}),
	}
	for want, c := range cases {
		res := r.Execute(context.Background(), &Env{}, c)
		if res.Content != want {
			t.Errorf("%s: expected %q, got %q", c.Function.Name, want, res.Content)
		}
	}
}

func TestSearchGeneralWeb(t *testing.T) {
	s := &fakeSearcher{resp: &serp.Response{OrganicResults: []serp.OrganicResult{
		{Title: "A", Snippet: "one"}, {Title: "B", Snippet: "two"}, {Title: "C", Snippet: "three"}, {Title: "D", Snippet: "four"},
	}}}
	r := newTestTools(s).Registry(0)
	res := r.Execute(context.Background(), &Env{}, call(SearchGeneralWeb, map[string]interface{}{"query": "ferry penang"}))
	if res.Content != "- A: one\n- B: two\n- C: three" {
		t.Errorf("unexpected content %q", res.Content)
	}

	empty := newTestTools(&fakeSearcher{}).Registry(0)
	if res := empty.Execute(context.Background(), &Env{}, call(SearchGeneralWeb, map[string]interface{}{"query": "x"})); res.Content != "No web results found." {
		t.Errorf("unexpected content %q", res.Content)
	}
}

func TestSaveItinerary(t *testing.T) {
	tools := newTestTools(&fakeSearcher{})
	tools.ItineraryDir = t.TempDir()
	session := models.NewChatSession("s1", "policy")
	res := tools.Registry(0).Execute(context.Background(), &Env{Session: session}, call(SaveItinerary, map[string]interface{}{"content": "### Day 1\n- Hill"}))
	if res.Content != SavedConfirmation {
		t.Errorf("unexpected content %q", res.Content)
	}
	if session.Itinerary == nil || *session.Itinerary != "### Day 1\n- Hill" {
		t.Error("itinerary should be recorded on the session")
	}
	if b, err := os.ReadFile(filepath.Join(tools.ItineraryDir, "My_Trip_Plan.txt")); err != nil || string(b) != "### Day 1\n- Hill" {
		t.Errorf("text copy: %q, %v", b, err)
	}
}

func TestGenerateMapSuspends(t *testing.T) {
	routes := &fakeRoutes{artifact: &models.RouteArtifact{MapHTML: "<html>", Traffic: "t"}, summary: "Map Generated! 2 stops plotted, 1 legs."}
	tools := newTestTools(&fakeSearcher{})
	tools.Routes = routes
	session := models.NewChatSession("s1", "policy")

	res := tools.Registry(0).Execute(context.Background(), &Env{Session: session}, call(GenerateMapTraffic, map[string]interface{}{
		"locations_list": []string{"Penang Hill", "George Town"},
	}))
	if !res.Suspend {
		t.Error("map tool should suspend the turn")
	}
	if res.Content != routes.summary || res.Route != routes.artifact {
		t.Errorf("unexpected result %+v", res)
	}
	if session.Route != routes.artifact {
		t.Error("route should be stored on the session")
	}
	if strings.Join(routes.names, "|") != "Penang Hill|George Town" {
		t.Errorf("names passed in order, got %v", routes.names)
	}
}

func TestGenerateMapNothingResolved(t *testing.T) {
	tools := newTestTools(&fakeSearcher{})
	tools.Routes = &fakeRoutes{summary: "Could not find coordinates."}
	session := models.NewChatSession("s1", "policy")
	res := tools.Registry(0).Execute(context.Background(), &Env{Session: session}, call(GenerateMapTraffic, map[string]interface{}{
		"locations_list": []string{"Atlantis"},
	}))
	if res.Content != "Could not find coordinates." || session.Route != nil {
		t.Errorf("unexpected result %+v", res)
	}
}
