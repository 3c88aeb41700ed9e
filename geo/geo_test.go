package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/serp"
)

type fakeSearcher struct {
	fn func(params serp.Params) (*serp.Response, error)
}

func (f fakeSearcher) Search(ctx context.Context, params serp.Params) (*serp.Response, error) {
	return f.fn(params)
}

func rating(r float64) *float64 { return &r }

func TestResolvePlacePrimary(t *testing.T) {
	a := NewAdapter(fakeSearcher{fn: func(p serp.Params) (*serp.Response, error) {
		if p["engine"] != serp.EngineMaps || p["q"] != "komtar" {
			t.Errorf("unexpected params %v", p)
		}
		return &serp.Response{LocalResults: []serp.LocalResult{{
			Title:          "KOMTAR",
			Rating:         rating(4.2),
			GPSCoordinates: &serp.GPSCoordinates{Latitude: 5.41, Longitude: 100.33},
		}}}, nil
	}}, "en")
	a.Logger = nil

	pc, ok := a.ResolvePlace(context.Background(), "komtar")
	if !ok {
		t.Fatal("expected resolution")
	}
	if pc.Name != "KOMTAR" || pc.Latitude != 5.41 || pc.Longitude != 100.33 {
		t.Errorf("unexpected coordinate %+v", pc)
	}
}

func TestResolvePlaceFallback(t *testing.T) {
	a := NewAdapter(fakeSearcher{fn: func(p serp.Params) (*serp.Response, error) {
		return &serp.Response{PlaceResults: &serp.LocalResult{
			Title:          "Penang Hill",
			GPSCoordinates: &serp.GPSCoordinates{Latitude: 5.42, Longitude: 100.27},
		}}, nil
	}}, "en")
	a.Logger = nil

	pc, ok := a.ResolvePlace(context.Background(), "penang hill")
	if !ok || pc.Name != "Penang Hill" {
		t.Fatalf("expected fallback resolution, got %+v ok=%v", pc, ok)
	}
}

func TestResolvePlaceNotFound(t *testing.T) {
	a := NewAdapter(fakeSearcher{fn: func(p serp.Params) (*serp.Response, error) {
		return nil, errors.New("boom")
	}}, "en")
	a.Logger = nil

	pc, ok := a.ResolvePlace(context.Background(), "nowhere")
	if ok {
		t.Fatal("expected not found")
	}
	if pc.Latitude != 0 || pc.Longitude != 0 {
		t.Errorf("not-found should carry no coordinates, got %+v", pc)
	}
}

func TestTravelTimesIndependentModes(t *testing.T) {
	a := NewAdapter(fakeSearcher{fn: func(p serp.Params) (*serp.Response, error) {
		switch p["travel_mode"] {
		case serp.TravelModeDrive:
			return nil, errors.New("drive unavailable")
		case serp.TravelModeTransit:
			d := serp.Direction{FormattedDuration: "25 min"}
			d.Legs = append(d.Legs, serp.DirectionLeg{Steps: []serp.Step{
				{TravelMode: "WALKING"},
				{TravelMode: "TRANSIT", TransitDetails: transit("101", "Rapid Penang")},
				{TravelMode: "TRANSIT", TransitDetails: transit("", "Ferry")},
				{TravelMode: "TRANSIT", TransitDetails: transit("", "")},
			}})
			return &serp.Response{Directions: []serp.Direction{d}}, nil
		case serp.TravelModeWalk:
			return &serp.Response{}, nil
		}
		t.Errorf("unexpected mode %q", p["travel_mode"])
		return nil, nil
	}}, "en")
	a.Logger = nil

	times := a.TravelTimes(context.Background(),
		models.PlaceCoordinate{Latitude: 1, Longitude: 2, Name: "A"},
		models.PlaceCoordinate{Latitude: 3, Longitude: 4, Name: "B"})

	if times.Drive != "" {
		t.Errorf("drive should be unresolved, got %q", times.Drive)
	}
	if times.Transit != "25 min" {
		t.Errorf("transit = %q", times.Transit)
	}
	want := []string{"101", "Ferry", "Bus"}
	if len(times.TransitLines) != len(want) {
		t.Fatalf("lines = %v", times.TransitLines)
	}
	for i := range want {
		if times.TransitLines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, times.TransitLines[i], want[i])
		}
	}
	if times.Walk != "" {
		t.Errorf("walk should be unresolved, got %q", times.Walk)
	}
}

func transit(short, name string) *serp.TransitDetails {
	td := &serp.TransitDetails{}
	td.Line.ShortName = short
	td.Line.Name = name
	return td
}
