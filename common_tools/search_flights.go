package common_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Desarso/tripagent/serp"
)

type flightSummary struct {
	Date          string      `json:"date"`
	Airline       string      `json:"airline"`
	PricePerAdult json.Number `json:"price_per_adult"`
	Duration      int         `json:"duration"`
}

// A missing return date means a one-way search.
func flightDefaults(args Args) {
	if _, ok := args["return_date"]; !ok {
		args["return_date"] = ""
	}
}

func (t *TravelTools) searchFlights(ctx context.Context, env *Env, args Args) Result {
	date := args.String("date")
	returnDate := args.String("return_date")
	tripType := "2"
	if returnDate != "" {
		tripType = "1"
	}
	t.logf("flights %s -> %s (%s)", args.String("origin"), args.String("destination"), date)

	res, err := t.Search.Search(ctx, serp.Params{
		"engine":        serp.EngineFlights,
		"departure_id":  args.String("origin"),
		"arrival_id":    args.String("destination"),
		"outbound_date": date,
		"return_date":   returnDate,
		"currency":      t.Currency,
		"hl":            t.Language,
		"type":          tripType,
	})
	if err != nil {
		t.logf("flight search failed: %v", err)
		return Result{Content: fmt.Sprintf("Error searching flights for %s", date)}
	}
	if len(res.BestFlights) == 0 {
		return Result{Content: fmt.Sprintf("RESULT: No specific flights found for %s. (HINT: Date might be too far ahead?)", date)}
	}

	best := res.BestFlights[0]
	summary := flightSummary{Date: date, PricePerAdult: best.Price, Duration: best.TotalDuration}
	if len(best.Flights) > 0 {
		summary.Airline = best.Flights[0].Airline
	}
	if summary.PricePerAdult == "" {
		summary.PricePerAdult = "0"
	}
	body, err := json.Marshal(summary)
	if err != nil {
		return Result{Content: fmt.Sprintf("Error searching flights for %s", date)}
	}
	return Result{Content: string(body)}
}
