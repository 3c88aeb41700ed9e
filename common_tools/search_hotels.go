package common_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Desarso/tripagent/serp"
)

const dateLayout = "2006-01-02"

// check_out_date defaults to the night after check-in, adults to one.
func hotelDefaults(args Args) {
	if _, ok := args["adults"]; !ok {
		args["adults"] = float64(1)
	}
	if _, ok := args["check_out_date"]; ok {
		return
	}
	checkIn, ok := args["check_in_date"].(string)
	if !ok {
		return
	}
	if d, err := time.Parse(dateLayout, checkIn); err == nil {
		args["check_out_date"] = d.AddDate(0, 0, 1).Format(dateLayout)
	}
}

func (t *TravelTools) searchHotels(ctx context.Context, env *Env, args Args) Result {
	city := args.String("city")
	adults := args.Int("adults")
	if adults < 1 {
		adults = 1
	}
	searchType := "Hotels"
	if adults > 2 {
		searchType = "Vacation Rentals"
	}
	t.logf("hotels in %s for %d", city, adults)

	res, err := t.Search.Search(ctx, serp.Params{
		"engine":         serp.EngineHotels,
		"q":              fmt.Sprintf("%s %s", city, searchType),
		"check_in_date":  args.String("check_in_date"),
		"check_out_date": args.String("check_out_date"),
		"adults":         strconv.Itoa(adults),
		"currency":       t.Currency,
		"hl":             t.Language,
		"gl":             t.Region,
	})
	if err != nil {
		t.logf("hotel search failed: %v", err)
		return Result{Content: "Error searching hotels"}
	}

	var lines []string
	for i, h := range res.Properties {
		if i == 3 {
			break
		}
		price := "N/A"
		if h.RatePerNight != nil && h.RatePerNight.Lowest != "" {
			price = h.RatePerNight.Lowest
		}
		line := fmt.Sprintf("- %s | Price: %s", h.Name, price)
		if len(h.Images) > 0 && h.Images[0].Thumbnail != "" {
			line += fmt.Sprintf("\n  ![%s](%s)", h.Name, h.Images[0].Thumbnail)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Result{Content: "No hotels found"}
	}
	return Result{Content: strings.Join(lines, "\n")}
}
